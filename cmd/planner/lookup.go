package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rsned/production-planner/pkg/planner"
)

func newLookupCmd(a *app) *cobra.Command {
	var (
		req    planner.CatalogLookupRequest
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "lookup [item-id]",
		Short: "Show the recipes producing and consuming an item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				req.ItemID = args[0]
			}
			if req.ItemID == "" && req.RecipeID == "" {
				return fmt.Errorf("an item id or --recipe is required")
			}

			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			eng, _ := a.newEngine(database)
			resp, err := eng.CatalogLookup(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printLookup(out, resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.RecipeID, "recipe", "", "Recipe to look up")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printLookup(w io.Writer, resp *planner.CatalogLookupResponse) {
	if resp.Item != nil {
		fmt.Fprintf(w, "Item: %s (%s)\n", resp.Item.Name, resp.Item.ID)
	}
	if resp.Recipe != nil {
		fmt.Fprintf(w, "Recipe: %s\n", formatRecipe(resp.Recipe))
	}
	if resp.DefaultRecipe != nil {
		fmt.Fprintf(w, "Default: %s\n", resp.DefaultRecipe.ID)
	}
	if len(resp.ProducedBy) > 0 {
		fmt.Fprintln(w, "Produced by:")
		for i := range resp.ProducedBy {
			fmt.Fprintf(w, "  %s\n", formatRecipe(&resp.ProducedBy[i]))
		}
	}
	if len(resp.ConsumedBy) > 0 {
		fmt.Fprintf(w, "Consumed by: %s\n", strings.Join(resp.ConsumedBy, ", "))
	}
}

func formatRecipe(r *planner.Recipe) string {
	amounts := func(m map[string]float64, ids []string) string {
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, fmt.Sprintf("%g %s", m[id], id))
		}
		return strings.Join(parts, " + ")
	}
	return fmt.Sprintf("%s: %s -> %s in %gs (%.4g cycles/min per machine)", r.ID,
		amounts(r.Inputs, r.InputIDs()), amounts(r.Outputs, r.OutputIDs()), r.CycleTimeSeconds, r.CyclesPerMinute())
}
