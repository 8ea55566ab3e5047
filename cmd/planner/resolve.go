package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rsned/production-planner/internal/planner/engine"
	"github.com/rsned/production-planner/pkg/planner"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		req    engine.Request
		excess []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <item-id>",
		Short: "Resolve the production chain for an item and print it with per-item totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req.ItemID = args[0]

			var err error
			if req.Excess, err = parseExcess(excess); err != nil {
				return err
			}

			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			eng, _ := a.newEngine(database)
			root, err := eng.ResolveTree(ctx, req)
			if err != nil {
				return err
			}
			totals := engine.ItemTotals(engine.Accumulate(root))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Root   *planner.ProductionNode `json:"root"`
					Totals []planner.ItemTotal     `json:"totals"`
				}{root, totals})
			}
			printTree(out, root)
			fmt.Fprintln(out)
			return printTotals(out, totals)
		},
	}
	cmd.Flags().StringVar(&req.TreeID, "tree", "plan", "Tree id used to namespace path ids")
	cmd.Flags().Float64Var(&req.RatePerMinute, "rate", 1, "Target rate in units per minute")
	cmd.Flags().StringVar(&req.RecipeID, "recipe", "", "Recipe for the target item")
	cmd.Flags().StringArrayVar(&excess, "excess", nil, "Extra units at a node, as PATH=UNITS (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func parseExcess(values []string) (map[string]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(values))
	for _, v := range values {
		path, units, ok := strings.Cut(v, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --excess %q, want PATH=UNITS", v)
		}
		n, err := strconv.ParseFloat(units, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid --excess units %q", units)
		}
		out[path] = n
	}
	return out, nil
}

func printTree(w io.Writer, root *planner.ProductionNode) {
	root.Walk(func(n *planner.ProductionNode) bool {
		indent := strings.Repeat("  ", n.Depth)
		line := fmt.Sprintf("%s%s %.4g/min", indent, n.ItemID, n.RatePerMinute)
		switch {
		case n.IsByproduct:
			line += " (byproduct)"
		case n.Unresolved != "":
			line += " (unresolved: " + n.Unresolved + ")"
		case n.SelectedRecipeID != "":
			line += fmt.Sprintf(" via %s x%.4g", n.SelectedRecipeID, n.CyclesPerMinute)
		default:
			line += " (raw)"
		}
		if n.ExcessUnits != 0 {
			line += fmt.Sprintf(" +%.4g excess", n.ExcessUnits)
		}
		fmt.Fprintf(w, "%s  [%s]\n", line, n.PathID)
		return true
	})
}

func printTotals(w io.Writer, totals []planner.ItemTotal) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tITEM\tRECIPE\tRATE/MIN\tNODES")
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4g\t%d\n", t.Kind, t.ItemID, t.RecipeID, t.TotalRatePerMinute, t.NodeCount)
	}
	return tw.Flush()
}
