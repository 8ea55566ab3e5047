package main

import (
	"github.com/spf13/cobra"

	"github.com/rsned/production-planner/internal/planner/sync"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		files      sync.Files
		clearFirst bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import catalog files (JSON or YAML) into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			syncer := sync.NewSyncer(database)
			if clearFirst {
				a.logger.Info("Clearing catalog")
				if err := syncer.ClearAll(ctx); err != nil {
					return err
				}
			}

			a.logger.Info("Importing catalog",
				"items", files.Items,
				"machines", files.Machines,
				"recipes", files.Recipes,
				"defaults", files.Defaults)
			if err := syncer.ImportAll(ctx, files); err != nil {
				return err
			}
			a.logger.Info("Catalog imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&files.Items, "items", "", "Items file")
	cmd.Flags().StringVar(&files.Machines, "machines", "", "Machines file")
	cmd.Flags().StringVar(&files.Recipes, "recipes", "", "Recipes file")
	cmd.Flags().StringVar(&files.Defaults, "defaults", "", "Default recipes file (item id to recipe id)")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Remove the existing catalog first")
	cmd.MarkFlagsOneRequired("items", "machines", "recipes", "defaults")
	return cmd
}
