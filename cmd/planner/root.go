package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsned/production-planner/internal/config"
	"github.com/rsned/production-planner/internal/logger"
	"github.com/rsned/production-planner/internal/planner/catalog"
	"github.com/rsned/production-planner/internal/planner/db"
	"github.com/rsned/production-planner/internal/planner/engine"
)

// app carries what every subcommand shares.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	dbPath  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Production chain planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Path to SQLite database (overrides "+config.EnvDBPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newResolveCmd(a),
		newLookupCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = a.dbPath
	}
	if a.verbose {
		cfg.LogLevel = logger.LogLevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.New(os.Stderr, cfg.Logger())
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	database, err := db.OpenAndInit(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", a.cfg.DBPath, err)
	}
	return database, nil
}

// newEngine builds the resolver over the cached SQLite catalog.
func (a *app) newEngine(database *db.DB) (*engine.Engine, *catalog.Cached) {
	cat := catalog.NewCached(db.NewCatalogStore(database), a.cfg.CatalogCacheSize, a.cfg.CatalogCacheTTL)
	eng := engine.New(cat,
		engine.WithMaxDepth(a.cfg.ResolveMaxDepth),
		engine.WithConcurrency(a.cfg.ResolveConcurrency),
		engine.WithLogger(a.logger),
	)
	return eng, cat
}
