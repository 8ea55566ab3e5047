package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rsned/production-planner/internal/planner/db"
	"github.com/rsned/production-planner/internal/planner/httpapi"
	"github.com/rsned/production-planner/internal/planner/mcp"
	"github.com/rsned/production-planner/internal/planner/plan"
)

func newServeCmd(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner as an MCP tool server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.MetricsAddr = metricsAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			eng, _ := a.newEngine(database)
			store := plan.NewStore(eng, plan.WithLogger(a.logger))
			server := mcp.NewServer(eng, store, a.logger,
				mcp.WithPlanStore(db.NewPlanStore(database)),
				mcp.WithVersion(a.cfg.Version),
			)

			g, gctx := errgroup.WithContext(ctx)
			if a.cfg.MetricsAddr != "" {
				httpServer := httpapi.NewServer(a.cfg.MetricsAddr, a.cfg.Version, store, database, a.logger)
				g.Go(func() error { return httpServer.Start(gctx) })
			}
			g.Go(func() error {
				// EOF on stdin ends the session and the side port with it.
				defer stop()
				return server.Run(gctx)
			})
			g.Go(func() error {
				// Unblocks the stdin reader on shutdown.
				<-gctx.Done()
				return os.Stdin.Close()
			})

			a.logger.Info("Planner serving", "db", a.cfg.DBPath, "metrics_addr", a.cfg.MetricsAddr)
			if err := g.Wait(); err != nil && ctx.Err() == nil {
				return err
			}
			a.logger.Info("Planner stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /healthz and /metrics on this address")
	return cmd
}
