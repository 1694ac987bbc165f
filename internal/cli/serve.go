package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/olamyy/wmt/internal/server"
	"github.com/olamyy/wmt/pkg/report"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the check engine over HTTP",
		Long: `Serve the check engine over HTTP.

Routes:
  GET  /healthz
  GET  /criteria
  GET  /criteria/{id}
  POST /check        {"packages": ["serde", "npm:express"], "criterion": ""}
  GET  /runs/{id}

Runs are kept in memory, or in MongoDB when store.mongo_uri is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.config()
			if err != nil {
				return err
			}
			eco, err := cfg.Ecosystem()
			if err != nil {
				return err
			}

			runner, cleanup := c.newRunner(ctx, cfg, false)
			defer cleanup()

			var store report.Store = report.NewMemoryStore()
			if cfg.Store.MongoURI != "" {
				mongo, err := report.ConnectMongo(ctx, cfg.Store.MongoURI)
				if err != nil {
					return err
				}
				store = mongo
				logger.Info("storing runs in MongoDB", "database", report.Database, "collection", report.Collection)
			}
			defer store.Close(context.WithoutCancel(ctx))

			srv, err := server.New(server.Config{
				Addr:      addr,
				Runner:    runner,
				Store:     store,
				Ecosystem: eco,
				Timeout:   timeout,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			printInfo(c.out, "Serving on %s", addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "time limit of one POST /check")
	return cmd
}
