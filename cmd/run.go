package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/freepackages/internal/application"
	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/supervisor"
)

func newRunCmd(app *app) *cobra.Command {
	var metricsAddr string
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline, change watcher and account refresh until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := app.openRuntime(ctx, runtimeOptions{
				pipeline: app.pipelineOptions(),
				connect:  true,
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			sup := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultConfig())
			sup.Add(rt.pipeline)
			if !noWatch {
				sup.Add(application.NewChangeWatcher(rt.catalog, rt.pipeline, app.cfg.Changes.Interval))
			}
			if metricsAddr == "" {
				metricsAddr = app.cfg.MetricsAddr
			}
			if metricsAddr != "" {
				sup.Add(supervisor.NewMetricsService(metricsAddr))
			}

			// Work restored from a previous run is classified right away.
			rt.pipeline.Trigger()

			logging.Info().
				Int("sessions", len(rt.queues)).
				Str("state_backend", app.cfg.StateBackend).
				Str("metrics_addr", metricsAddr).
				Msg("starting supervisor")

			if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			logging.Info().Msg("stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default: metrics.addr)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not poll the catalog change feed")

	return cmd
}
