package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/freepackages/internal/adapters/render/status"
	"github.com/bnema/freepackages/internal/application"
	"github.com/bnema/freepackages/internal/domain"
)

func newStatusCmd(app *app) *cobra.Command {
	var session string
	var asJSON bool
	var refresh bool
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pending work, queue and account data per session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := app.pipelineOptions()
			opts.DisableRefresh = true

			rt, err := app.openRuntime(cmd.Context(), runtimeOptions{
				pipeline: opts,
				connect:  refresh,
				only:     domain.SessionKey(session),
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			if refresh {
				err := runProgressSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching account data...", func(ctx context.Context, phase func(string)) error {
					phase(fmt.Sprintf("%d sessions", len(rt.queues)))
					return rt.refreshAll(ctx)
				})
				if err != nil {
					return fmt.Errorf("refresh account data: %w", err)
				}
			}

			return writeStatusesOutput(cmd, app, rt.pipeline.Statuses(), staleAfter, asJSON)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name (default: all sessions)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Connect and fetch account data first")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "Flag account data older than this")

	return cmd
}

func writeStatusesOutput(cmd *cobra.Command, app *app, statuses []application.SessionStatus, staleAfter time.Duration, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if staleAfter <= 0 {
		staleAfter = app.cfg.Refresh.Interval * 2
	}

	rendered, err := app.statusRenderer(statuses, statusadapter.RenderOptions{
		Now:        app.now(),
		StaleAfter: staleAfter,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
