package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bnema/freepackages/internal/application"
	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/logging"
)

const defaultOneShotReadyTimeout = 5 * time.Second

type passFlags struct {
	session      string
	asJSON       bool
	skipRefresh  bool
	readyTimeout time.Duration
}

func (f *passFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Render the pass report as JSON")
	cmd.Flags().BoolVar(&f.skipRefresh, "skip-refresh", false, "Do not fetch account data before classifying")
	cmd.Flags().DurationVar(&f.readyTimeout, "ready-timeout", defaultOneShotReadyTimeout, "Longest wait for sessions to become ready")
}

func newPassCmd(app *app) *cobra.Command {
	flags := &passFlags{}

	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Run one classification pass over every pending identifier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.openRuntime(cmd.Context(), flags.runtimeOptions(app))
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := runPass(cmd, rt, flags)
			if err != nil {
				return err
			}
			return writePassReport(cmd, report, flags.asJSON)
		},
	}

	cmd.Flags().StringVar(&flags.session, "session", "", "Session name (default: all sessions)")
	flags.register(cmd)

	return cmd
}

func (f *passFlags) runtimeOptions(app *app) runtimeOptions {
	opts := app.pipelineOptions()
	opts.DisableRefresh = true
	if f.readyTimeout > 0 {
		opts.ReadyTimeout = f.readyTimeout
	}

	return runtimeOptions{
		pipeline: opts,
		connect:  true,
		only:     domain.SessionKey(f.session),
	}
}

func runPass(cmd *cobra.Command, rt *runtime, flags *passFlags) (application.PassReport, error) {
	var report application.PassReport

	err := runProgressSpinner(cmd.Context(), cmd.ErrOrStderr(), "Classifying pending content...", func(ctx context.Context, phase func(string)) error {
		if !flags.skipRefresh {
			phase(fmt.Sprintf("refreshing %d sessions", len(rt.queues)))
			if err := rt.refreshAll(ctx); err != nil {
				logging.Warn().Err(err).Msg("refresh account data")
			}
		}

		phase("resolving catalog")
		var err error
		report, err = rt.pipeline.RunPass(ctx)
		return err
	})
	if err != nil {
		return application.PassReport{}, fmt.Errorf("classification pass: %w", err)
	}

	return report, nil
}

func writePassReport(cmd *cobra.Command, report application.PassReport, asJSON bool) error {
	out := cmd.OutOrStdout()

	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode pass report: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if report.Empty() {
		_, err := fmt.Fprintf(out, "pass %s: nothing pending across %d sessions\n", report.CorrelationID, report.Sessions)
		return err
	}

	_, err := fmt.Fprintf(out,
		"pass %s: %d sessions, %d leaves and %d groups pending, %d batches (%d failed), %d enqueued, %d discarded, %d unknown\n",
		report.CorrelationID,
		report.Sessions,
		report.PendingLeaves,
		report.PendingGroups,
		report.Batches,
		report.FailedBatches,
		report.Enqueued,
		report.Discarded,
		report.Unknown,
	)
	if err != nil {
		return err
	}
	if report.ReadyTimedOut {
		_, err = fmt.Fprintln(out, "warning: some sessions were not ready; their items stay pending")
	}
	return err
}
