package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/freepackages/internal/domain"
)

func newDeltaCmd(app *app) *cobra.Command {
	flags := &passFlags{}
	var runAfter bool

	cmd := &cobra.Command{
		Use:   "delta <group-id>...",
		Short: "Record the owned groups observed for a session",
		Long:  "delta applies an owned-group observation to one session. The first observation seeds the known groups; later ones mark unseen groups as newly owned so their free DLC is inspected.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			observed, err := parseGroupIDs(args)
			if err != nil {
				return err
			}

			opts := flags.runtimeOptions(app)
			opts.connect = runAfter
			rt, err := app.openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			name := domain.SessionKey(flags.session)
			h, ok := rt.pipeline.Session(name)
			if !ok {
				return fmt.Errorf("session %q: %w", name, domain.ErrSessionNotFound)
			}
			seeding := h.Registry.SeenCount() == 0

			newGroups, err := rt.pipeline.OnInventoryDelta(cmd.Context(), name, observed)
			if err != nil {
				return err
			}

			switch {
			case seeding:
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d owned groups\n", len(observed))
			case len(newGroups) == 0:
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no newly owned groups")
			default:
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d newly owned groups: %s\n", len(newGroups), joinIDs(newGroups))
			}
			if err != nil || !runAfter {
				return err
			}

			report, err := runPass(cmd, rt, flags)
			if err != nil {
				return err
			}
			return writePassReport(cmd, report, flags.asJSON)
		},
	}

	cmd.Flags().StringVar(&flags.session, "session", "", "Session name")
	cmd.Flags().BoolVar(&runAfter, "pass", false, "Run a classification pass afterwards")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func joinIDs[T ~uint32](ids []T) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(uint32(id)))
	}
	return strings.Join(parts, ", ")
}
