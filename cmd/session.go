package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/freepackages/internal/domain"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage account sessions",
	}

	cmd.AddCommand(
		newSessionAddCmd(app),
		newSessionListCmd(app),
		newSessionRemoveCmd(app),
		newSessionEnableCmd(app, "enable", true),
		newSessionEnableCmd(app, "disable", false),
	)

	return cmd
}

func newSessionAddCmd(app *app) *cobra.Command {
	var types []string
	var ignoredLeaves []string
	var ignoredGroups []string
	var playtests bool
	var skipRegions bool
	var queueLimit int
	var disabled bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leaves, err := parseLeafIDs(ignoredLeaves)
			if err != nil {
				return fmt.Errorf("ignore-leaf: %w", err)
			}
			groups, err := parseGroupIDs(ignoredGroups)
			if err != nil {
				return fmt.Errorf("ignore-group: %w", err)
			}

			session := domain.Session{
				Name:       domain.SessionKey(args[0]),
				Enabled:    !disabled,
				QueueLimit: queueLimit,
				Filter: domain.FilterConfig{
					Types:                  parseLeafTypes(types),
					IgnoredLeaves:          leaves,
					IgnoredGroups:          groups,
					Playtests:              playtests,
					SkipUnavailableRegions: skipRegions,
				},
			}

			if err := app.sessions.AddSession(cmd.Context(), session); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %s saved\n", session.Name)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&types, "type", nil, "Wanted leaf types (game|dlc|demo|application|beta); default: all")
	cmd.Flags().StringSliceVar(&ignoredLeaves, "ignore-leaf", nil, "Leaf IDs never queued")
	cmd.Flags().StringSliceVar(&ignoredGroups, "ignore-group", nil, "Group IDs never queued")
	cmd.Flags().BoolVar(&playtests, "playtests", false, "Queue playtest access requests")
	cmd.Flags().BoolVar(&skipRegions, "skip-unavailable-regions", false, "Skip groups restricted to other countries")
	cmd.Flags().IntVar(&queueLimit, "queue-limit", 0, "Maximum queued items (0 = unlimited)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Save the session disabled")

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := app.sessions.ListSessions(cmd.Context())
			if err != nil {
				return err
			}

			for _, session := range sessions {
				state := "enabled"
				if !session.Enabled {
					state = "disabled"
				}
				credential := session.CredentialRef
				if credential == "" {
					credential = "-"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", session.Name, state, credential)
			}

			return nil
		},
	}
}

func newSessionRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a session, its credential and its pipeline state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.SessionKey(args[0])
			if err := app.sessions.RemoveSession(cmd.Context(), name); err != nil {
				return err
			}

			state, release, err := app.openState()
			if err != nil {
				return err
			}
			defer release()

			if err := state.Remove(cmd.Context(), name); err != nil {
				return fmt.Errorf("remove session state: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %s removed\n", name)
			return err
		},
	}
}

func newSessionEnableCmd(app *app, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.sessions.SetEnabled(cmd.Context(), domain.SessionKey(args[0]), enabled)
		},
	}
}

func parseLeafTypes(raw []string) []domain.LeafType {
	if len(raw) == 0 {
		return nil
	}
	out := make([]domain.LeafType, 0, len(raw))
	for _, value := range raw {
		out = append(out, domain.LeafType(strings.ToLower(strings.TrimSpace(value))))
	}
	return out
}

func parseID(raw string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid identifier %q", raw)
	}
	return uint32(n), nil
}

func parseLeafIDs(raw []string) ([]domain.LeafID, error) {
	out := make([]domain.LeafID, 0, len(raw))
	for _, value := range raw {
		id, err := parseID(value)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.LeafID(id))
	}
	return out, nil
}

func parseGroupIDs(raw []string) ([]domain.GroupID, error) {
	out := make([]domain.GroupID, 0, len(raw))
	for _, value := range raw {
		id, err := parseID(value)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.GroupID(id))
	}
	return out, nil
}
