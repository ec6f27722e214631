package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/freepackages/internal/domain"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage session credentials",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var session string
	var ref string
	var token string
	var accountID string
	var cookies map[string]string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a session credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			credential := domain.Credential{
				AccessToken: token,
				AccountID:   accountID,
				Cookies:     cookies,
			}

			return app.sessions.SetCredential(cmd.Context(), domain.SessionKey(session), ref, credential)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name")
	cmd.Flags().StringVar(&ref, "ref", "", "Credential ref (default: session://<name>/credential)")
	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.Flags().StringVar(&accountID, "account-id", "", "Remote account ID")
	cmd.Flags().StringToStringVar(&cookies, "cookie", nil, "Cookie forwarded on web requests (name=value)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a session credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sessions.RemoveCredential(cmd.Context(), domain.SessionKey(session)); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "credential removed from session %s\n", session)
			return err
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
