package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/freepackages/internal/adapters/queue"
	"github.com/bnema/freepackages/internal/domain"
)

func newQueueCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and edit a session's redemption queue",
	}

	cmd.AddCommand(
		newQueueListCmd(app),
		newQueueRemoveCmd(app),
		newQueueClearCmd(app),
	)

	return cmd
}

// withQueue loads the persisted queue of one session and hands it to fn.
func withQueue(cmd *cobra.Command, app *app, name string, fn func(*queue.Queue) error) error {
	session, err := app.sessionRepo.GetByName(cmd.Context(), domain.SessionKey(name))
	if err != nil {
		return fmt.Errorf("get session by name: %w", err)
	}

	state, release, err := app.openState()
	if err != nil {
		return err
	}
	defer release()

	q := queue.New(session.Name, session.QueueLimit, state, app.clock)
	if err := q.Load(cmd.Context()); err != nil {
		return err
	}

	return fn(q)
}

func newQueueListCmd(app *app) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueue(cmd, app, session, func(q *queue.Queue) error {
				out := cmd.OutOrStdout()
				if _, err := fmt.Fprintln(out, q.Status()); err != nil {
					return err
				}

				now := app.now()
				for _, item := range q.Items() {
					line := item.Key()
					if len(item.ContentIDs) > 0 {
						line += fmt.Sprintf("\tcontents: %s", joinIDs(item.ContentIDs))
					}
					if item.Gated(now) {
						line += "\tstarts " + item.StartTime.Local().Format(time.RFC3339)
					}
					if _, err := fmt.Fprintln(out, line); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newQueueRemoveCmd(app *app) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "remove <kind/id>",
		Short: "Remove one queued item, e.g. group/1234",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueue(cmd, app, session, func(q *queue.Queue) error {
				if !q.Remove(args[0]) {
					return fmt.Errorf("item %q is not queued", args[0])
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return err
			})
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newQueueClearCmd(app *app) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every queued item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueue(cmd, app, session, func(q *queue.Queue) error {
				q.Clear()
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "queue cleared")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
