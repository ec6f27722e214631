package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChangesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Mark catalog identifiers pending in every session",
	}

	cmd.AddCommand(newChangesAddCmd(app), newChangesPollCmd(app))

	return cmd
}

func newChangesAddCmd(app *app) *cobra.Command {
	flags := &passFlags{}
	var leafArgs []string
	var groupArgs []string
	var runAfter bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Mark leaf and group IDs pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			leaves, err := parseLeafIDs(leafArgs)
			if err != nil {
				return fmt.Errorf("leaf: %w", err)
			}
			groups, err := parseGroupIDs(groupArgs)
			if err != nil {
				return fmt.Errorf("group: %w", err)
			}
			if len(leaves) == 0 && len(groups) == 0 {
				return fmt.Errorf("at least one --leaf or --group is required")
			}

			opts := flags.runtimeOptions(app)
			opts.connect = runAfter
			rt, err := app.openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			added := rt.pipeline.AddChanges(cmd.Context(), leaves, groups)
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d identifiers newly pending\n", added); err != nil {
				return err
			}
			if !runAfter {
				return nil
			}

			report, err := runPass(cmd, rt, flags)
			if err != nil {
				return err
			}
			return writePassReport(cmd, report, flags.asJSON)
		},
	}

	cmd.Flags().StringSliceVar(&leafArgs, "leaf", nil, "Changed leaf IDs")
	cmd.Flags().StringSliceVar(&groupArgs, "group", nil, "Changed group IDs")
	cmd.Flags().BoolVar(&runAfter, "pass", false, "Run a classification pass afterwards")
	flags.register(cmd)

	return cmd
}

func newChangesPollCmd(app *app) *cobra.Command {
	flags := &passFlags{}
	var since uint32
	var runAfter bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Fetch the catalog change feed since a change number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.runtimeOptions(app)
			opts.connect = runAfter
			rt, err := app.openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			changes, err := rt.catalog.FetchChanges(cmd.Context(), since)
			if err != nil {
				return err
			}

			added := rt.pipeline.AddChanges(cmd.Context(), changes.Leaves, changes.Groups)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "change %d: %d leaves, %d groups, %d identifiers newly pending\n",
				changes.CurrentChange, len(changes.Leaves), len(changes.Groups), added)
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

	cmd.Flags().Uint32Var(&since, "since", 0, "Last change number already applied")
	cmd.Flags().BoolVar(&runAfter, "pass", false, "Run a classification pass afterwards")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("since")

	return cmd
}
