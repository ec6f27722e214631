package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fp",
		Short:         "Free packages (fp): classify free catalog content per account session",
		Long:          "fp tracks catalog changes and owned-group deltas for each configured account session, classifies pending content against the catalog and queues what each session can redeem for free.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSessionCmd(app),
		newAuthCmd(app),
		newChangesCmd(app),
		newDeltaCmd(app),
		newPassCmd(app),
		newQueueCmd(app),
		newStatusCmd(app),
		newRunCmd(app),
	)

	return rootCmd
}
