package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subpool",
		Short:         "Subaccount pool (subpool): lease and rotate pooled subaccounts",
		Long:          "subpool keeps a pool of reusable subaccounts per primary account, leasing a free member with a freshly rotated secret and returning it on release. It runs as an HTTP service or drives the pool directly from the terminal.",
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
		newServeCmd(app),
		newPoolCmd(app),
		newMainKeysCmd(app),
		newCredsCmd(app),
	)

	return rootCmd
}
