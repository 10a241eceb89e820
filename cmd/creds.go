package cmd

import (
	"fmt"

	"github.com/bnema/subaccount-pool/internal/application"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/spf13/cobra"
)

func newCredsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Store primary account credentials used by pool commands",
	}

	cmd.AddCommand(
		newCredsSetCmd(app),
		newCredsRemoveCmd(app),
	)

	return cmd
}

func newCredsSetCmd(app *app) *cobra.Command {
	var primary, secret string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the secret of a primary account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.credentials.Set(cmd.Context(), domain.Credentials{APIKey: primary, Secret: secret}); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored credentials at %s\n", sanitizeForTerminal(application.CredentialSecretKey(primary)))
			return nil
		},
	}

	cmd.Flags().StringVar(&primary, "primary", "", "Primary account API key")
	cmd.Flags().StringVar(&secret, "secret", "", "Primary account secret")
	_ = cmd.MarkFlagRequired("primary")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func newCredsRemoveCmd(app *app) *cobra.Command {
	var primary string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the stored secret of a primary account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.credentials.Remove(cmd.Context(), primary); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials for %s\n", sanitizeForTerminal(primary))
			return nil
		},
	}

	cmd.Flags().StringVar(&primary, "primary", "", "Primary account API key")
	_ = cmd.MarkFlagRequired("primary")

	return cmd
}
