package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/spf13/cobra"
)

const poolSuffix = ":pool"

type mainKeyOutput struct {
	APIKey string `json:"apikey"`
	Pool   bool   `json:"pool"`
}

func newMainKeysCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mainkeys",
		Short: "Manage the registry of primary accounts allowed to pool",
	}

	cmd.AddCommand(
		newMainKeysSetCmd(app),
		newMainKeysListCmd(app),
	)

	return cmd
}

func newMainKeysSetCmd(app *app) *cobra.Command {
	var keys []string

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Replace the main key registry",
		Example: "  subpool mainkeys set --key P1:pool --key P2",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed := make([]domain.MainKey, 0, len(keys))
			for _, raw := range keys {
				parsed = append(parsed, parseMainKeyFlag(raw))
			}

			stored, err := app.mainKeys.Replace(cmd.Context(), parsed)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %d main keys\n", len(stored))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&keys, "key", nil, "Primary API key, suffixed with :pool to allow pooling (repeatable)")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func newMainKeysListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered main keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := app.mainKeys.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]mainKeyOutput, 0, len(keys))
				for _, key := range keys {
					out = append(out, mainKeyOutput{APIKey: key.APIKey, Pool: key.Pool})
				}
				return writeJSON(cmd, out)
			}

			for _, key := range keys {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tpool: %t\n", sanitizeForTerminal(key.APIKey), key.Pool)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func parseMainKeyFlag(raw string) domain.MainKey {
	trimmed := strings.TrimSpace(raw)
	if apiKey, ok := strings.CutSuffix(trimmed, poolSuffix); ok {
		return domain.MainKey{APIKey: apiKey, Pool: true}
	}

	return domain.MainKey{APIKey: trimmed}
}
