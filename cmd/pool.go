package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	poolrender "github.com/bnema/subaccount-pool/internal/adapters/render/pool"
	"github.com/bnema/subaccount-pool/internal/application"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/spf13/cobra"
)

type subaccountOutput struct {
	APIKey                   string  `json:"api_key"`
	PrimaryAccountAPIKey     string  `json:"primary_account_api_key"`
	Name                     string  `json:"name"`
	Secret                   string  `json:"secret,omitempty"`
	SignatureSecret          string  `json:"signature_secret,omitempty"`
	Suspended                bool    `json:"suspended"`
	Used                     bool    `json:"used"`
	Balance                  float64 `json:"balance"`
	CreditLimit              float64 `json:"credit_limit"`
	UsePrimaryAccountBalance bool    `json:"use_primary_account_balance"`
	CreatedAt                string  `json:"created_at,omitempty"`
}

type indexEntryOutput struct {
	APIKey string `json:"api_key"`
	Used   bool   `json:"used"`
}

type poolSummaryOutput struct {
	Primary string             `json:"primary"`
	Free    int                `json:"free"`
	Leased  int                `json:"leased"`
	Members []indexEntryOutput `json:"members"`
}

func newPoolCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Lease, return and inspect pooled subaccounts",
	}

	cmd.AddCommand(
		newPoolAcquireCmd(app),
		newPoolReleaseCmd(app),
		newPoolIndexCmd(app),
		newPoolShowCmd(app),
		newPoolAdoptCmd(app),
		newPoolReconcileCmd(app),
		newPoolSetSignatureCmd(app),
	)

	return cmd
}

func newPoolAcquireCmd(app *app) *cobra.Command {
	var (
		primary string
		name    string
		secret  string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Lease a free subaccount, creating one when the pool is exhausted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := loadPooledCredentials(cmd.Context(), app, primary)
			if err != nil {
				return err
			}

			var record domain.Subaccount
			err = runRemote(cmd, asJSON, "Leasing subaccount...", func(ctx context.Context) error {
				var callErr error
				record, callErr = app.allocator.Acquire(ctx, application.AcquireCommand{
					Credentials: creds,
					Name:        name,
					Secret:      secret,
				})
				return callErr
			})
			if err != nil {
				return err
			}

			return writeRecordOutput(cmd, app, record, asJSON, true)
		},
	}

	cmd.Flags().StringVar(&primary, "primary", "", "Primary account API key")
	cmd.Flags().StringVar(&name, "name", "", "Name to give the leased subaccount")
	cmd.Flags().StringVar(&secret, "secret", "", "Secret to install on the leased subaccount")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("primary")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func newPoolReleaseCmd(app *app) *cobra.Command {
	var (
		primary    string
		subaccount string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Suspend a leased subaccount and return it to the pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := loadPooledCredentials(cmd.Context(), app, primary)
			if err != nil {
				return err
			}

			var record domain.Subaccount
			err = runRemote(cmd, asJSON, "Releasing subaccount...", func(ctx context.Context) error {
				var callErr error
				record, callErr = app.allocator.Release(ctx, application.ReleaseCommand{
					Credentials:   creds,
					SubaccountKey: subaccount,
				})
				return callErr
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, toSubaccountOutput(record, false))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Released %s back to pool %s\n", sanitizeForTerminal(record.APIKey), sanitizeForTerminal(primary))
			return nil
		},
	}

	addSubaccountFlags(cmd, &primary, &subaccount)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newPoolIndexCmd(app *app) *cobra.Command {
	var (
		primary string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Show pool membership and lease state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := app.allocator.Summary(cmd.Context(), primary)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, toPoolSummaryOutput(summary))
			}

			rendered, err := app.summaryRender(summary)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&primary, "primary", "", "Primary account API key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("primary")

	return cmd
}

func newPoolShowCmd(app *app) *cobra.Command {
	var (
		primary     string
		subaccount  string
		asJSON      bool
		showSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the local record of one subaccount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := app.allocator.Record(cmd.Context(), application.RecordQuery{
				PrimaryKey:    primary,
				SubaccountKey: subaccount,
			})
			if err != nil {
				return err
			}

			return writeRecordOutput(cmd, app, record, asJSON, showSecrets)
		},
	}

	addSubaccountFlags(cmd, &primary, &subaccount)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secrets instead of masking them")

	return cmd
}

func newPoolAdoptCmd(app *app) *cobra.Command {
	var primary, subaccount string

	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "Add an existing remote subaccount to the pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := app.credentials.Load(cmd.Context(), primary)
			if err != nil {
				return err
			}

			var record domain.Subaccount
			err = runRemote(cmd, false, "Adopting subaccount...", func(ctx context.Context) error {
				var callErr error
				record, callErr = app.allocator.Adopt(ctx, application.AdoptCommand{Credentials: creds, SubaccountKey: subaccount})
				return callErr
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Adopted %s into pool %s (used: %t)\n", sanitizeForTerminal(record.APIKey), sanitizeForTerminal(primary), record.Used)
			return nil
		},
	}

	addSubaccountFlags(cmd, &primary, &subaccount)

	return cmd
}

func newPoolReconcileCmd(app *app) *cobra.Command {
	var primary, subaccount string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Overwrite the local record and index entry from the remote state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := app.credentials.Load(cmd.Context(), primary)
			if err != nil {
				return err
			}

			var record domain.Subaccount
			err = runRemote(cmd, false, "Reconciling subaccount...", func(ctx context.Context) error {
				var callErr error
				record, callErr = app.allocator.Reconcile(ctx, application.ReconcileCommand{Credentials: creds, SubaccountKey: subaccount})
				return callErr
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %s (suspended: %t, used: %t)\n", sanitizeForTerminal(record.APIKey), record.Suspended, record.Used)
			return nil
		},
	}

	addSubaccountFlags(cmd, &primary, &subaccount)

	return cmd
}

func newPoolSetSignatureCmd(app *app) *cobra.Command {
	var primary, subaccount, signatureSecret string

	cmd := &cobra.Command{
		Use:   "set-signature",
		Short: "Record the signature secret of a subaccount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := app.allocator.SetSignatureSecret(cmd.Context(), application.SetSignatureSecretCommand{
				PrimaryKey:      primary,
				SubaccountKey:   subaccount,
				SignatureSecret: signatureSecret,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signature secret set for %s\n", sanitizeForTerminal(record.APIKey))
			return nil
		},
	}

	addSubaccountFlags(cmd, &primary, &subaccount)
	cmd.Flags().StringVar(&signatureSecret, "signature-secret", "", "Signature secret issued for the subaccount")
	_ = cmd.MarkFlagRequired("signature-secret")

	return cmd
}

func addSubaccountFlags(cmd *cobra.Command, primary *string, subaccount *string) {
	cmd.Flags().StringVar(primary, "primary", "", "Primary account API key")
	cmd.Flags().StringVar(subaccount, "subaccount", "", "Subaccount API key")
	_ = cmd.MarkFlagRequired("primary")
	_ = cmd.MarkFlagRequired("subaccount")
}

// loadPooledCredentials gates lease operations on the main key registry
// before reading the stored primary secret.
func loadPooledCredentials(ctx context.Context, app *app, primary string) (domain.Credentials, error) {
	if err := app.mainKeys.RequirePooled(ctx, strings.TrimSpace(primary)); err != nil {
		return domain.Credentials{}, err
	}

	return app.credentials.Load(ctx, primary)
}

// runRemote draws a spinner on stderr unless quiet is set.
func runRemote(cmd *cobra.Command, quiet bool, label string, call func(context.Context) error) error {
	if quiet {
		return call(cmd.Context())
	}

	return runRemoteCallSpinner(cmd.Context(), cmd.ErrOrStderr(), label, call)
}

func writeRecordOutput(cmd *cobra.Command, app *app, record domain.Subaccount, asJSON bool, showSecrets bool) error {
	if asJSON {
		return writeJSON(cmd, toSubaccountOutput(record, showSecrets))
	}

	rendered, err := app.recordRenderer(record, poolrender.RenderOptions{ShowSecrets: showSecrets})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func writeJSON(cmd *cobra.Command, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return err
}

func toSubaccountOutput(record domain.Subaccount, showSecrets bool) subaccountOutput {
	out := subaccountOutput{
		APIKey:                   record.APIKey,
		PrimaryAccountAPIKey:     record.PrimaryAccountAPIKey,
		Name:                     record.Name,
		Suspended:                record.Suspended,
		Used:                     record.Used,
		Balance:                  record.Balance,
		CreditLimit:              record.CreditLimit,
		UsePrimaryAccountBalance: record.UsePrimaryAccountBalance,
	}
	if showSecrets {
		out.Secret = record.Secret
		out.SignatureSecret = record.SignatureSecret
	}
	if !record.CreatedAt.IsZero() {
		out.CreatedAt = record.CreatedAt.UTC().Format(time.RFC3339)
	}

	return out
}

func toPoolSummaryOutput(summary application.PoolSummary) poolSummaryOutput {
	members := make([]indexEntryOutput, 0, len(summary.Index))
	for _, entry := range summary.Index {
		members = append(members, indexEntryOutput{APIKey: entry.APIKey, Used: entry.Used})
	}

	return poolSummaryOutput{
		Primary: summary.PrimaryKey,
		Free:    summary.Free,
		Leased:  summary.Leased,
		Members: members,
	}
}

func sanitizeForTerminal(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}
