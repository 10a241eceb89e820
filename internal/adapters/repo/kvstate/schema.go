package kvstate

import (
	"time"

	"github.com/bnema/subaccount-pool/internal/domain"
)

type recordSchema struct {
	APIKey                   string  `json:"api_key"`
	PrimaryAccountAPIKey     string  `json:"primary_account_api_key"`
	Secret                   string  `json:"secret,omitempty"`
	SignatureSecret          string  `json:"signature_secret,omitempty"`
	Name                     string  `json:"name"`
	Balance                  float64 `json:"balance"`
	CreditLimit              float64 `json:"credit_limit"`
	Suspended                bool    `json:"suspended"`
	CreatedAt                string  `json:"created_at,omitempty"`
	UsePrimaryAccountBalance bool    `json:"use_primary_account_balance"`
	Used                     bool    `json:"used"`
}

type indexEntrySchema struct {
	APIKey string `json:"api_key"`
	Used   bool   `json:"used"`
}

func toRecordSchema(record domain.Subaccount) recordSchema {
	return recordSchema{
		APIKey:                   record.APIKey,
		PrimaryAccountAPIKey:     record.PrimaryAccountAPIKey,
		Secret:                   record.Secret,
		SignatureSecret:          record.SignatureSecret,
		Name:                     record.Name,
		Balance:                  record.Balance,
		CreditLimit:              record.CreditLimit,
		Suspended:                record.Suspended,
		CreatedAt:                formatTime(record.CreatedAt),
		UsePrimaryAccountBalance: record.UsePrimaryAccountBalance,
		Used:                     record.Used,
	}
}

func fromRecordSchema(schema recordSchema) domain.Subaccount {
	return domain.Subaccount{
		APIKey:                   schema.APIKey,
		PrimaryAccountAPIKey:     schema.PrimaryAccountAPIKey,
		Secret:                   schema.Secret,
		SignatureSecret:          schema.SignatureSecret,
		Name:                     schema.Name,
		Suspended:                schema.Suspended,
		Used:                     schema.Used,
		Balance:                  schema.Balance,
		CreditLimit:              schema.CreditLimit,
		UsePrimaryAccountBalance: schema.UsePrimaryAccountBalance,
		CreatedAt:                parseTime(schema.CreatedAt),
	}
}

func toIndexSchema(index domain.PoolIndex) []indexEntrySchema {
	entries := make([]indexEntrySchema, 0, len(index))
	for _, entry := range index {
		entries = append(entries, indexEntrySchema{APIKey: entry.APIKey, Used: entry.Used})
	}

	return entries
}

func fromIndexSchema(entries []indexEntrySchema) domain.PoolIndex {
	index := make(domain.PoolIndex, 0, len(entries))
	for _, entry := range entries {
		index = append(index, domain.IndexEntry{APIKey: entry.APIKey, Used: entry.Used})
	}

	return index
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
