package httpapi

import (
	"time"

	"github.com/bnema/subaccount-pool/internal/domain"
)

type subaccountRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type signatureRequest struct {
	SignatureSecret string `json:"signature_secret"`
}

type mainKeyDTO struct {
	APIKey string `json:"apikey"`
	Pool   bool   `json:"pool"`
}

type indexEntryDTO struct {
	APIKey string `json:"api_key"`
	Used   bool   `json:"used"`
}

type subaccountDTO struct {
	APIKey                   string  `json:"api_key"`
	PrimaryAccountAPIKey     string  `json:"primary_account_api_key"`
	Secret                   string  `json:"secret,omitempty"`
	SignatureSecret          string  `json:"signature_secret,omitempty"`
	Name                     string  `json:"name"`
	Suspended                bool    `json:"suspended"`
	Used                     bool    `json:"used"`
	Balance                  float64 `json:"balance"`
	CreditLimit              float64 `json:"credit_limit"`
	UsePrimaryAccountBalance bool    `json:"use_primary_account_balance"`
	CreatedAt                string  `json:"created_at,omitempty"`
}

func toSubaccountDTO(s domain.Subaccount) subaccountDTO {
	dto := subaccountDTO{
		APIKey:                   s.APIKey,
		PrimaryAccountAPIKey:     s.PrimaryAccountAPIKey,
		Secret:                   s.Secret,
		SignatureSecret:          s.SignatureSecret,
		Name:                     s.Name,
		Suspended:                s.Suspended,
		Used:                     s.Used,
		Balance:                  s.Balance,
		CreditLimit:              s.CreditLimit,
		UsePrimaryAccountBalance: s.UsePrimaryAccountBalance,
	}
	if !s.CreatedAt.IsZero() {
		dto.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toIndexDTO(index domain.PoolIndex) []indexEntryDTO {
	entries := make([]indexEntryDTO, 0, len(index))
	for _, entry := range index {
		entries = append(entries, indexEntryDTO{APIKey: entry.APIKey, Used: entry.Used})
	}
	return entries
}

func toMainKeyDTOs(keys []domain.MainKey) []mainKeyDTO {
	dtos := make([]mainKeyDTO, 0, len(keys))
	for _, key := range keys {
		dtos = append(dtos, mainKeyDTO{APIKey: key.APIKey, Pool: key.Pool})
	}
	return dtos
}

func fromMainKeyDTOs(dtos []mainKeyDTO) []domain.MainKey {
	keys := make([]domain.MainKey, 0, len(dtos))
	for _, dto := range dtos {
		keys = append(keys, domain.MainKey{APIKey: dto.APIKey, Pool: dto.Pool})
	}
	return keys
}
