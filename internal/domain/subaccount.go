package domain

import (
	"strings"
	"time"
)

// Subaccount is the local record of one pooled subaccount. It is keyed by
// (PrimaryAccountAPIKey, APIKey).
type Subaccount struct {
	APIKey                   string
	PrimaryAccountAPIKey     string
	Secret                   string
	SignatureSecret          string
	Name                     string
	Suspended                bool
	Used                     bool
	Balance                  float64
	CreditLimit              float64
	UsePrimaryAccountBalance bool
	CreatedAt                time.Time
}

// Key returns the composite identity of the record.
func (s Subaccount) Key() RecordKey {
	return RecordKey{PrimaryKey: s.PrimaryAccountAPIKey, APIKey: s.APIKey}
}

// Free reports the return-to-pool state.
func (s Subaccount) Free() bool {
	return !s.Used
}

// CarryForward copies the write-once and locally-held credentials of prev
// onto s when the remote representation did not include them.
func (s Subaccount) CarryForward(prev Subaccount) Subaccount {
	if s.SignatureSecret == "" {
		s.SignatureSecret = prev.SignatureSecret
	}
	if s.Secret == "" {
		s.Secret = prev.Secret
	}
	if s.PrimaryAccountAPIKey == "" {
		s.PrimaryAccountAPIKey = prev.PrimaryAccountAPIKey
	}

	return s
}

type RecordKey struct {
	PrimaryKey string
	APIKey     string
}

func (k RecordKey) String() string {
	return k.PrimaryKey + ":" + k.APIKey
}

// Secret is a remote secret. A subaccount holds at most MaxLiveSecrets.
type Secret struct {
	ID        string
	CreatedAt time.Time
}

const MaxLiveSecrets = 2

// Credentials is the primary account pair used to authenticate remote calls.
type Credentials struct {
	APIKey string
	Secret string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return NewError(KindUnauthorized, "credentials", "api key is required")
	}
	if c.Secret == "" {
		return NewError(KindUnauthorized, "credentials", "api secret is required")
	}

	return nil
}

// MainKey registers a primary account with the service.
type MainKey struct {
	APIKey string
	Pool   bool
}
