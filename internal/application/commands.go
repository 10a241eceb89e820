package application

import "github.com/bnema/subaccount-pool/internal/domain"

type AcquireCommand struct {
	Credentials domain.Credentials
	Name        string
	Secret      string
}

type ReleaseCommand struct {
	Credentials   domain.Credentials
	SubaccountKey string
}

type AdoptCommand struct {
	Credentials   domain.Credentials
	SubaccountKey string
}

type ReconcileCommand struct {
	Credentials   domain.Credentials
	SubaccountKey string
}

type SetSignatureSecretCommand struct {
	PrimaryKey      string
	SubaccountKey   string
	SignatureSecret string
}

type CreateStandaloneCommand struct {
	Credentials domain.Credentials
	Name        string
	Secret      string
}
