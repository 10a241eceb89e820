package application

import (
	"context"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
)

const (
	opCreateSubaccount   = "create subaccount"
	opRetrieveSubaccount = "retrieve subaccount"
	opModifySubaccount   = "modify subaccount"
)

type SubaccountLifecycle struct {
	api ports.AccountsAPI
}

func NewSubaccountLifecycle(api ports.AccountsAPI) *SubaccountLifecycle {
	return &SubaccountLifecycle{api: api}
}

// CreateWithSignature is the only call that yields a signature secret.
func (s *SubaccountLifecycle) CreateWithSignature(ctx context.Context, creds domain.Credentials, name string, secret string) (domain.Subaccount, error) {
	return s.create(ctx, creds, ports.CreateSubaccountRequest{Name: name, Secret: secret, WithSignature: true})
}

func (s *SubaccountLifecycle) CreatePlain(ctx context.Context, creds domain.Credentials, name string, secret string) (domain.Subaccount, error) {
	return s.create(ctx, creds, ports.CreateSubaccountRequest{Name: name, Secret: secret})
}

func (s *SubaccountLifecycle) Retrieve(ctx context.Context, creds domain.Credentials, subaccountKey string) (domain.Subaccount, error) {
	subaccount, err := s.api.GetSubaccount(ctx, creds, subaccountKey)
	if err != nil {
		return domain.Subaccount{}, classifyRemote(opRetrieveSubaccount, err, nil)
	}

	return ownedBy(subaccount, creds), nil
}

// Modify sets name and suspended. A concurrent change is reported as
// ReasonStaleVersion.
func (s *SubaccountLifecycle) Modify(ctx context.Context, creds domain.Credentials, subaccountKey string, name string, suspended bool) (domain.Subaccount, error) {
	subaccount, err := s.api.ModifySubaccount(ctx, creds, subaccountKey, ports.ModifySubaccountRequest{Name: name, Suspended: suspended})
	if err != nil {
		return domain.Subaccount{}, classifyRemote(opModifySubaccount, err, modifySubaccountReasons)
	}

	return ownedBy(subaccount, creds), nil
}

func (s *SubaccountLifecycle) create(ctx context.Context, creds domain.Credentials, req ports.CreateSubaccountRequest) (domain.Subaccount, error) {
	subaccount, err := s.api.CreateSubaccount(ctx, creds, req)
	if err != nil {
		return domain.Subaccount{}, classifyRemote(opCreateSubaccount, err, nil)
	}

	subaccount = ownedBy(subaccount, creds)
	if subaccount.Secret == "" {
		subaccount.Secret = req.Secret
	}

	return subaccount, nil
}

func ownedBy(subaccount domain.Subaccount, creds domain.Credentials) domain.Subaccount {
	if subaccount.PrimaryAccountAPIKey == "" {
		subaccount.PrimaryAccountAPIKey = creds.APIKey
	}
	return subaccount
}
