package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
)

const opLoadCredentials = "load credentials"

// CredentialService keeps primary account secrets for CLI use.
type CredentialService struct {
	store ports.SecretStore
}

func NewCredentialService(store ports.SecretStore) *CredentialService {
	return &CredentialService{store: store}
}

func CredentialSecretKey(primaryKey string) string {
	return fmt.Sprintf("subpool/primary/%s/secret", primaryKey)
}

func (s *CredentialService) Set(ctx context.Context, creds domain.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	if err := s.store.Put(ctx, CredentialSecretKey(creds.APIKey), creds.Secret); err != nil {
		return fmt.Errorf("store primary secret: %w", err)
	}

	return nil
}

func (s *CredentialService) Load(ctx context.Context, primaryKey string) (domain.Credentials, error) {
	primaryKey = strings.TrimSpace(primaryKey)
	if primaryKey == "" {
		return domain.Credentials{}, domain.NewError(domain.KindValidation, opLoadCredentials, "primary api key is required")
	}

	secret, err := s.store.Get(ctx, CredentialSecretKey(primaryKey))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.Credentials{}, &domain.Error{
				Kind:   domain.KindUnauthorized,
				Op:     opLoadCredentials,
				Detail: fmt.Sprintf("no secret stored for %s; run `subpool creds set`", primaryKey),
				Err:    err,
			}
		}
		return domain.Credentials{}, fmt.Errorf("load primary secret: %w", err)
	}

	return domain.Credentials{APIKey: primaryKey, Secret: strings.TrimSpace(secret)}, nil
}

func (s *CredentialService) Remove(ctx context.Context, primaryKey string) error {
	if err := s.store.Delete(ctx, CredentialSecretKey(primaryKey)); err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return fmt.Errorf("delete primary secret: %w", err)
	}

	return nil
}
