package application

import (
	"context"
	"sort"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
	"github.com/sirupsen/logrus"
)

type RotationOutcome string

const (
	RotationRevoked   RotationOutcome = "revoked"
	RotationNotNeeded RotationOutcome = "no_rotation_needed"
)

const (
	opCreateSecret       = "create secret"
	opListSecrets        = "list secrets"
	opRevokeSecret       = "revoke secret"
	opRotateOldestSecret = "rotate oldest secret"
)

// SecretLifecycle manages the remote secrets of a subaccount within the
// two-live-secret limit.
type SecretLifecycle struct {
	api    ports.AccountsAPI
	logger logrus.FieldLogger
}

func NewSecretLifecycle(api ports.AccountsAPI, logger logrus.FieldLogger) *SecretLifecycle {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &SecretLifecycle{api: api, logger: logger}
}

// Create adds a secret. A 403 is reported as ReasonSecretLimit and a 400 as
// ReasonSecretRejected.
func (s *SecretLifecycle) Create(ctx context.Context, creds domain.Credentials, subaccountKey string, secret string) error {
	_, err := s.api.CreateSecret(ctx, creds, subaccountKey, secret)
	return classifyRemote(opCreateSecret, err, createSecretReasons)
}

// List returns the live secrets oldest first.
func (s *SecretLifecycle) List(ctx context.Context, creds domain.Credentials, subaccountKey string) ([]domain.Secret, error) {
	secrets, err := s.api.ListSecrets(ctx, creds, subaccountKey)
	if err != nil {
		return nil, classifyRemote(opListSecrets, err, nil)
	}

	sorted := append([]domain.Secret(nil), secrets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	return sorted, nil
}

func (s *SecretLifecycle) Revoke(ctx context.Context, creds domain.Credentials, subaccountKey string, secretID string) error {
	err := s.api.RevokeSecret(ctx, creds, subaccountKey, secretID)
	return classifyRemote(opRevokeSecret, err, nil)
}

// RotateOldest revokes the oldest secret when the subaccount is at the limit.
func (s *SecretLifecycle) RotateOldest(ctx context.Context, creds domain.Credentials, subaccountKey string) (RotationOutcome, error) {
	secrets, err := s.List(ctx, creds, subaccountKey)
	if err != nil {
		return "", err
	}
	if len(secrets) < domain.MaxLiveSecrets {
		return RotationNotNeeded, nil
	}

	oldest := secrets[0]
	if err := s.Revoke(ctx, creds, subaccountKey, oldest.ID); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"op":         opRotateOldestSecret,
		"subaccount": subaccountKey,
		"secret_id":  oldest.ID,
	}).Debug("revoked oldest secret")

	return RotationRevoked, nil
}
