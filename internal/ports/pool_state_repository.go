package ports

import (
	"context"

	"github.com/bnema/subaccount-pool/internal/domain"
)

type PoolStateRepository interface {
	GetRecord(ctx context.Context, key domain.RecordKey) (domain.Subaccount, error)
	PutRecord(ctx context.Context, record domain.Subaccount, isNewMember bool) error
	SaveReleased(ctx context.Context, record domain.Subaccount) error
	ReplaceRecord(ctx context.Context, record domain.Subaccount) error
	SetSignatureSecret(ctx context.Context, key domain.RecordKey, signatureSecret string) (domain.Subaccount, error)

	GetIndex(ctx context.Context, primaryKey string) (domain.PoolIndex, error)
	SetIndexMembership(ctx context.Context, record domain.Subaccount, used bool) error
	UpdateMembership(ctx context.Context, primaryKey string, apiKey string, used bool) error
	FindFree(ctx context.Context, primaryKey string) (domain.Subaccount, error)
}

type MainKeyRepository interface {
	List(ctx context.Context) ([]domain.MainKey, error)
	Replace(ctx context.Context, keys []domain.MainKey) error
}
