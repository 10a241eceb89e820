package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/subaccount-pool/internal/adapters/kv/memory"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceMainKeysNormalizesAndDedupes(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockMainKeyRepository(t)
	want := []domain.MainKey{{APIKey: "P1", Pool: false}, {APIKey: "P2", Pool: true}}
	repo.EXPECT().Replace(mockAnyContext(), want).Return(nil)

	got, err := NewMainKeyService(repo).Replace(context.Background(), []domain.MainKey{
		{APIKey: " P1 ", Pool: true},
		{APIKey: "P2", Pool: true},
		{APIKey: "P1", Pool: false},
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReplaceMainKeysRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	service := NewMainKeyService(mocks.NewMockMainKeyRepository(t))

	_, err := service.Replace(context.Background(), nil)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = service.Replace(context.Background(), []domain.MainKey{{APIKey: "  "}})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestListMainKeysNeverSetIsNotFound(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockMainKeyRepository(t)
	repo.EXPECT().List(mockAnyContext()).Return(nil, fmt.Errorf("read registry: %w", domain.ErrMainKeysNotFound))

	_, err := NewMainKeyService(repo).List(context.Background())
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrMainKeysNotFound)
}

func TestRequirePooled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		keys   []domain.MainKey
		err    error
		apiKey string
		kind   domain.Kind
	}{
		{name: "pooled", keys: []domain.MainKey{{APIKey: "P1", Pool: true}}, apiKey: "P1"},
		{name: "not pooled", keys: []domain.MainKey{{APIKey: "P1"}}, apiKey: "P1", kind: domain.KindForbidden},
		{name: "unknown", keys: []domain.MainKey{{APIKey: "P1", Pool: true}}, apiKey: "P2", kind: domain.KindNotFound},
		{name: "registry unset", err: domain.ErrMainKeysNotFound, apiKey: "P1", kind: domain.KindForbidden},
		{name: "registry broken", err: errors.New("disk"), apiKey: "P1", kind: domain.KindInternal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := mocks.NewMockMainKeyRepository(t)
			repo.EXPECT().List(mockAnyContext()).Return(tc.keys, tc.err)

			err := NewMainKeyService(repo).RequirePooled(context.Background(), tc.apiKey)
			if tc.kind == "" {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tc.kind, domain.KindOf(err))
		})
	}
}

func TestCredentialServiceRoundTrip(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	service := NewCredentialService(store)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, primaryCreds))
	raw, err := store.Get(ctx, "subpool/primary/P1/secret")
	require.NoError(t, err)
	assert.Equal(t, "secretP1", raw)

	got, err := service.Load(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, primaryCreds, got)

	require.NoError(t, service.Remove(ctx, "P1"))
	require.NoError(t, service.Remove(ctx, "P1"))

	_, err = service.Load(ctx, "P1")
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestCredentialServiceRejectsIncompleteCredentials(t *testing.T) {
	t.Parallel()

	service := NewCredentialService(mocks.NewMockSecretStore(t))

	err := service.Set(context.Background(), domain.Credentials{APIKey: "P1"})
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	_, err = service.Load(context.Background(), " ")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
