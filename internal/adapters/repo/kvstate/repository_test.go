package kvstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/subaccount-pool/internal/adapters/kv/memory"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*PoolStateRepository, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	return NewPoolStateRepository(store), store
}

func subaccount(apiKey string) domain.Subaccount {
	return domain.Subaccount{
		APIKey:               apiKey,
		PrimaryAccountAPIKey: "P1",
		Secret:               "Abcdef12",
		SignatureSecret:      "sig-" + apiKey,
		Name:                 "Bot-1",
		Used:                 true,
		CreatedAt:            time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPutRecordInsertsNewMember(t *testing.T) {
	t.Parallel()

	repo, store := newTestRepository(t)
	ctx := context.Background()
	record := subaccount("S1")

	require.NoError(t, repo.PutRecord(ctx, record, true))

	got, err := repo.GetRecord(ctx, record.Key())
	require.NoError(t, err)
	assert.Equal(t, record, got)

	raw, err := store.Get(ctx, "P1:S1")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"api_key":"S1","primary_account_api_key":"P1","secret":"Abcdef12","signature_secret":"sig-S1",
		"name":"Bot-1","balance":0,"credit_limit":0,"suspended":false,"created_at":"2026-03-01T09:00:00Z",
		"use_primary_account_balance":false,"used":true}`, raw)
}

func TestPutRecordUpdatePreservesSignatureSecretAndUnsuspends(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.PutRecord(ctx, subaccount("S1"), true))

	update := domain.Subaccount{
		APIKey:               "S1",
		PrimaryAccountAPIKey: "P1",
		Secret:               "Ghijkl34",
		Name:                 "Bot-2",
		Suspended:            true,
		Used:                 true,
	}
	require.NoError(t, repo.PutRecord(ctx, update, false))

	got, err := repo.GetRecord(ctx, update.Key())
	require.NoError(t, err)
	assert.Equal(t, "sig-S1", got.SignatureSecret)
	assert.Equal(t, "Ghijkl34", got.Secret)
	assert.Equal(t, "Bot-2", got.Name)
	assert.False(t, got.Suspended)
}

func TestPutRecordReportsDriftWithoutOverwriting(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()

	err := repo.PutRecord(ctx, subaccount("S1"), false)
	require.ErrorIs(t, err, domain.ErrStateDrift)
	_, err = repo.GetRecord(ctx, subaccount("S1").Key())
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	require.NoError(t, repo.PutRecord(ctx, subaccount("S1"), true))
	replacement := subaccount("S1")
	replacement.Name = "Intruder"
	err = repo.PutRecord(ctx, replacement, true)
	require.ErrorIs(t, err, domain.ErrStateDrift)

	got, err := repo.GetRecord(ctx, replacement.Key())
	require.NoError(t, err)
	assert.Equal(t, "Bot-1", got.Name)
}

func TestSaveReleasedSuspendsAndCarriesCredentials(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.PutRecord(ctx, subaccount("S1"), true))

	err := repo.SaveReleased(ctx, domain.Subaccount{APIKey: "S1", PrimaryAccountAPIKey: "P1", Name: "Bot-1"})
	require.NoError(t, err)

	got, err := repo.GetRecord(ctx, domain.RecordKey{PrimaryKey: "P1", APIKey: "S1"})
	require.NoError(t, err)
	assert.True(t, got.Suspended)
	assert.False(t, got.Used)
	assert.Equal(t, "sig-S1", got.SignatureSecret)
	assert.Equal(t, "Abcdef12", got.Secret)

	err = repo.SaveReleased(ctx, domain.Subaccount{APIKey: "S9", PrimaryAccountAPIKey: "P1"})
	require.ErrorIs(t, err, domain.ErrStateDrift)
}

func TestReplaceRecordKeepsLocalCredentials(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.PutRecord(ctx, subaccount("S1"), true))

	require.NoError(t, repo.ReplaceRecord(ctx, domain.Subaccount{APIKey: "S1", PrimaryAccountAPIKey: "P1", Name: "Remote", Suspended: true}))

	got, err := repo.GetRecord(ctx, domain.RecordKey{PrimaryKey: "P1", APIKey: "S1"})
	require.NoError(t, err)
	assert.Equal(t, "Remote", got.Name)
	assert.True(t, got.Suspended)
	assert.Equal(t, "sig-S1", got.SignatureSecret)
	assert.Equal(t, "Abcdef12", got.Secret)
}

func TestSetSignatureSecret(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	key := domain.RecordKey{PrimaryKey: "P1", APIKey: "S1"}

	_, err := repo.SetSignatureSecret(ctx, key, "new-sig")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	require.NoError(t, repo.PutRecord(ctx, subaccount("S1"), true))
	got, err := repo.SetSignatureSecret(ctx, key, "new-sig")
	require.NoError(t, err)
	assert.Equal(t, "new-sig", got.SignatureSecret)
}

func TestGetIndexReturnsEmptyListForUnknownPrimary(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	index, err := repo.GetIndex(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotNil(t, index)
	assert.Empty(t, index)
}

func TestSetIndexMembershipInsertsOnce(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S1"), true))
	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S1"), false))
	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S2"), false))

	index, err := repo.GetIndex(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, domain.PoolIndex{{APIKey: "S1", Used: true}, {APIKey: "S2", Used: false}}, index)
}

func TestUpdateMembershipReinsertsEntry(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S1"), true))
	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S2"), true))

	require.NoError(t, repo.UpdateMembership(ctx, "P1", "S1", false))

	index, err := repo.GetIndex(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, domain.PoolIndex{{APIKey: "S2", Used: true}, {APIKey: "S1", Used: false}}, index)
}

func TestFindFreeFlipsFirstFreeEntry(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	for _, key := range []string{"S1", "S2", "S3"} {
		record := subaccount(key)
		require.NoError(t, repo.PutRecord(ctx, record, true))
		require.NoError(t, repo.SetIndexMembership(ctx, record, key == "S1"))
	}

	got, err := repo.FindFree(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "S2", got.APIKey)
	assert.True(t, got.Used)

	index, err := repo.GetIndex(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, domain.PoolIndex{{APIKey: "S1", Used: true}, {APIKey: "S2", Used: true}, {APIKey: "S3"}}, index)
}

func TestFindFreeReportsNoneFree(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.FindFree(ctx, "P1")
	require.ErrorIs(t, err, domain.ErrNoneFree)

	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S1"), true))
	_, err = repo.FindFree(ctx, "P1")
	require.ErrorIs(t, err, domain.ErrNoneFree)
}

func TestFindFreeReportsMissingRecord(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S1"), false))

	_, err := repo.FindFree(ctx, "P1")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	var missing *domain.MissingRecordError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "S1", missing.APIKey)
}

func TestFindFreeReportsUnreadableRecordWithLeasedKey(t *testing.T) {
	t.Parallel()

	repo, store := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.SetIndexMembership(ctx, subaccount("S7"), false))
	require.NoError(t, store.Put(ctx, "P1:S7", "{not json"))

	_, err := repo.FindFree(ctx, "P1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRecordNotFound)

	var missing *domain.MissingRecordError
	assert.False(t, errors.As(err, &missing))

	var unreadable *domain.LeasedRecordError
	require.True(t, errors.As(err, &unreadable))
	assert.Equal(t, "P1", unreadable.PrimaryKey)
	assert.Equal(t, "S7", unreadable.APIKey)
	require.Error(t, unreadable.Err)
}

func TestFindFreeNeverHandsOutTheSameEntryTwice(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	for _, key := range []string{"S1", "S2", "S3", "S4"} {
		record := subaccount(key)
		require.NoError(t, repo.PutRecord(ctx, record, true))
		require.NoError(t, repo.SetIndexMembership(ctx, record, false))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]int{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := repo.FindFree(ctx, "P1")
			if err != nil {
				return
			}
			mu.Lock()
			seen[record.APIKey]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 4)
	for key, count := range seen {
		assert.Equal(t, 1, count, key)
	}
}

func TestFindFreeSurfacesIndexWriteFailure(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKVStore(t)
	repo := NewPoolStateRepository(store)
	writeErr := errors.New("disk full")

	store.EXPECT().Get(mock.Anything, "P1").Return(`[{"api_key":"S1","used":false}]`, nil).Once()
	store.EXPECT().Put(mock.Anything, "P1", `[{"api_key":"S1","used":true}]`).Return(writeErr).Once()

	_, err := repo.FindFree(context.Background(), "P1")
	require.ErrorIs(t, err, writeErr)
}

func TestGetRecordRejectsCorruptJSON(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKVStore(t)
	repo := NewPoolStateRepository(store)

	store.EXPECT().Get(mock.Anything, "P1:S1").Return("{not json", nil).Once()

	_, err := repo.GetRecord(context.Background(), domain.RecordKey{PrimaryKey: "P1", APIKey: "S1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode record P1:S1")
}
