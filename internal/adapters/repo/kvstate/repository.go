package kvstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
)

// PoolStateRepository keeps subaccount records under "<primary>:<sub>" and
// the membership index of each primary account under "<primary>".
type PoolStateRepository struct {
	store ports.KVStore

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

var _ ports.PoolStateRepository = (*PoolStateRepository)(nil)

func NewPoolStateRepository(store ports.KVStore) *PoolStateRepository {
	return &PoolStateRepository{store: store, locks: map[string]*sync.Mutex{}}
}

func (r *PoolStateRepository) GetRecord(ctx context.Context, key domain.RecordKey) (domain.Subaccount, error) {
	raw, err := r.store.Get(ctx, key.String())
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.Subaccount{}, fmt.Errorf("record %s: %w", key, domain.ErrRecordNotFound)
		}
		return domain.Subaccount{}, fmt.Errorf("load record %s: %w", key, err)
	}

	var schema recordSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return domain.Subaccount{}, fmt.Errorf("decode record %s: %w", key, err)
	}

	return fromRecordSchema(schema), nil
}

// PutRecord inserts a new member or updates a known one. An insert over an
// existing record or an update of a missing one returns ErrStateDrift and
// writes nothing.
func (r *PoolStateRepository) PutRecord(ctx context.Context, record domain.Subaccount, isNewMember bool) error {
	existing, exists, err := r.lookup(ctx, record.Key())
	if err != nil {
		return err
	}

	switch {
	case isNewMember && !exists:
		return r.writeRecord(ctx, record)
	case !isNewMember && exists:
		if existing.SignatureSecret != "" {
			record.SignatureSecret = existing.SignatureSecret
		}
		record.Suspended = false
		return r.writeRecord(ctx, record)
	default:
		return fmt.Errorf("put record %s (new=%t, exists=%t): %w", record.Key(), isNewMember, exists, domain.ErrStateDrift)
	}
}

// SaveReleased stores the return-to-pool state of a known record.
func (r *PoolStateRepository) SaveReleased(ctx context.Context, record domain.Subaccount) error {
	existing, exists, err := r.lookup(ctx, record.Key())
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("release record %s: %w", record.Key(), domain.ErrStateDrift)
	}

	record = record.CarryForward(existing)
	if existing.SignatureSecret != "" {
		record.SignatureSecret = existing.SignatureSecret
	}
	record.Suspended = true
	record.Used = false

	return r.writeRecord(ctx, record)
}

// ReplaceRecord overwrites a record from remote state, keeping the local
// credentials the remote never returns.
func (r *PoolStateRepository) ReplaceRecord(ctx context.Context, record domain.Subaccount) error {
	existing, exists, err := r.lookup(ctx, record.Key())
	if err != nil {
		return err
	}
	if exists {
		record = record.CarryForward(existing)
	}

	return r.writeRecord(ctx, record)
}

func (r *PoolStateRepository) SetSignatureSecret(ctx context.Context, key domain.RecordKey, signatureSecret string) (domain.Subaccount, error) {
	record, err := r.GetRecord(ctx, key)
	if err != nil {
		return domain.Subaccount{}, err
	}

	record.SignatureSecret = signatureSecret
	if err := r.writeRecord(ctx, record); err != nil {
		return domain.Subaccount{}, err
	}

	return record, nil
}

// GetIndex returns an empty index, never nil, for an unknown primary key.
func (r *PoolStateRepository) GetIndex(ctx context.Context, primaryKey string) (domain.PoolIndex, error) {
	return r.readIndex(ctx, primaryKey)
}

// SetIndexMembership registers a member once. A known member is left as is.
func (r *PoolStateRepository) SetIndexMembership(ctx context.Context, record domain.Subaccount, used bool) error {
	mu := r.lockFor(record.PrimaryAccountAPIKey)
	mu.Lock()
	defer mu.Unlock()

	index, err := r.readIndex(ctx, record.PrimaryAccountAPIKey)
	if err != nil {
		return err
	}
	if index.Contains(record.APIKey) {
		return nil
	}

	index = append(index, domain.IndexEntry{APIKey: record.APIKey, Used: used})
	return r.writeIndex(ctx, record.PrimaryAccountAPIKey, index)
}

func (r *PoolStateRepository) UpdateMembership(ctx context.Context, primaryKey string, apiKey string, used bool) error {
	mu := r.lockFor(primaryKey)
	mu.Lock()
	defer mu.Unlock()

	index, err := r.readIndex(ctx, primaryKey)
	if err != nil {
		return err
	}

	return r.writeIndex(ctx, primaryKey, index.WithMembership(apiKey, used))
}

// FindFree leases the first free member. The index flip happens under a
// per-primary lock before the record is loaded, so two callers in this
// process never receive the same entry.
func (r *PoolStateRepository) FindFree(ctx context.Context, primaryKey string) (domain.Subaccount, error) {
	mu := r.lockFor(primaryKey)
	mu.Lock()
	defer mu.Unlock()

	index, err := r.readIndex(ctx, primaryKey)
	if err != nil {
		return domain.Subaccount{}, err
	}

	pos, ok := index.FirstFree()
	if !ok {
		return domain.Subaccount{}, domain.ErrNoneFree
	}

	apiKey := index[pos].APIKey
	index[pos].Used = true
	if err := r.writeIndex(ctx, primaryKey, index); err != nil {
		return domain.Subaccount{}, err
	}

	record, err := r.GetRecord(ctx, domain.RecordKey{PrimaryKey: primaryKey, APIKey: apiKey})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Subaccount{}, &domain.MissingRecordError{PrimaryKey: primaryKey, APIKey: apiKey}
		}
		return domain.Subaccount{}, &domain.LeasedRecordError{PrimaryKey: primaryKey, APIKey: apiKey, Err: err}
	}
	record.Used = true

	return record, nil
}

func (r *PoolStateRepository) lookup(ctx context.Context, key domain.RecordKey) (domain.Subaccount, bool, error) {
	record, err := r.GetRecord(ctx, key)
	if err == nil {
		return record, true, nil
	}
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.Subaccount{}, false, nil
	}

	return domain.Subaccount{}, false, err
}

func (r *PoolStateRepository) writeRecord(ctx context.Context, record domain.Subaccount) error {
	data, err := json.Marshal(toRecordSchema(record))
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.Key(), err)
	}

	if err := r.store.Put(ctx, record.Key().String(), string(data)); err != nil {
		return fmt.Errorf("store record %s: %w", record.Key(), err)
	}

	return nil
}

func (r *PoolStateRepository) readIndex(ctx context.Context, primaryKey string) (domain.PoolIndex, error) {
	raw, err := r.store.Get(ctx, primaryKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.PoolIndex{}, nil
		}
		return nil, fmt.Errorf("load index %s: %w", primaryKey, err)
	}

	var entries []indexEntrySchema
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", primaryKey, err)
	}

	return fromIndexSchema(entries).Normalize(), nil
}

func (r *PoolStateRepository) writeIndex(ctx context.Context, primaryKey string, index domain.PoolIndex) error {
	data, err := json.Marshal(toIndexSchema(index))
	if err != nil {
		return fmt.Errorf("encode index %s: %w", primaryKey, err)
	}

	if err := r.store.Put(ctx, primaryKey, string(data)); err != nil {
		return fmt.Errorf("store index %s: %w", primaryKey, err)
	}

	return nil
}

func (r *PoolStateRepository) lockFor(primaryKey string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	if mu, ok := r.locks[primaryKey]; ok {
		return mu
	}

	mu := &sync.Mutex{}
	r.locks[primaryKey] = mu
	return mu
}
