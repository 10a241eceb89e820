// Package chain layers two secret stores: writes and reads go to the
// primary backend and fall back to the second one when it fails.
package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/subaccount-pool/internal/adapters/kv/file"
	passstore "github.com/bnema/subaccount-pool/internal/adapters/secrets/pass"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
	"github.com/sirupsen/logrus"
)

type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
	logger   logrus.FieldLogger
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore, logger logrus.FieldLogger) *Store {
	store, err := NewStoreChecked(primary, fallback, logger)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.SecretStore, fallback ports.SecretStore, logger logrus.FieldLogger) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Store{primary: primary, fallback: fallback, logger: logger}, nil
}

func NewPassFirstWithFileFallback(pass passstore.Options, fileRoot string, logger logrus.FieldLogger) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(pass), filestore.NewStore(fileRoot), logger)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}
	s.noteFallback("put", key, err)

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}
	if !errors.Is(err, domain.ErrKeyNotFound) {
		s.noteFallback("get", key, err)
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}
	if missing(err) && errors.Is(fallbackErr, domain.ErrKeyNotFound) {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrKeyNotFound)
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete removes the key from both backends so an earlier fallback write
// does not outlive it. A key missing from both reports ErrKeyNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	switch {
	case err == nil || fallbackErr == nil:
		if err != nil && !missing(err) {
			s.noteFallback("delete", key, err)
		}
		return nil
	case missing(err) && errors.Is(fallbackErr, domain.ErrKeyNotFound):
		return fmt.Errorf("secret %q: %w", key, domain.ErrKeyNotFound)
	default:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
}

func (s *Store) noteFallback(op string, key string, err error) {
	entry := s.logger.WithFields(logrus.Fields{"op": op, "key": key})
	if errors.Is(err, passstore.ErrUnavailable) {
		entry.Debug("pass unavailable, using file secret store")
		return
	}
	entry.WithError(err).Warn("primary secret store failed, using fallback")
}

// missing reports whether the primary backend has no value for the key,
// counting an unavailable pass command as empty.
func missing(err error) bool {
	return errors.Is(err, domain.ErrKeyNotFound) || errors.Is(err, passstore.ErrUnavailable)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
