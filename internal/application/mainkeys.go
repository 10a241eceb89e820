package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
)

const (
	opReplaceMainKeys = "replace main keys"
	opListMainKeys    = "list main keys"
	opRequirePooled   = "require pooled"
)

// MainKeyService guards which primary accounts may use the pool.
type MainKeyService struct {
	repo ports.MainKeyRepository
}

func NewMainKeyService(repo ports.MainKeyRepository) *MainKeyService {
	return &MainKeyService{repo: repo}
}

// Replace swaps the whole registry. Later duplicates of a key win.
func (s *MainKeyService) Replace(ctx context.Context, keys []domain.MainKey) ([]domain.MainKey, error) {
	if len(keys) == 0 {
		return nil, domain.NewError(domain.KindValidation, opReplaceMainKeys, "at least one main key is required")
	}

	normalized := make([]domain.MainKey, 0, len(keys))
	positions := make(map[string]int, len(keys))
	for _, key := range keys {
		apiKey := strings.TrimSpace(key.APIKey)
		if apiKey == "" {
			return nil, domain.NewError(domain.KindValidation, opReplaceMainKeys, "main key api key is required")
		}
		if i, ok := positions[apiKey]; ok {
			normalized[i].Pool = key.Pool
			continue
		}
		positions[apiKey] = len(normalized)
		normalized = append(normalized, domain.MainKey{APIKey: apiKey, Pool: key.Pool})
	}

	if err := s.repo.Replace(ctx, normalized); err != nil {
		return nil, domain.WrapError(domain.KindInternal, opReplaceMainKeys, err)
	}

	return normalized, nil
}

func (s *MainKeyService) List(ctx context.Context) ([]domain.MainKey, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrMainKeysNotFound) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Op: opListMainKeys, Detail: "main keys have not been set", Err: err}
		}
		return nil, domain.WrapError(domain.KindInternal, opListMainKeys, err)
	}

	return keys, nil
}

// RequirePooled fails unless apiKey is registered with pool access.
func (s *MainKeyService) RequirePooled(ctx context.Context, apiKey string) error {
	keys, err := s.List(ctx)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return &domain.Error{Kind: domain.KindForbidden, Op: opRequirePooled, Detail: "no main keys are registered", Err: err}
		}
		return err
	}

	for _, key := range keys {
		if key.APIKey != apiKey {
			continue
		}
		if !key.Pool {
			return domain.NewError(domain.KindForbidden, opRequirePooled, fmt.Sprintf("main key %s is not enabled for pooling", apiKey))
		}
		return nil
	}

	return domain.NewError(domain.KindNotFound, opRequirePooled, fmt.Sprintf("main key %s is not registered", apiKey))
}
