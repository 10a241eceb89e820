package ports

import "context"

// KVStore is the local durable store. Get returns domain.ErrKeyNotFound for
// a missing key. Calls are independent; there is no multi-key transaction.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
