package providers

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for an unknown key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is durable, non-expiring storage for small records such
// as users, sessions, saved lists and community updates.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
