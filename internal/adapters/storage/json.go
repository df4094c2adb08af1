package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sixassist/cityassist/internal/domain/providers"
)

// getJSON decodes the value at key into dst. found is false when the key
// does not exist.
func getJSON(ctx context.Context, store providers.KeyValueStore, key string, dst any) (found bool, err error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, store providers.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw)
}
