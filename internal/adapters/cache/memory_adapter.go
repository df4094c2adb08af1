package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sixassist/cityassist/internal/domain/providers"
)

// maxMemoryTTL bounds how long any entry may live in the in-memory cache.
const maxMemoryTTL = 30 * 24 * time.Hour

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter implements CacheProvider with a bounded in-process LRU.
// Used when Redis is disabled and in tests.
type MemoryAdapter struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryAdapter creates an in-memory cache holding at most size entries.
func NewMemoryAdapter(size int) *MemoryAdapter {
	if size <= 0 {
		size = 1024
	}
	return &MemoryAdapter{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxMemoryTTL),
		now: time.Now,
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := a.lru.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if !entry.expiresAt.IsZero() && !a.now().Before(entry.expiresAt) {
		a.lru.Remove(key)
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	return entry.value, nil
}

// Set stores a value; expirationSeconds <= 0 keeps it until evicted.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.lru.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.lru.Remove(key)
	return nil
}

// Exists checks if a live key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}
