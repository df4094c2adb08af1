package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sixassist/cityassist/internal/domain/providers"
	redisclient "github.com/sixassist/cityassist/internal/infrastructure/clients/redis"
)

// RedisStore is a KeyValueStore backed by Redis. Keys never expire.
type RedisStore struct {
	client *redisclient.Client
	prefix string
}

// NewRedisStore creates a store whose keys are namespaced under "kv:".
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "kv:"}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Client().Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Client().Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Client().Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
