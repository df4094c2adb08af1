//go:build integration

package integration

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/postgres"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/redis"
	"github.com/sixassist/cityassist/pkg/config"
	"github.com/stretchr/testify/require"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
		Enabled:  true,
	}

	client, err := redis.NewClient(context.Background(), cfg)
	require.NoError(t, err, "Failed to create redis client")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "cityassist_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(context.Background(), cfg)
	require.NoError(t, err, "Failed to create postgres client")
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.EnsureSchema(context.Background()))
	return client
}

func waitForUpdate(t *testing.T, ch <-chan *entities.CommunityUpdate) *entities.CommunityUpdate {
	t.Helper()
	select {
	case update, ok := <-ch:
		require.True(t, ok, "subscription closed before an update arrived")
		return update
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for community update")
		return nil
	}
}
