//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sixassist/cityassist/internal/adapters/cache"
	"github.com/sixassist/cityassist/internal/adapters/events"
	"github.com/sixassist/cityassist/internal/adapters/storage"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	redisClient := newTestRedisClient(t)

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelCommunityUpdates
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	update := &entities.CommunityUpdate{
		ID:              "update_" + uuid.NewString(),
		EstablishmentID: "shelter-1",
		Type:            entities.UpdateTypeBeds,
		Content:         "12 beds open tonight",
		CreatedAt:       time.Now().UTC(),
		CreatedBy:       "user_it",
	}
	require.NoError(t, eventBus.Publish(context.Background(), channel, update))

	received1 := waitForUpdate(t, sub1)
	received2 := waitForUpdate(t, sub2)

	assert.Equal(t, update.ID, received1.ID)
	assert.Equal(t, update.ID, received2.ID)
	assert.Equal(t, update.Content, received1.Content)
}

func TestRedisStoreUsersAndSessionsIntegration(t *testing.T) {
	redisClient := newTestRedisClient(t)
	store := storage.NewRedisStore(redisClient)
	ctx := context.Background()

	users := services.NewUserService(storage.NewUserStore(store), store)
	email := "it-" + uuid.NewString()[:8] + "@example.com"

	session, err := users.SignIn(ctx, email)
	require.NoError(t, err)
	_, err = users.Save(ctx, session.Token, "food-1")
	require.NoError(t, err)

	saved, err := users.SavedList(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"food-1"}, saved)

	require.NoError(t, users.SignOut(ctx, session.Token))
	_, err = users.Current(ctx, session.Token)
	assert.Error(t, err)

	again, err := users.SignIn(ctx, email)
	require.NoError(t, err)
	assert.NotEqual(t, session.User.ID, again.User.ID)
	assert.Empty(t, again.User.SavedEstablishments)
	require.NoError(t, users.SignOut(ctx, again.Token))
}

func TestRedisCacheAdapterIntegration(t *testing.T) {
	redisClient := newTestRedisClient(t)
	adapter := cache.NewRedisAdapter(redisClient)
	ctx := context.Background()
	key := "it:" + uuid.NewString()

	_, err := adapter.Get(ctx, key)
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, key, []byte("value"), 30))
	got, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", string(got))

	require.NoError(t, adapter.Delete(ctx, key))
	exists, err := adapter.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
