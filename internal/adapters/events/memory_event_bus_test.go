package events

import (
	"context"
	"testing"
	"time"

	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForUpdate(t *testing.T, ch <-chan *entities.CommunityUpdate) *entities.CommunityUpdate {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed")
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return nil
	}
}

func TestMemoryEventBus_FanOut(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1, err := bus.Subscribe(ctx, providers.EventChannelCommunityUpdates)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx, providers.EventChannelCommunityUpdates)
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, providers.GetEstablishmentChannel("osm-1"))
	require.NoError(t, err)

	update := &entities.CommunityUpdate{ID: "cu-1", EstablishmentID: "osm-2"}
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelCommunityUpdates, update))

	assert.Equal(t, "cu-1", waitForUpdate(t, sub1).ID)
	assert.Equal(t, "cu-1", waitForUpdate(t, sub2).ID)

	select {
	case <-other:
		t.Fatal("unrelated channel received an update")
	default:
	}
}

func TestMemoryEventBus_ContextCancelClosesChannel(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, "c")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := NewMemoryEventBus()
	sub, err := bus.Subscribe(context.Background(), "c")
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	_, ok := <-sub
	assert.False(t, ok)

	assert.ErrorIs(t, bus.Publish(context.Background(), "c", &entities.CommunityUpdate{}), ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), "c")
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.NoError(t, bus.Close())
}
