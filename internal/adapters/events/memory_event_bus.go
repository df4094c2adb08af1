package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
)

// ErrBusClosed is returned when subscribing to a closed bus.
var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus is a single-process EventBus used when Redis is disabled.
type MemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.CommunityUpdate]struct{}
	closed      bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{
		subscribers: make(map[string]map[chan *entities.CommunityUpdate]struct{}),
	}
}

// Publish delivers the update to every current subscriber without blocking
func (b *MemoryEventBus) Publish(_ context.Context, channel string, update *entities.CommunityUpdate) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- update:
		default:
			log.Warn().Str("channel", channel).Str("update_id", update.ID).Msg("subscriber full, skipping update")
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CommunityUpdate, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.CommunityUpdate]struct{})
	}
	updates := make(chan *entities.CommunityUpdate, subscriberBuffer)
	b.subscribers[channel][updates] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(channel, updates)
	}()

	return updates, nil
}

func (b *MemoryEventBus) remove(channel string, updates chan *entities.CommunityUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[updates]; !ok {
		return
	}
	delete(subscribers, updates)
	close(updates)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes every subscription
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	return nil
}
