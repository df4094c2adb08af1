package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	redisclient "github.com/sixassist/cityassist/internal/infrastructure/clients/redis"
)

// subscriberBuffer is the per-subscriber queue; updates beyond it are dropped.
const subscriberBuffer = 100

// redisHub is one Redis subscription and the local subscribers it feeds.
type redisHub struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.CommunityUpdate]struct{}
}

// RedisEventBus fans Redis Pub/Sub messages out to in-process
// subscribers, so every API instance sees updates posted on any other.
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.RWMutex
	hubs   map[string]*redisHub
	closed bool
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return &RedisEventBus{
		client: client,
		hubs:   make(map[string]*redisHub),
	}
}

// Publish sends the update to every instance subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, update *entities.CommunityUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish update: %w", err)
	}

	log.Debug().Str("channel", channel).Str("update_id", update.ID).Msg("published community update")
	return nil
}

// Subscribe registers a subscriber until ctx is done. The first
// subscriber of a channel opens the Redis subscription.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CommunityUpdate, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}

	hub, ok := b.hubs[channel]
	if !ok {
		pubsub := b.client.Client().Subscribe(context.Background(), channel)
		// Receive blocks until Redis confirms, so a publish right after
		// Subscribe returns is not lost.
		if _, err := pubsub.Receive(ctx); err != nil {
			b.mu.Unlock()
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		hub = &redisHub{
			pubsub:      pubsub,
			subscribers: make(map[chan *entities.CommunityUpdate]struct{}),
		}
		b.hubs[channel] = hub
		go b.receive(channel, hub)
	}

	updates := make(chan *entities.CommunityUpdate, subscriberBuffer)
	hub.subscribers[updates] = struct{}{}
	count := len(hub.subscribers)
	b.mu.Unlock()

	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("subscribed")

	go func() {
		<-ctx.Done()
		b.remove(channel, hub, updates)
	}()

	return updates, nil
}

func (b *RedisEventBus) receive(channel string, hub *redisHub) {
	defer b.shutdownHub(channel, hub)

	for msg := range hub.pubsub.Channel() {
		var update entities.CommunityUpdate
		if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed update")
			continue
		}

		b.mu.RLock()
		for subscriber := range hub.subscribers {
			select {
			case subscriber <- &update:
			default:
				log.Warn().Str("channel", channel).Str("update_id", update.ID).Msg("subscriber full, skipping update")
			}
		}
		b.mu.RUnlock()
	}
}

func (b *RedisEventBus) remove(channel string, hub *redisHub, updates chan *entities.CommunityUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := hub.subscribers[updates]; !ok {
		return
	}
	delete(hub.subscribers, updates)
	close(updates)

	if len(hub.subscribers) == 0 && b.hubs[channel] == hub {
		delete(b.hubs, channel)
		_ = hub.pubsub.Close()
		log.Debug().Str("channel", channel).Msg("closed subscription")
	}
}

// shutdownHub closes whatever subscribers hub still has. It only touches
// the channel's map entry when that entry is still hub.
func (b *RedisEventBus) shutdownHub(channel string, hub *redisHub) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range hub.subscribers {
		close(subscriber)
		delete(hub.subscribers, subscriber)
	}
	if b.hubs[channel] == hub {
		delete(b.hubs, channel)
	}
}

func (b *RedisEventBus) detach(channel string) *redisHub {
	b.mu.Lock()
	defer b.mu.Unlock()
	hub := b.hubs[channel]
	delete(b.hubs, channel)
	return hub
}

// Unsubscribe drops every subscriber of a channel
func (b *RedisEventBus) Unsubscribe(_ context.Context, channel string) error {
	hub := b.detach(channel)
	if hub == nil {
		return nil
	}
	// Closing the pubsub ends receive, which closes the subscribers.
	if err := hub.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Close closes every subscription. Publish keeps working since it only
// needs the shared client.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	b.closed = true
	channels := make([]string, 0, len(b.hubs))
	for channel := range b.hubs {
		channels = append(channels, channel)
	}
	b.mu.Unlock()

	var errs []error
	for _, channel := range channels {
		if err := b.Unsubscribe(context.Background(), channel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
