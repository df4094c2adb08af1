package providers

import (
	"context"

	"github.com/sixassist/cityassist/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// community update events
type EventBus interface {
	// Publish publishes an update to all subscribers
	Publish(ctx context.Context, channel string, update *entities.CommunityUpdate) error

	// Subscribe subscribes to updates on a channel. The returned channel is
	// closed when ctx is done or the bus is closed.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CommunityUpdate, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelCommunityUpdates carries every community update
	EventChannelCommunityUpdates = "community:updates"

	// EventChannelEstablishmentPrefix is the prefix for per-establishment channels
	EventChannelEstablishmentPrefix = "establishment:"
)

// GetEstablishmentChannel returns the channel name for a specific establishment
func GetEstablishmentChannel(establishmentID string) string {
	return EventChannelEstablishmentPrefix + establishmentID
}
