package repositories

import (
	"context"

	"github.com/sixassist/cityassist/internal/domain/entities"
)

// CommunityUpdateRepository stores community updates. Both list methods
// return newest first.
type CommunityUpdateRepository interface {
	// Create stores a new update
	Create(ctx context.Context, update *entities.CommunityUpdate) error

	// ListByEstablishment returns the updates attached to one establishment
	ListByEstablishment(ctx context.Context, establishmentID string) ([]*entities.CommunityUpdate, error)

	// List returns up to limit updates across all establishments; limit <= 0 means all
	List(ctx context.Context, limit int) ([]*entities.CommunityUpdate, error)
}
