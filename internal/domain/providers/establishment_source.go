package providers

import (
	"context"

	"github.com/sixassist/cityassist/internal/domain/entities"
)

// EstablishmentSource is one upstream that produces establishments in the
// common schema.
type EstablishmentSource interface {
	// Name identifies the source in logs and metrics
	Name() string

	// Fetch returns the source's records. Records are not yet bounds
	// filtered or deduplicated.
	Fetch(ctx context.Context) ([]*entities.Establishment, error)
}
