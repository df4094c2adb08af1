package providers

import (
	"context"
)

// GeocodingProvider resolves a free-text query into candidate locations.
// Implementations return every candidate the upstream offers; bounds
// validation is left to the caller.
type GeocodingProvider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// Search returns the candidates for a single query phrasing
	Search(ctx context.Context, query string) ([]*GeocodedAddress, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodedAddress is one candidate returned by a GeocodingProvider
type GeocodedAddress struct {
	FormattedAddress string
	Coordinates      Coordinates
}
