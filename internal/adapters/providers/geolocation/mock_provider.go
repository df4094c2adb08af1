package geolocation

import (
	"context"
	"strings"
	"sync"

	"github.com/sixassist/cityassist/internal/domain/providers"
)

// MockGeocodingProvider implements a fixture-backed geocoder for local
// development and tests. Queries match when they contain every word of a
// fixture key.
type MockGeocodingProvider struct {
	mu       sync.Mutex
	fixtures map[string]providers.Coordinates
	Err      error
	queries  []string
}

// NewMockGeocodingProvider creates a mock seeded with well-known Toronto points
func NewMockGeocodingProvider() *MockGeocodingProvider {
	return &MockGeocodingProvider{
		fixtures: map[string]providers.Coordinates{
			"yonge dundas":     {Latitude: 43.6561, Longitude: -79.3802},
			"queen spadina":    {Latitude: 43.6487, Longitude: -79.3963},
			"bloor yonge":      {Latitude: 43.6709, Longitude: -79.3857},
			"union station":    {Latitude: 43.6453, Longitude: -79.3806},
			"nathan phillips":  {Latitude: 43.6525, Longitude: -79.3835},
			"scarborough town": {Latitude: 43.7764, Longitude: -79.2578},
		},
	}
}

// Add registers a fixture
func (m *MockGeocodingProvider) Add(key string, coords providers.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtures[strings.ToLower(key)] = coords
}

// Queries returns every query received so far
func (m *MockGeocodingProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Name identifies the provider
func (m *MockGeocodingProvider) Name() string { return "mock" }

// Search returns the fixtures matching query
func (m *MockGeocodingProvider) Search(ctx context.Context, query string) ([]*providers.GeocodedAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	lower := strings.ToLower(query)
	var results []*providers.GeocodedAddress
	for key, coords := range m.fixtures {
		if containsAllWords(lower, key) {
			results = append(results, &providers.GeocodedAddress{
				FormattedAddress: key,
				Coordinates:      coords,
			})
		}
	}
	return results, nil
}

func containsAllWords(haystack, key string) bool {
	for _, w := range strings.Fields(key) {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}
