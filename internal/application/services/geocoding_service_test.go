package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sixassist/cityassist/internal/adapters/cache"
	"github.com/sixassist/cityassist/internal/adapters/providers/geolocation"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/providers"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeocoder(primary, fallback providers.GeocodingProvider) *services.GeocodingService {
	return services.NewGeocodingService(primary, fallback, cache.NewMemoryAdapter(100),
		services.GeocodingOptions{CacheTTLSeconds: 60}, nil)
}

func TestGeocode_RejectsEmptyInputWithoutQuerying(t *testing.T) {
	fallback := geolocation.NewMockGeocodingProvider()
	svc := newGeocoder(nil, fallback)

	_, err := svc.Geocode(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, fallback.Queries())
}

func TestGeocode_IntersectionViaFallback(t *testing.T) {
	fallback := geolocation.NewMockGeocodingProvider()
	svc := newGeocoder(nil, fallback)

	coords, err := svc.Geocode(context.Background(), "Yonge & Dundas")
	require.NoError(t, err)
	assert.InDelta(t, 43.6561, coords.Latitude, 1e-6)
	assert.InDelta(t, -79.3802, coords.Longitude, 1e-6)
	assert.Equal(t, []string{"Yonge & Dundas, Toronto, Ontario, Canada"}, fallback.Queries())
}

func TestGeocode_PrimaryResultOutsideStrictBoxFallsThrough(t *testing.T) {
	// Inside the buffered geocoding box but south of the strict city box.
	edge := providers.Coordinates{Latitude: 43.56, Longitude: -79.60}

	primary := geolocation.NewMockGeocodingProvider()
	primary.Add("lakeshore", edge)
	fallback := geolocation.NewMockGeocodingProvider()
	fallback.Add("lakeshore", edge)

	svc := newGeocoder(primary, fallback)
	coords, err := svc.Geocode(context.Background(), "Lakeshore")
	require.NoError(t, err)
	assert.Equal(t, edge, *coords)
	assert.Equal(t, []string{
		"Lakeshore, Toronto, ON, Canada",
		"Lakeshore, Toronto, Ontario, Canada",
		"Lakeshore, Toronto, ON",
	}, primary.Queries())
	assert.Len(t, fallback.Queries(), 1)
}

func TestGeocode_ExhaustedIsNotFound(t *testing.T) {
	fallback := geolocation.NewMockGeocodingProvider()
	svc := newGeocoder(nil, fallback)

	_, err := svc.Geocode(context.Background(), "Nowhere Special")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	assert.Equal(t, []string{
		"Nowhere Special, Toronto, Ontario, Canada",
		"Nowhere Special, Toronto, ON, Canada",
		"Nowhere Special, Toronto, Ontario",
	}, fallback.Queries())
}

func TestGeocode_ProviderErrorsAreTriedThrough(t *testing.T) {
	fallback := geolocation.NewMockGeocodingProvider()
	fallback.Err = errors.New("boom")
	svc := newGeocoder(nil, fallback)

	_, err := svc.Geocode(context.Background(), "Union Station")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	assert.Len(t, fallback.Queries(), 3)
}

func TestGeocode_CachesResolvedAddresses(t *testing.T) {
	fallback := geolocation.NewMockGeocodingProvider()
	svc := newGeocoder(nil, fallback)
	ctx := context.Background()

	first, err := svc.Geocode(ctx, "Union Station")
	require.NoError(t, err)
	second, err := svc.Geocode(ctx, "  union station ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, fallback.Queries(), 1)
}

func TestGeocode_CancelledContext(t *testing.T) {
	fallback := geolocation.NewMockGeocodingProvider()
	svc := newGeocoder(nil, fallback)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Geocode(ctx, "Union Station")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateDeviceReading(t *testing.T) {
	coords, err := services.ValidateDeviceReading(43.6532, -79.3832)
	require.NoError(t, err)
	assert.Equal(t, 43.6532, coords.Latitude)

	_, err = services.ValidateDeviceReading(45.4215, -75.6972)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}
