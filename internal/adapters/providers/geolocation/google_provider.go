package geolocation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sixassist/cityassist/internal/adapters/providers/upstream"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/pkg/geo"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocodingProvider implements GeocodingProvider using the Google
// Geocoding API, biased to the Toronto bounding box.
type GoogleGeocodingProvider struct {
	apiKey  string
	client  *upstream.Client
	baseURL string
}

// NewGoogleGeocodingProvider creates a new Google geocoding provider.
func NewGoogleGeocodingProvider(apiKey string) *GoogleGeocodingProvider {
	return NewGoogleGeocodingProviderWithOptions(apiKey, googleGeocodeURL, nil)
}

// NewGoogleGeocodingProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleGeocodingProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) *GoogleGeocodingProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	return &GoogleGeocodingProvider{
		apiKey:  apiKey,
		client:  upstream.NewClient("google-geocode", httpClient, nil),
		baseURL: baseURL,
	}
}

// Name identifies the provider
func (g *GoogleGeocodingProvider) Name() string { return "google" }

// Search geocodes one query phrasing. ZERO_RESULTS is not an error.
func (g *GoogleGeocodingProvider) Search(ctx context.Context, query string) ([]*providers.GeocodedAddress, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)
	params.Set("region", "ca")
	params.Set("bounds", geo.TorontoBounds.GoogleBounds())

	var payload googleGeocodeResponse
	if err := g.client.GetJSON(ctx, g.baseURL+"?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("geocode request failed: %s", payload.Status)
	}

	results := make([]*providers.GeocodedAddress, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, &providers.GeocodedAddress{
			FormattedAddress: r.FormattedAddress,
			Coordinates: providers.Coordinates{
				Latitude:  r.Geometry.Location.Lat,
				Longitude: r.Geometry.Location.Lng,
			},
		})
	}
	return results, nil
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
