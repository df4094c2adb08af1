package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sixassist/cityassist/internal/adapters/providers/upstream"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/pkg/geo"
)

const (
	nominatimSearchURL   = "https://nominatim.openstreetmap.org/search"
	nominatimUserAgent   = "6ixAssist/1.0 (Toronto Community Resource Finder)"
	nominatimGeocodeSize = 5
)

// NominatimPlace is one OpenStreetMap search hit.
type NominatimPlace struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	OSMID       int64
}

// Name returns the first segment of the display name.
func (p NominatimPlace) Name() string {
	name, _, _ := strings.Cut(p.DisplayName, ",")
	return strings.TrimSpace(name)
}

// NominatimClient searches OpenStreetMap Nominatim inside the Toronto viewbox.
type NominatimClient struct {
	client  *upstream.Client
	baseURL string
	viewbox string
}

// NewNominatimClient creates a client. Empty baseURL and userAgent fall
// back to the public endpoint and the service's identifying agent.
func NewNominatimClient(baseURL, userAgent string, httpClient *http.Client) *NominatimClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimSearchURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = nominatimUserAgent
	}
	headers := http.Header{}
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept-Language", "en-US,en;q=0.9")

	return &NominatimClient{
		client:  upstream.NewClient("nominatim", httpClient, headers),
		baseURL: baseURL,
		viewbox: geo.TorontoBounds.Viewbox(),
	}
}

type nominatimResult struct {
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
	OSMID       json.Number `json:"osm_id"`
}

// Search runs a bounded free-text query. Hits with unparseable
// coordinates are skipped.
func (c *NominatimClient) Search(ctx context.Context, query string, limit int) ([]NominatimPlace, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("bounded", "1")
	params.Set("viewbox", c.viewbox)

	var raw []nominatimResult
	if err := c.client.GetJSON(ctx, c.baseURL+"?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("nominatim search failed: %w", err)
	}

	places := make([]NominatimPlace, 0, len(raw))
	for _, r := range raw {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		id, _ := r.OSMID.Int64()
		places = append(places, NominatimPlace{
			Latitude:    lat,
			Longitude:   lng,
			DisplayName: r.DisplayName,
			OSMID:       id,
		})
	}
	return places, nil
}

// NominatimGeocodingProvider implements GeocodingProvider on top of
// NominatimClient.
type NominatimGeocodingProvider struct {
	client *NominatimClient
}

// NewNominatimGeocodingProvider creates a geocoder using client.
func NewNominatimGeocodingProvider(client *NominatimClient) *NominatimGeocodingProvider {
	return &NominatimGeocodingProvider{client: client}
}

// Name identifies the provider
func (n *NominatimGeocodingProvider) Name() string { return "nominatim" }

// Search geocodes one query phrasing
func (n *NominatimGeocodingProvider) Search(ctx context.Context, query string) ([]*providers.GeocodedAddress, error) {
	places, err := n.client.Search(ctx, query, nominatimGeocodeSize)
	if err != nil {
		return nil, err
	}
	results := make([]*providers.GeocodedAddress, 0, len(places))
	for _, p := range places {
		results = append(results, &providers.GeocodedAddress{
			FormattedAddress: p.DisplayName,
			Coordinates:      providers.Coordinates{Latitude: p.Latitude, Longitude: p.Longitude},
		})
	}
	return results, nil
}
