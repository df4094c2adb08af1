package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sixassist/cityassist/internal/adapters/providers/upstream"
	"github.com/sixassist/cityassist/internal/domain/entities"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
)

const openDataRecordLimit = 1000

// TorontoOpenDataSource reads the municipal shelter occupancy dataset
// through the CKAN datastore_search API.
type TorontoOpenDataSource struct {
	enabled    bool
	baseURL    string
	resourceID string
	client     *upstream.Client
}

// NewTorontoOpenDataSource creates the source. When disabled, Fetch
// reports the source as unavailable without any network call.
func NewTorontoOpenDataSource(enabled bool, baseURL, resourceID string, httpClient *http.Client) *TorontoOpenDataSource {
	return &TorontoOpenDataSource{
		enabled:    enabled,
		baseURL:    baseURL,
		resourceID: resourceID,
		client:     upstream.NewClient("toronto-open-data", httpClient, nil),
	}
}

func (s *TorontoOpenDataSource) Name() string { return "toronto-open-data" }

type ckanResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []map[string]any `json:"records"`
	} `json:"result"`
}

// Fetch returns one Shelter establishment per record with coordinates.
func (s *TorontoOpenDataSource) Fetch(ctx context.Context) ([]*entities.Establishment, error) {
	if !s.enabled {
		return nil, apperrors.NewUnavailableError("toronto open data source is disabled")
	}

	params := url.Values{}
	params.Set("resource_id", s.resourceID)
	params.Set("limit", strconv.Itoa(openDataRecordLimit))

	var payload ckanResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"?"+params.Encode(), &payload); err != nil {
		return nil, apperrors.NewExternalError("toronto open data request failed", err)
	}

	now := time.Now().UTC()
	out := make([]*entities.Establishment, 0, len(payload.Result.Records))
	for i, record := range payload.Result.Records {
		lat := floatField(record, "Y", "LATITUDE")
		lng := floatField(record, "X", "LONGITUDE")
		if lat == 0 || lng == 0 {
			continue
		}

		id := stringField(record, "_id")
		if id == "" {
			id = strconv.Itoa(i)
		}
		name := stringField(record, "ORGANIZATION_NAME", "PROGRAM_NAME")
		if name == "" {
			name = "Shelter"
		}
		description := "Emergency shelter services."
		if capacity := stringField(record, "CAPACITY"); capacity != "" {
			description += " Capacity: " + capacity
		}

		out = append(out, &entities.Establishment{
			ID:           "toronto-shelter-" + id,
			Name:         name,
			Address:      strings.TrimSpace(stringField(record, "ADDRESS_LINE_1") + ", Toronto, ON"),
			Category:     entities.CategoryShelter,
			Location:     entities.Location{Latitude: lat, Longitude: lng},
			Hours:        "24/7",
			Description:  description,
			Phone:        stringField(record, "PHONE_NUMBER"),
			IsEmergency:  true,
			Source:       entities.SourceTorontoOpenData,
			LastVerified: now,
		})
	}
	return out, nil
}

// stringField returns the first non-empty field among keys, whatever
// its JSON type.
func stringField(record map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := record[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
		default:
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func floatField(record map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := record[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}
