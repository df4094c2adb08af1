package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/adapters/providers/upstream"
	"github.com/sixassist/cityassist/internal/domain/entities"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
	"github.com/sixassist/cityassist/pkg/geo"
)

const (
	googlePlacesTextURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	placesSearchRadius  = 50000
)

// FoodQueries are the Google Places topics of the food source.
var FoodQueries = []string{
	"food bank Toronto",
	"soup kitchen Toronto",
	"community meal program Toronto",
}

// NonProfitQueries are the Google Places topics of the non-profit services source.
var NonProfitQueries = []string{
	"community centre Toronto",
	"drop-in centre Toronto",
	"clothing bank Toronto",
	"employment services Toronto",
	"housing support Toronto",
	"mental health services Toronto",
	"harm reduction Toronto",
	"legal aid clinic Toronto",
	"non-profit organization Toronto",
	"social services Toronto",
}

type placeMapper func(query string, place googlePlace) (entities.Category, string)

// GooglePlacesSource runs Places Text Search around City Hall for a list
// of topics and de-duplicates the hits by place id.
type GooglePlacesSource struct {
	name     string
	apiKey   string
	baseURL  string
	idPrefix string
	queries  []string
	mapPlace placeMapper
	client   *upstream.Client
}

// NewGoogleFoodSource creates the food bank and meal program source.
func NewGoogleFoodSource(apiKey, baseURL string, httpClient *http.Client) *GooglePlacesSource {
	return newGooglePlacesSource("google-food", "google-", FoodQueries, apiKey, baseURL, httpClient,
		func(_ string, place googlePlace) (entities.Category, string) {
			if slices.Contains(place.Types, "food") {
				return entities.CategoryFood, "Food bank or meal service"
			}
			return entities.CategoryFood, ""
		})
}

// NewGoogleNonProfitSource creates the community and non-profit services source.
func NewGoogleNonProfitSource(apiKey, baseURL string, httpClient *http.Client) *GooglePlacesSource {
	return newGooglePlacesSource("google-nonprofit", "google-np-", NonProfitQueries, apiKey, baseURL, httpClient,
		func(query string, _ googlePlace) (entities.Category, string) {
			topic := strings.TrimSpace(strings.Replace(query, "Toronto", "", 1))
			return CategoryForTopic(query), "Non-profit service: " + topic
		})
}

func newGooglePlacesSource(name, idPrefix string, queries []string, apiKey, baseURL string, httpClient *http.Client, mapPlace placeMapper) *GooglePlacesSource {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googlePlacesTextURL
	}
	return &GooglePlacesSource{
		name:     name,
		apiKey:   apiKey,
		baseURL:  baseURL,
		idPrefix: idPrefix,
		queries:  queries,
		mapPlace: mapPlace,
		client:   upstream.NewClient(name, httpClient, nil),
	}
}

func (s *GooglePlacesSource) Name() string { return s.name }

// Fetch runs every topic in order. A failing topic is logged and skipped;
// an error is returned only when every topic failed.
func (s *GooglePlacesSource) Fetch(ctx context.Context) ([]*entities.Establishment, error) {
	if s.apiKey == "" {
		return nil, apperrors.NewUnavailableError("google places api key not configured")
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{})
	var out []*entities.Establishment
	var lastErr error
	failed := 0

	for _, query := range s.queries {
		places, err := s.textSearch(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			failed++
			lastErr = err
			log.Warn().Err(err).Str("source", s.name).Str("query", query).Msg("places query failed")
			continue
		}

		for _, place := range places {
			if place.PlaceID == "" {
				continue
			}
			if _, dup := seen[place.PlaceID]; dup {
				continue
			}
			seen[place.PlaceID] = struct{}{}

			address := place.FormattedAddress
			if address == "" {
				address = place.Vicinity
			}
			category, description := s.mapPlace(query, place)

			out = append(out, &entities.Establishment{
				ID:       s.idPrefix + place.PlaceID,
				Name:     place.Name,
				Address:  address,
				Category: category,
				Location: entities.Location{
					Latitude:  place.Geometry.Location.Lat,
					Longitude: place.Geometry.Location.Lng,
				},
				Description:  description,
				Source:       entities.SourceGooglePlaces,
				LastVerified: now,
				PlaceID:      place.PlaceID,
			})
		}
	}

	if failed == len(s.queries) && lastErr != nil {
		return nil, apperrors.NewExternalError("all places queries failed", lastErr)
	}
	return out, nil
}

func (s *GooglePlacesSource) textSearch(ctx context.Context, query string) ([]googlePlace, error) {
	center := geo.TorontoCityHall
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", s.apiKey)
	params.Set("location", fmt.Sprintf("%.4f,%.4f", center.Lat(), center.Lon()))
	params.Set("radius", fmt.Sprint(placesSearchRadius))

	var payload googlePlacesResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	switch payload.Status {
	case "OK", "ZERO_RESULTS", "":
		return payload.Results, nil
	default:
		return nil, fmt.Errorf("places text search failed: %s %s", payload.Status, payload.ErrorMessage)
	}
}

type googlePlacesResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Results      []googlePlace `json:"results"`
}

type googlePlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}
