package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/infrastructure/observability"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
	"github.com/sixassist/cityassist/pkg/geo"
	"go.opentelemetry.io/otel/attribute"
)

const (
	fallbackSummary = "We're experiencing heavy traffic. Here are some relevant resources based on keywords."
	noResourcesText = "No resources found right now. Please try again shortly, or call 211 for help finding services."

	defaultFallbackSize = 3
)

// EstablishmentLister provides the establishment snapshot used for ranking.
type EstablishmentLister interface {
	FetchAll(ctx context.Context) ([]*entities.Establishment, error)
}

// SearchRequest is a free-text query with an optional user location.
type SearchRequest struct {
	Query     string
	Latitude  float64
	Longitude float64
	// HasLocation is false when the user never shared a position; the
	// search then measures from City Hall.
	HasLocation bool
}

// SearchOptions tunes SearchService.
type SearchOptions struct {
	FallbackSize int
	Timeout      time.Duration
}

// SearchService ranks establishments for a free-text query using a
// text generator, falling back to keyword matching.
type SearchService struct {
	establishments EstablishmentLister
	generator      providers.TextGenerator
	opts           SearchOptions
	metrics        *observability.Metrics
}

// NewSearchService creates a search service. generator may be nil, in
// which case every search uses keyword matching.
func NewSearchService(
	establishments EstablishmentLister,
	generator providers.TextGenerator,
	opts SearchOptions,
	metrics *observability.Metrics,
) *SearchService {
	if opts.FallbackSize <= 0 {
		opts.FallbackSize = defaultFallbackSize
	}
	return &SearchService{
		establishments: establishments,
		generator:      generator,
		opts:           opts,
		metrics:        metrics,
	}
}

// Search answers a query. Ranking failures never surface as errors; they
// produce a keyword fallback with Fallback set.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*entities.SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	result := &entities.SearchResult{
		Query:     query,
		Crisis:    IsCrisisQuery(query),
		Resources: []*entities.RankedEstablishment{},
	}
	if result.Crisis {
		result.EmergencyContacts = entities.EmergencyContacts
	}

	ctx, span := observability.StartSpan(ctx, "search.rank")
	defer span.End()
	span.SetAttributes(attribute.Bool("search.crisis", result.Crisis))

	lat, lng := req.Latitude, req.Longitude
	if !req.HasLocation {
		lat, lng = geo.TorontoCityHall.Lat(), geo.TorontoCityHall.Lon()
	}

	all, err := s.establishments.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		result.Summary = noResourcesText
		return result, nil
	}

	ranked, summary, reason := s.rank(ctx, query, lat, lng, all)
	if reason != "" {
		observability.RecordSearchFallback(ctx, s.metrics, reason)
		span.SetAttributes(attribute.String("search.fallback_reason", reason))
		result.Fallback = true
		result.Summary = fallbackSummary
		result.Resources = s.fallback(query, lat, lng, all)
		return result, nil
	}

	result.Summary = summary
	result.Resources = ranked
	return result, nil
}

// rank runs the generator. A non-empty reason means the caller should
// fall back to keyword matching.
func (s *SearchService) rank(ctx context.Context, query string, lat, lng float64, all []*entities.Establishment) ([]*entities.RankedEstablishment, string, string) {
	if s.generator == nil {
		return nil, "", "generator_disabled"
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	snapshot, err := json.Marshal(promptSnapshot(all))
	if err != nil {
		return nil, "", "snapshot_error"
	}
	userPrompt := fmt.Sprintf(rankingUserPromptTemplate, query, lat, lng, snapshot)

	text, err := s.generator.Generate(ctx, rankingSystemPrompt, userPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("ranking generator failed")
		return nil, "", "generator_error"
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", "empty_response"
	}

	parsed, err := parseRankingResponse(text)
	if err != nil {
		log.Warn().Err(err).Msg("ranking response rejected")
		return nil, "", "malformed_response"
	}

	byID := make(map[string]*entities.Establishment, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}

	seen := make(map[string]struct{}, len(parsed.Resources))
	ranked := make([]*entities.RankedEstablishment, 0, len(parsed.Resources))
	for _, r := range parsed.Resources {
		e, ok := byID[r.ID]
		if !ok {
			log.Debug().Str("id", r.ID).Msg("dropping unknown ranked id")
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}

		distance := geo.DistanceKm(lat, lng, e.Location.Latitude, e.Location.Longitude)
		if r.DistanceKm != nil {
			distance = *r.DistanceKm
		}
		ranked = append(ranked, rankedFrom(e, distance))
	}
	if len(ranked) == 0 {
		return nil, "", "no_known_ids"
	}
	return ranked, parsed.Summary, ""
}

// fallback selects by keyword, or the first few establishments when
// nothing matches.
func (s *SearchService) fallback(query string, lat, lng float64, all []*entities.Establishment) []*entities.RankedEstablishment {
	q := strings.ToLower(query)
	wantsEmergency := strings.Contains(q, "emergency")

	matches := make([]*entities.Establishment, 0)
	for _, e := range all {
		if strings.Contains(strings.ToLower(string(e.Category)), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			strings.Contains(strings.ToLower(e.Name), q) ||
			(wantsEmergency && e.IsEmergency) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		n := min(s.opts.FallbackSize, len(all))
		matches = all[:n]
	}

	out := make([]*entities.RankedEstablishment, 0, len(matches))
	for _, e := range matches {
		out = append(out, rankedFrom(e, geo.DistanceKm(lat, lng, e.Location.Latitude, e.Location.Longitude)))
	}
	return out
}

func rankedFrom(e *entities.Establishment, distanceKm float64) *entities.RankedEstablishment {
	return &entities.RankedEstablishment{
		Establishment: e,
		DistanceKm:    roundKm(distanceKm),
		DirectionsURL: DirectionsURL(e),
	}
}

type snapshotEntry struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address"`
	Hours       string  `json:"hours"`
	Description string  `json:"description"`
	IsEmergency bool    `json:"isEmergency"`
}

func promptSnapshot(all []*entities.Establishment) []snapshotEntry {
	out := make([]snapshotEntry, 0, len(all))
	for _, e := range all {
		out = append(out, snapshotEntry{
			ID:          e.ID,
			Name:        e.Name,
			Category:    string(e.Category),
			Lat:         e.Location.Latitude,
			Lng:         e.Location.Longitude,
			Address:     e.Address,
			Hours:       e.HoursOrDefault(),
			Description: e.DescriptionOrDefault(),
			IsEmergency: e.IsEmergency,
		})
	}
	return out
}
