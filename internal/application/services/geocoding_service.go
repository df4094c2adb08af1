package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/infrastructure/observability"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
	"github.com/sixassist/cityassist/pkg/geo"
	"github.com/sixassist/cityassist/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
)

const geocodeCachePrefix = "geocode:v1:"

// GeocodingOptions tunes GeocodingService.
type GeocodingOptions struct {
	// QueryDelay is the pause between successive queries to the fallback
	// provider.
	QueryDelay time.Duration
	// CacheTTLSeconds is how long a resolved address is cached.
	CacheTTLSeconds int
}

type geocodeStrategy struct {
	provider  providers.GeocodingProvider
	phrasings func(original, normalized string) []string
	bounds    geo.Bounds
	delay     time.Duration
}

// GeocodingService resolves free-text addresses and intersections into
// coordinates inside Toronto.
type GeocodingService struct {
	strategies []geocodeStrategy
	cache      providers.CacheProvider
	cacheTTL   int
	metrics    *observability.Metrics
}

// NewGeocodingService creates a geocoding service. primary (Google) is
// optional and tried first; fallback (Nominatim) is always tried.
func NewGeocodingService(
	primary providers.GeocodingProvider,
	fallback providers.GeocodingProvider,
	cache providers.CacheProvider,
	opts GeocodingOptions,
	metrics *observability.Metrics,
) *GeocodingService {
	var strategies []geocodeStrategy
	if primary != nil {
		strategies = append(strategies, geocodeStrategy{
			provider:  primary,
			phrasings: primaryPhrasings,
			bounds:    geo.TorontoBounds,
		})
	}
	if fallback != nil {
		strategies = append(strategies, geocodeStrategy{
			provider:  fallback,
			phrasings: fallbackPhrasings,
			bounds:    geo.TorontoGeocodeBounds,
			delay:     opts.QueryDelay,
		})
	}
	return &GeocodingService{
		strategies: strategies,
		cache:      cache,
		cacheTTL:   opts.CacheTTLSeconds,
		metrics:    metrics,
	}
}

func shortSuffix(normalized string) string {
	if strings.Contains(normalized, " and ") {
		return normalized + ", Toronto"
	}
	return ""
}

func primaryPhrasings(_, normalized string) []string {
	last := shortSuffix(normalized)
	if last == "" {
		last = normalized + ", Toronto, ON"
	}
	return dedupe([]string{
		normalized + ", Toronto, ON, Canada",
		normalized + ", Toronto, Ontario, Canada",
		last,
	})
}

func fallbackPhrasings(original, normalized string) []string {
	short := shortSuffix(normalized)
	if short == "" {
		short = normalized + ", Toronto, Ontario"
	}
	return dedupe([]string{
		original + ", Toronto, Ontario, Canada",
		normalized + ", Toronto, Ontario, Canada",
		normalized + ", Toronto, ON, Canada",
		short,
		original + ", Toronto, ON, Canada",
	})
}

func dedupe(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

// Geocode resolves input into coordinates. Empty input is rejected before
// any network call; exhausting every provider and phrasing yields a
// NotFoundError so the caller can offer a manual pin drop.
func (s *GeocodingService) Geocode(ctx context.Context, input string) (*providers.Coordinates, error) {
	original := strings.TrimSpace(input)
	if original == "" {
		return nil, apperrors.NewValidationError("address is required")
	}
	normalized := utils.NormalizeIntersection(original)

	ctx, span := observability.StartSpan(ctx, "geocoding.geocode")
	defer span.End()
	span.SetAttributes(attribute.String("geocode.normalized", normalized))

	cacheKey := geocodeCachePrefix + strings.ToLower(normalized)
	if coords, ok := s.cached(ctx, cacheKey); ok {
		return coords, nil
	}

	for _, strategy := range s.strategies {
		coords, err := s.tryStrategy(ctx, strategy, original, normalized)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		if coords != nil {
			span.SetAttributes(attribute.String("geocode.provider", strategy.provider.Name()))
			s.store(ctx, cacheKey, coords)
			return coords, nil
		}
	}

	log.Info().Str("input", original).Msg("could not geocode address")
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("could not find %q in Toronto", original))
}

// tryStrategy returns nil coordinates when every phrasing missed. Only
// context errors are returned.
func (s *GeocodingService) tryStrategy(ctx context.Context, strategy geocodeStrategy, original, normalized string) (*providers.Coordinates, error) {
	name := strategy.provider.Name()
	for i, query := range strategy.phrasings(original, normalized) {
		if i > 0 && strategy.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(strategy.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := strategy.provider.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.RecordGeocodeAttempt(ctx, s.metrics, name, false)
			log.Debug().Err(err).Str("provider", name).Str("query", query).Msg("geocode attempt failed")
			continue
		}

		for _, c := range candidates {
			if strategy.bounds.Contains(c.Coordinates.Latitude, c.Coordinates.Longitude) {
				observability.RecordGeocodeAttempt(ctx, s.metrics, name, true)
				coords := c.Coordinates
				return &coords, nil
			}
		}
		observability.RecordGeocodeAttempt(ctx, s.metrics, name, false)
	}
	return nil, nil
}

func (s *GeocodingService) cached(ctx context.Context, key string) (*providers.Coordinates, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, "geocode")
		return nil, false
	}
	var coords providers.Coordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, "geocode")
	return &coords, true
}

func (s *GeocodingService) store(ctx context.Context, key string, coords *providers.Coordinates) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		log.Warn().Err(err).Msg("failed to cache geocode result")
	}
}

// ValidateDeviceReading checks a raw GPS reading against the geocoding box.
func ValidateDeviceReading(lat, lng float64) (*providers.Coordinates, error) {
	if !geo.TorontoGeocodeBounds.Contains(lat, lng) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("location %.5f,%.5f is outside Toronto", lat, lng))
	}
	return &providers.Coordinates{Latitude: lat, Longitude: lng}, nil
}
