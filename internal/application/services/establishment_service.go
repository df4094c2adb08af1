package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
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
	establishmentsCacheKey = "establishments:all:v1"
	// DefaultNearbyRadiusKm is used when Nearby is called without a radius.
	DefaultNearbyRadiusKm = 10.0
)

// EstablishmentSources groups the upstreams in merge order. Any field
// may be nil.
type EstablishmentSources struct {
	Shelters providers.EstablishmentSource
	Food     providers.EstablishmentSource
	// FoodSupplement only runs when Food returned fewer than
	// AggregatorOptions.SupplementThreshold records.
	FoodSupplement providers.EstablishmentSource
	Services       []providers.EstablishmentSource
	NonProfit      providers.EstablishmentSource
}

// AggregatorOptions tunes merge and deduplication.
type AggregatorOptions struct {
	DedupThresholdMeters float64
	GridDecimals         int
	SupplementThreshold  int
	CacheTTL             time.Duration
}

// EstablishmentService aggregates establishments from every configured
// source into one deduplicated list.
type EstablishmentService struct {
	sources EstablishmentSources
	cache   providers.CacheProvider
	opts    AggregatorOptions
	metrics *observability.Metrics

	// fetchMu collapses concurrent cold fetches into one.
	fetchMu sync.Mutex
}

// NewEstablishmentService creates a new establishment service
func NewEstablishmentService(
	sources EstablishmentSources,
	cache providers.CacheProvider,
	opts AggregatorOptions,
	metrics *observability.Metrics,
) *EstablishmentService {
	if opts.DedupThresholdMeters <= 0 {
		opts.DedupThresholdMeters = 100
	}
	if opts.GridDecimals <= 0 {
		opts.GridDecimals = 4
	}
	if opts.SupplementThreshold <= 0 {
		opts.SupplementThreshold = 10
	}
	return &EstablishmentService{
		sources: sources,
		cache:   cache,
		opts:    opts,
		metrics: metrics,
	}
}

// FetchAll returns the aggregated list, served from cache when a fresh
// snapshot exists. It never returns nil and never fails because of a
// source.
func (s *EstablishmentService) FetchAll(ctx context.Context) ([]*entities.Establishment, error) {
	if list, ok := s.cached(ctx); ok {
		return list, nil
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	// Another caller may have filled the cache while we waited.
	if list, ok := s.cached(ctx); ok {
		return list, nil
	}
	return s.fetchAndStore(ctx)
}

// Refresh bypasses the cache and repopulates it.
func (s *EstablishmentService) Refresh(ctx context.Context) ([]*entities.Establishment, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	return s.fetchAndStore(ctx)
}

func (s *EstablishmentService) fetchAndStore(ctx context.Context) ([]*entities.Establishment, error) {
	list := s.aggregate(ctx)
	if err := ctx.Err(); err != nil {
		return list, err
	}
	s.store(ctx, list)
	return list, nil
}

type sourceResult struct {
	records []*entities.Establishment
}

func (s *EstablishmentService) aggregate(ctx context.Context) []*entities.Establishment {
	ctx, span := observability.StartSpan(ctx, "establishments.aggregate")
	defer span.End()

	var (
		wg        sync.WaitGroup
		shelters  sourceResult
		food      sourceResult
		extraFood sourceResult
		nonProfit sourceResult
		services  = make([]sourceResult, len(s.sources.Services))
	)

	run := func(src providers.EstablishmentSource, out *sourceResult) {
		if src == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.records = s.fetchSource(ctx, src)
		}()
	}

	run(s.sources.Shelters, &shelters)
	run(s.sources.NonProfit, &nonProfit)
	for i, src := range s.sources.Services {
		run(src, &services[i])
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if s.sources.Food != nil {
			food.records = s.fetchSource(ctx, s.sources.Food)
		}
		if s.sources.FoodSupplement != nil && len(food.records) < s.opts.SupplementThreshold {
			log.Info().
				Int("food_count", len(food.records)).
				Int("threshold", s.opts.SupplementThreshold).
				Msg("supplementing food results")
			extraFood.records = s.fetchSource(ctx, s.sources.FoodSupplement)
		}
	}()

	wg.Wait()

	ordered := [][]*entities.Establishment{shelters.records, food.records, extraFood.records}
	for _, r := range services {
		ordered = append(ordered, r.records)
	}
	ordered = append(ordered, nonProfit.records)

	merged := s.merge(ordered...)
	span.SetAttributes(attribute.Int("establishments.count", len(merged)))
	return merged
}

// fetchSource runs one source, converting errors and panics into an
// empty result and filtering records outside Toronto.
func (s *EstablishmentService) fetchSource(ctx context.Context, src providers.EstablishmentSource) (records []*entities.Establishment) {
	name := src.Name()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in source %s: %v", name, r)
			log.Error().Err(err).Str("source", name).Msg("establishment source panicked")
			observability.RecordSourceFetch(ctx, s.metrics, name, 0, err)
			records = nil
		}
	}()

	fetched, err := src.Fetch(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeUnavailable) {
			log.Info().Str("source", name).Msg(err.Error())
		} else {
			log.Warn().Err(err).Str("source", name).Msg("establishment source failed")
		}
		observability.RecordSourceFetch(ctx, s.metrics, name, 0, err)
		return nil
	}

	records = make([]*entities.Establishment, 0, len(fetched))
	for _, e := range fetched {
		if e == nil || !geo.TorontoBounds.Contains(e.Location.Latitude, e.Location.Longitude) {
			continue
		}
		records = append(records, e)
	}
	observability.RecordSourceFetch(ctx, s.metrics, name, len(records), nil)
	log.Debug().Str("source", name).Int("fetched", len(fetched)).Int("kept", len(records)).Msg("establishment source fetched")
	return records
}

// merge concatenates the lists in order and drops near-duplicates. Earlier
// lists win.
func (s *EstablishmentService) merge(lists ...[]*entities.Establishment) []*entities.Establishment {
	refLat, _ := geo.TorontoBounds.Center()
	dedup := geo.NewDeduplicator(s.opts.DedupThresholdMeters, s.opts.GridDecimals, refLat)

	merged := make([]*entities.Establishment, 0)
	dropped := 0
	for _, list := range lists {
		for _, e := range list {
			if dedup.Accept(e.Location.Latitude, e.Location.Longitude) {
				merged = append(merged, e)
			} else {
				dropped++
			}
		}
	}
	if dropped > 0 {
		observability.RecordDuplicates(context.Background(), s.metrics, dropped)
	}
	return merged
}

func (s *EstablishmentService) cached(ctx context.Context) ([]*entities.Establishment, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, establishmentsCacheKey)
	if err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, "establishments")
		return nil, false
	}
	var list []*entities.Establishment
	if err := json.Unmarshal(raw, &list); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable establishment cache")
		return nil, false
	}
	if list == nil {
		list = []*entities.Establishment{}
	}
	observability.RecordCacheHit(ctx, s.metrics, "establishments")
	return list, true
}

func (s *EstablishmentService) store(ctx context.Context, list []*entities.Establishment) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	ttl := int(s.opts.CacheTTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	if err := s.cache.Set(ctx, establishmentsCacheKey, raw, ttl); err != nil {
		log.Warn().Err(err).Msg("failed to cache establishments")
	}
}

// Search filters the aggregated list by a substring of name, address or
// description and, when set, by exact category.
func (s *EstablishmentService) Search(ctx context.Context, query, category string) ([]*entities.Establishment, error) {
	var want entities.Category
	if strings.TrimSpace(category) != "" {
		c, ok := entities.ParseCategory(category)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown category %q", category))
		}
		want = c
	}

	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*entities.Establishment, 0)
	for _, e := range all {
		if want != "" && e.Category != want {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Name), q) &&
			!strings.Contains(strings.ToLower(e.Address), q) &&
			!strings.Contains(strings.ToLower(e.Description), q) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Nearby returns establishments within radiusKm of the point, closest first.
func (s *EstablishmentService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]*entities.RankedEstablishment, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*entities.RankedEstablishment, 0)
	for _, e := range all {
		d := geo.DistanceKm(lat, lng, e.Location.Latitude, e.Location.Longitude)
		if d <= radiusKm {
			out = append(out, &entities.RankedEstablishment{
				Establishment: e,
				DistanceKm:    roundKm(d),
				DirectionsURL: DirectionsURL(e),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// GetByID looks up one establishment in the aggregated list.
func (s *EstablishmentService) GetByID(ctx context.Context, id string) (*entities.Establishment, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("establishment %s not found", id))
}

func roundKm(d float64) float64 {
	return float64(int64(d*100+0.5)) / 100
}
