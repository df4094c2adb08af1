package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
)

// EstablishmentRefresher repopulates the aggregated establishment cache.
type EstablishmentRefresher interface {
	Refresh(ctx context.Context) ([]*entities.Establishment, error)
}

// CacheWarmingService keeps the establishment snapshot warm so requests
// rarely pay for a cold aggregation.
type CacheWarmingService struct {
	establishments EstablishmentRefresher
	cache          providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(establishments EstablishmentRefresher, cache providers.CacheProvider) *CacheWarmingService {
	return &CacheWarmingService{
		establishments: establishments,
		cache:          cache,
	}
}

// WarmCache refreshes the establishment snapshot.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	start := time.Now()
	list, err := s.establishments.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("establishments", len(list)).
		Dur("duration", time.Since(start)).
		Msg("establishment cache warmed")
	return nil
}

// InvalidateCache drops the cached snapshot so the next request refetches.
func (s *CacheWarmingService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, establishmentsCacheKey)
}

// StartPeriodicWarming warms once, then again every interval until ctx is done.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
