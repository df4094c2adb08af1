package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/adapters/cache"
	"github.com/sixassist/cityassist/internal/adapters/providers/geolocation"
	"github.com/sixassist/cityassist/internal/adapters/providers/upstream"
	"github.com/sixassist/cityassist/internal/adapters/sources"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/redis"
	"github.com/sixassist/cityassist/internal/infrastructure/observability"
	"github.com/sixassist/cityassist/pkg/config"
)

// refresh rebuilds the merged establishment list. With Redis enabled the
// result lands in the shared cache so running API instances pick it up.
func main() {
	var intervalFlag string
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for refreshing (e.g. 30m, 6h)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.ServiceName+"-refresh", cfg.Environment, cfg.LogLevel)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REFRESH_INTERVAL"))
	}
	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
	} else {
		log.Warn().Msg("Redis disabled, results are reported but not shared")
		cacheProvider = cache.NewMemoryAdapter(1)
	}

	httpClient := upstream.NewHTTPClient()
	nominatim := geolocation.NewNominatimClient(cfg.Geolocation.NominatimURL, cfg.Geolocation.UserAgent, httpClient)
	set := sources.NewSet(&cfg.Sources, nominatim, cfg.Geolocation.QueryDelay, httpClient)

	establishmentService := services.NewEstablishmentService(
		services.EstablishmentSources{
			Shelters:       set.Shelters,
			Food:           set.Food,
			FoodSupplement: set.FoodSupplement,
			Services:       set.Services,
			NonProfit:      set.NonProfit,
		},
		cacheProvider,
		services.AggregatorOptions{
			DedupThresholdMeters: cfg.Aggregator.DedupThresholdMeters,
			GridDecimals:         cfg.Aggregator.GridDecimals,
			SupplementThreshold:  cfg.Aggregator.SupplementThreshold,
			CacheTTL:             cfg.Aggregator.CacheTTL,
		},
		nil,
	)

	for {
		refreshOnce(ctx, establishmentService)

		if interval <= 0 {
			return
		}
		log.Info().Dur("next_in", interval).Msg("Refresh complete")
		select {
		case <-ctx.Done():
			log.Info().Msg("Refresh stopped")
			return
		case <-time.After(interval):
		}
	}
}

func refreshOnce(ctx context.Context, svc *services.EstablishmentService) {
	start := time.Now()
	list, err := svc.Refresh(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Refresh failed")
		return
	}

	counts := make(map[entities.Category]int)
	for _, e := range list {
		counts[e.Category]++
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	event := log.Info().Int("total", len(list)).Dur("duration", time.Since(start))
	for _, c := range categories {
		event = event.Int(c, counts[entities.Category(c)])
	}
	event.Msg("Establishments refreshed")
}
