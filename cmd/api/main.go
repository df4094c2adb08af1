package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/adapters/cache"
	"github.com/sixassist/cityassist/internal/adapters/database"
	"github.com/sixassist/cityassist/internal/adapters/events"
	"github.com/sixassist/cityassist/internal/adapters/providers/geolocation"
	"github.com/sixassist/cityassist/internal/adapters/providers/upstream"
	"github.com/sixassist/cityassist/internal/adapters/sources"
	"github.com/sixassist/cityassist/internal/adapters/storage"
	"github.com/sixassist/cityassist/internal/api/handlers"
	"github.com/sixassist/cityassist/internal/api/middleware"
	"github.com/sixassist/cityassist/internal/api/routes"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/domain/repositories"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/gemini"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/postgres"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/redis"
	"github.com/sixassist/cityassist/internal/infrastructure/observability"
	"github.com/sixassist/cityassist/pkg/config"
)

const memoryCacheSize = 2048

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.ServiceName, cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Cache, key-value store and event bus share one backend
	var (
		cacheProvider providers.CacheProvider
		kvStore       providers.KeyValueStore
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("Failed to initialize Redis client")
		}
		defer redisClient.Close()

		cacheProvider = cache.NewRedisAdapter(redisClient)
		kvStore = storage.NewRedisStore(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Using Redis for cache, storage and events")
	} else {
		cacheProvider = cache.NewMemoryAdapter(memoryCacheSize)
		kvStore = storage.NewMemoryStore()
		eventBus = events.NewMemoryEventBus()
		log.Info().Msg("Redis disabled, using in-memory cache, storage and events")
	}

	var updateRepo repositories.CommunityUpdateRepository
	switch cfg.Storage.CommunityBackend {
	case "postgres":
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()

		if err := pgClient.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
		updateRepo = database.NewCommunityUpdateAdapter(pgClient, metrics)
	default:
		updateRepo = storage.NewCommunityUpdateStore(kvStore)
	}

	httpClient := upstream.NewHTTPClient()

	// Geocoding: Google first when configured, Nominatim always
	nominatim := geolocation.NewNominatimClient(cfg.Geolocation.NominatimURL, cfg.Geolocation.UserAgent, httpClient)
	var primaryGeocoder providers.GeocodingProvider
	if cfg.Geolocation.GoogleAPIKey != "" {
		primaryGeocoder = geolocation.NewGoogleGeocodingProviderWithOptions(cfg.Geolocation.GoogleAPIKey, "", httpClient)
	} else {
		log.Info().Msg("GOOGLE_MAPS_API_KEY not set, geocoding through Nominatim only")
	}
	geocodingService := services.NewGeocodingService(
		primaryGeocoder,
		geolocation.NewNominatimGeocodingProvider(nominatim),
		cacheProvider,
		services.GeocodingOptions{
			QueryDelay:      cfg.Geolocation.QueryDelay,
			CacheTTLSeconds: cfg.Geolocation.CacheTTLSeconds,
		},
		metrics,
	)

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
		metrics,
	)

	var generator providers.TextGenerator
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, &cfg.Gemini, metrics)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Gemini client, ranking falls back to keywords")
		} else {
			generator = geminiClient
		}
	} else {
		log.Info().Msg("GEMINI_API_KEY not set, ranking falls back to keywords")
	}
	searchService := services.NewSearchService(
		establishmentService,
		generator,
		services.SearchOptions{
			FallbackSize: cfg.Search.FallbackSize,
			Timeout:      cfg.Search.Timeout,
		},
		metrics,
	)

	userService := services.NewUserService(storage.NewUserStore(kvStore), kvStore)
	updateService := services.NewCommunityUpdateService(updateRepo, userService, eventBus)
	locationService := services.NewLocationService()

	if cfg.Aggregator.WarmInterval > 0 {
		warming := services.NewCacheWarmingService(establishmentService, cacheProvider)
		go warming.StartPeriodicWarming(ctx, cfg.Aggregator.WarmInterval)
		log.Info().Dur("interval", cfg.Aggregator.WarmInterval).Msg("Establishment cache warming enabled")
	}

	router := routes.NewRouter(
		routes.Handlers{
			Establishment:   handlers.NewEstablishmentHandler(establishmentService, updateService),
			Search:          handlers.NewSearchHandler(searchService, services.NewSearchCoordinator(), locationService),
			Geocode:         handlers.NewGeocodeHandler(geocodingService),
			Location:        handlers.NewLocationHandler(locationService),
			User:            handlers.NewUserHandler(userService),
			CommunityUpdate: handlers.NewCommunityUpdateHandler(updateService),
			SSE:             handlers.NewSSEHandler(eventBus, updateService),
			Announcement:    handlers.NewAnnouncementHandler(services.NewAnnouncementService()),
			Preference:      handlers.NewPreferenceHandler(services.NewPreferenceService(kvStore)),
		},
		middleware.NewCacheMiddleware(cacheProvider),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// Streams stay open; handlers bound their own work with contexts.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("Server stopped")
}
