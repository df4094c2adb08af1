package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"cityassist"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Geolocation GeolocationConfig
	Sources     SourcesConfig
	Aggregator  AggregatorConfig
	Search      SearchConfig
	Gemini      GeminiConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string   `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int      `envconfig:"SERVER_PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds database configuration. Only used when
// Storage.CommunityBackend is "postgres".
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Database string `envconfig:"DB_NAME" default:"cityassist"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
}

// StorageConfig selects the persistence backends.
type StorageConfig struct {
	// CommunityBackend is "kv" or "postgres".
	CommunityBackend string `envconfig:"COMMUNITY_BACKEND" default:"kv"`
}

// GeolocationConfig holds geocoding provider configuration
type GeolocationConfig struct {
	GoogleAPIKey    string        `envconfig:"GOOGLE_MAPS_API_KEY"`
	NominatimURL    string        `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org/search"`
	UserAgent       string        `envconfig:"NOMINATIM_USER_AGENT" default:"6ixAssist/1.0 (Toronto Community Resource Finder)"`
	QueryDelay      time.Duration `envconfig:"GEOCODE_QUERY_DELAY" default:"500ms"`
	CacheTTLSeconds int           `envconfig:"GEOCODE_CACHE_TTL_SECONDS" default:"2592000"`
}

// SourcesConfig holds upstream establishment source configuration
type SourcesConfig struct {
	GooglePlacesAPIKey string `envconfig:"GOOGLE_PLACES_API_KEY"`
	OpenDataEnabled    bool   `envconfig:"TORONTO_OPEN_DATA_ENABLED" default:"false"`
	OpenDataURL        string `envconfig:"TORONTO_OPEN_DATA_URL" default:"https://ckan0.cf.opendata.inter.prod-toronto.ca/api/3/action/datastore_search"`
	OpenDataResourceID string `envconfig:"TORONTO_SHELTER_RESOURCE_ID" default:"21c83b32-d5a8-4106-a54f-010dbe49318f"`
	OSMEnabled         bool   `envconfig:"OSM_ENABLED" default:"true"`
}

// AggregatorConfig holds merge and deduplication settings
type AggregatorConfig struct {
	DedupThresholdMeters float64       `envconfig:"DEDUP_THRESHOLD_METERS" default:"100"`
	GridDecimals         int           `envconfig:"DEDUP_GRID_DECIMALS" default:"4"`
	SupplementThreshold  int           `envconfig:"OSM_SUPPLEMENT_THRESHOLD" default:"10"`
	CacheTTL             time.Duration `envconfig:"ESTABLISHMENT_CACHE_TTL" default:"10m"`
	WarmInterval         time.Duration `envconfig:"ESTABLISHMENT_WARM_INTERVAL" default:"0s"`
}

// SearchConfig holds ranking settings
type SearchConfig struct {
	FallbackSize int           `envconfig:"SEARCH_FALLBACK_SIZE" default:"3"`
	Timeout      time.Duration `envconfig:"SEARCH_TIMEOUT" default:"20s"`
}

// GeminiConfig holds generative model configuration
type GeminiConfig struct {
	APIKey         string  `envconfig:"GEMINI_API_KEY"`
	BaseURL        string  `envconfig:"GEMINI_BASE_URL"`
	Model          string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	Temperature    float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.2"`
	RateLimitRPM   int     `envconfig:"GEMINI_RATE_LIMIT_RPM" default:"60"`
	RateLimitBurst int     `envconfig:"GEMINI_RATE_LIMIT_BURST" default:"5"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceVersion string `envconfig:"OTEL_SERVICE_VERSION" default:"1.0.0"`
	Endpoint       string `envconfig:"OTEL_ENDPOINT"`
	Enabled        bool   `envconfig:"OTEL_ENABLED" default:"false"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Aggregator.DedupThresholdMeters <= 0 {
		return fmt.Errorf("DEDUP_THRESHOLD_METERS must be positive, got %v", c.Aggregator.DedupThresholdMeters)
	}
	if c.Aggregator.GridDecimals < 0 || c.Aggregator.GridDecimals > 8 {
		return fmt.Errorf("DEDUP_GRID_DECIMALS must be between 0 and 8, got %d", c.Aggregator.GridDecimals)
	}
	switch c.Storage.CommunityBackend {
	case "kv", "postgres":
	default:
		return fmt.Errorf("COMMUNITY_BACKEND must be kv or postgres, got %q", c.Storage.CommunityBackend)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
