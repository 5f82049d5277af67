package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// API-Football
	APIFootballKey     string        `envconfig:"API_FOOTBALL_KEY"`
	APIFootballBaseURL string        `envconfig:"API_FOOTBALL_BASE_URL" default:"https://v3.football.api-sports.io"`
	APIFootballTimeout time.Duration `envconfig:"API_FOOTBALL_TIMEOUT" default:"30s"`

	// Database
	PostgresHost     string `envconfig:"POSTGRES_HOST"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD"`
	PostgresDB       string `envconfig:"POSTGRES_DB"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`

	// Redis (optional cache)
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP trigger surface
	HTTPPort int `envconfig:"HTTP_PORT" default:"8000"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	Timezone        string `envconfig:"SYNC_TIMEZONE" default:"UTC"`
	LookBackDays    int    `envconfig:"SYNC_LOOK_BACK_DAYS" default:"1"`
	LookAheadDays   int    `envconfig:"SYNC_LOOK_AHEAD_DAYS" default:"1"`
	IntervalHours   int    `envconfig:"SYNC_INTERVAL_HOURS" default:"6"`
	BackfillHour    int    `envconfig:"ODDS_BACKFILL_HOUR" default:"2"`
	BackfillLimit   int    `envconfig:"ODDS_BACKFILL_LIMIT" default:"0"`

	// Similarity search
	SearchSimilarityThreshold float64 `envconfig:"SEARCH_SIMILARITY_THRESHOLD" default:"0.3"`
	SearchLimit               int     `envconfig:"SEARCH_LIMIT" default:"20"`

	// Caching TTL (in seconds)
	CacheTTLSearch int `envconfig:"CACHE_TTL_SEARCH" default:"300"` // 5 minutes
	CacheTTLOdds   int `envconfig:"CACHE_TTL_ODDS" default:"3600"`  // 1 hour

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from a .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIFootballKey == "" {
		return fmt.Errorf("API_FOOTBALL_KEY is required")
	}

	if c.LookBackDays < 0 || c.LookAheadDays < 0 {
		return fmt.Errorf("look-back and look-ahead days must be non-negative")
	}

	if c.BackfillHour < 0 || c.BackfillHour > 23 {
		return fmt.Errorf("ODDS_BACKFILL_HOUR must be within [0,23]")
	}

	return nil
}

// PersistenceEnabled reports whether all required Postgres connection
// parameters are present. When any is missing the service runs in
// fetch-only mode and writes nothing.
func (c *Config) PersistenceEnabled() bool {
	return c.PostgresHost != "" &&
		c.PostgresPort != 0 &&
		c.PostgresUser != "" &&
		c.PostgresPassword != "" &&
		c.PostgresDB != ""
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
