package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Database holds the database connection pool and provides access to repositories
type Database struct {
	Pool *pgxpool.Pool

	// Repositories
	Fixtures *FixtureRepository
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDatabase creates a new database connection pool and initializes repositories
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	// Configure connection pool
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Set pool configuration
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Create connection pool
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Successfully connected to database")

	// Initialize database with repositories
	db := &Database{
		Pool: pool,
	}

	// Initialize repositories
	db.Fixtures = &FixtureRepository{db: db}

	return db, nil
}

// EnsureSchema provisions the fixtures table, its trigram search index and
// the derived odds columns. Every statement is idempotent, so this runs on
// each process start; new columns are added without touching existing data.
func (db *Database) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		`CREATE TABLE IF NOT EXISTS api_football_fixtures (
			fixture_id BIGINT PRIMARY KEY,
			fixture_date TIMESTAMPTZ,
			fixture_timezone TEXT,
			fixture_timestamp BIGINT,
			venue_id BIGINT,
			venue_name TEXT,
			venue_city TEXT,
			status_long TEXT,
			status_short TEXT,
			status_elapsed INT,
			referee TEXT,
			period_first BIGINT,
			period_second BIGINT,
			league_id INT,
			league_name TEXT,
			league_country TEXT,
			league_season INT,
			league_round TEXT,
			league_logo TEXT,
			league_flag TEXT,
			league_standings BOOLEAN,
			home_id INT,
			home_name TEXT,
			home_logo TEXT,
			home_winner BOOLEAN,
			away_id INT,
			away_name TEXT,
			away_logo TEXT,
			away_winner BOOLEAN,
			goals_home INT,
			goals_away INT,
			score_halftime_home INT,
			score_halftime_away INT,
			score_fulltime_home INT,
			score_fulltime_away INT,
			score_extratime_home INT,
			score_extratime_away INT,
			score_penalty_home INT,
			score_penalty_away INT,
			teams_vs TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		// Additive column guarantees for tables created by older versions
		`ALTER TABLE api_football_fixtures ADD COLUMN IF NOT EXISTS teams_vs TEXT`,
		`ALTER TABLE api_football_fixtures ADD COLUMN IF NOT EXISTS home_odd TEXT`,
		`ALTER TABLE api_football_fixtures ADD COLUMN IF NOT EXISTS away_odd TEXT`,
		`ALTER TABLE api_football_fixtures ADD COLUMN IF NOT EXISTS draw_odd TEXT`,
		`CREATE INDEX IF NOT EXISTS api_football_fixtures_teams_vs_trgm
			ON api_football_fixtures USING gin (teams_vs gin_trgm_ops)`,
	}

	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	log.Info().Msg("Fixtures schema ensured")
	return nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// PoolStats returns database pool statistics
func (db *Database) PoolStats() map[string]interface{} {
	stat := db.Pool.Stat()
	return map[string]interface{}{
		"total_conns":    stat.TotalConns(),
		"acquired_conns": stat.AcquiredConns(),
		"idle_conns":     stat.IdleConns(),
		"max_conns":      stat.MaxConns(),
	}
}
