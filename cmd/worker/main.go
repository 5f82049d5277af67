package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bc_tele/datafetcher/internal/backfill"
	"bc_tele/datafetcher/internal/cache"
	"bc_tele/datafetcher/internal/client"
	"bc_tele/datafetcher/internal/config"
	"bc_tele/datafetcher/internal/metrics"
	"bc_tele/datafetcher/internal/odds"
	"bc_tele/datafetcher/internal/pipeline"
	"bc_tele/datafetcher/internal/repository"
	"bc_tele/datafetcher/internal/scheduler"
	"bc_tele/datafetcher/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting API-Football fixture sync worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Timezone).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize API-Football client
	apiClient := client.NewClient(
		cfg.APIFootballBaseURL,
		cfg.APIFootballKey,
		cfg.APIFootballTimeout,
	)
	log.Info().Msg("API-Football client initialized")

	// Initialize database connection; missing connection parameters put
	// the worker in fetch-only mode rather than failing
	var db *repository.Database
	if cfg.PersistenceEnabled() {
		var err error
		db, err = repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.PostgresHost,
			Port:     strconv.Itoa(cfg.PostgresPort),
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		log.Info().Msg("Database connection established")
	} else {
		log.Warn().Msg("Postgres configuration incomplete - running in fetch-only mode")
	}

	// Initialize Redis cache (optional)
	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Wire the pipeline and backfill; both tolerate a missing store
	var (
		store          pipeline.FixtureStore
		fixtures       *repository.FixtureRepository
		backfillRunner scheduler.BackfillRunner
	)
	if db != nil {
		fixtures = db.Fixtures
		store = db.Fixtures

		oddsTTL := time.Duration(cfg.CacheTTLOdds) * time.Second
		aggregator := odds.NewAggregator(apiClient, redisCache, oddsTTL)
		backfillRunner = backfill.NewReconciler(db.Fixtures, aggregator)
	}

	syncPipeline := pipeline.New(apiClient, store)

	// Create and start scheduler
	sched := scheduler.NewScheduler(cfg, syncPipeline, backfillRunner)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Start the trigger surface (health, manual run, search)
	server := web.NewServer(cfg, sched, fixtures, redisCache)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: server.Routes(),
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	if cfg.EnableScheduler {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
