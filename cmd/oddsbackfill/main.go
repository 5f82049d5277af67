// Command oddsbackfill runs the odds backfill once and exits. Useful for
// ad-hoc enrichment of a single fixture or a bounded batch without waiting
// for the scheduled trigger.
package main

import (
	"context"
	"flag"
	"strconv"
	"time"

	"bc_tele/datafetcher/internal/backfill"
	"bc_tele/datafetcher/internal/cache"
	"bc_tele/datafetcher/internal/client"
	"bc_tele/datafetcher/internal/config"
	"bc_tele/datafetcher/internal/odds"
	"bc_tele/datafetcher/internal/repository"

	"github.com/rs/zerolog/log"
)

func main() {
	fixtureIDFlag := flag.Int64("fixture-id", 0, "backfill a single fixture regardless of completeness")
	limitFlag := flag.Int("limit", 0, "cap the number of incomplete fixtures processed (0 = no cap)")
	flag.Parse()

	ctx := context.Background()
	cfg := config.MustLoad()

	if !cfg.PersistenceEnabled() {
		log.Fatal().Msg("Postgres configuration incomplete - backfill needs persistence")
	}

	db, err := repository.NewDatabase(ctx, repository.Config{
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

	// Validate database connectivity before doing any work
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	apiClient := client.NewClient(
		cfg.APIFootballBaseURL,
		cfg.APIFootballKey,
		cfg.APIFootballTimeout,
	)

	// Redis is optional here too
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

	oddsTTL := time.Duration(cfg.CacheTTLOdds) * time.Second
	aggregator := odds.NewAggregator(apiClient, redisCache, oddsTTL)
	reconciler := backfill.NewReconciler(db.Fixtures, aggregator)

	var fixtureID *int64
	if *fixtureIDFlag != 0 {
		fixtureID = fixtureIDFlag
	}

	updated, err := reconciler.Run(ctx, fixtureID, *limitFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Odds backfill failed")
	}

	log.Info().Int("updated", updated).Msg("Odds backfill complete")
}
