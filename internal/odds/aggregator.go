// Package odds reduces per-fixture bookmaker quotes to a single mean
// match-winner price per outcome.
package odds

import (
	"context"
	"fmt"
	"time"

	"bc_tele/datafetcher/internal/cache"
	"bc_tele/datafetcher/internal/metrics"
	"bc_tele/datafetcher/internal/models"

	"github.com/rs/zerolog/log"
)

// Fetcher is the upstream odds capability consumed by the aggregator
type Fetcher interface {
	FetchOdds(ctx context.Context, fixtureID int64, bookmakerID int32) (*models.OddsResponse, error)
}

// Aggregator fetches and averages match-winner odds across the canonical
// bookmaker set
type Aggregator struct {
	fetcher Fetcher
	cache   *cache.RedisCache
	ttl     time.Duration
}

// NewAggregator creates an aggregator. The cache may be nil.
func NewAggregator(fetcher Fetcher, redisCache *cache.RedisCache, ttl time.Duration) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		cache:   redisCache,
		ttl:     ttl,
	}
}

// MatchWinner returns the mean match-winner price triple for a fixture.
// A failed or empty upstream response yields a triple of nulls rather than
// an error; the caller records those as confirmed-absent.
func (a *Aggregator) MatchWinner(ctx context.Context, fixtureID int64) *models.AggregatedOdds {
	cacheKey := fmt.Sprintf("odds:match_winner:%d", fixtureID)

	var cached models.AggregatedOdds
	if hit, err := a.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		log.Warn().Err(err).Int64("fixture_id", fixtureID).Msg("Odds cache read failed")
	} else if hit {
		metrics.RecordCacheHit()
		return &cached
	} else {
		metrics.RecordCacheMiss()
	}

	resp, err := a.fetcher.FetchOdds(ctx, fixtureID, 0)
	if err != nil {
		log.Warn().Err(err).Int64("fixture_id", fixtureID).Msg("Odds fetch failed")
		metrics.RecordError("odds_aggregator", "fetch")
		return &models.AggregatedOdds{FixtureID: fixtureID}
	}

	id, quotes := resp.MatchWinnerQuotes()
	if id == 0 {
		id = fixtureID
	}
	agg := models.AggregateMatchWinner(id, quotes)

	log.Debug().
		Int64("fixture_id", fixtureID).
		Int("bookmakers", len(quotes)).
		Msg("Match-winner odds aggregated")

	if err := a.cache.SetJSON(ctx, cacheKey, agg, a.ttl); err != nil {
		log.Warn().Err(err).Int64("fixture_id", fixtureID).Msg("Odds cache write failed")
	}

	return agg
}
