// Package pipeline runs the fetch→normalize→upsert cycle over a window of
// target dates.
package pipeline

import (
	"context"
	"time"

	"bc_tele/datafetcher/internal/metrics"
	"bc_tele/datafetcher/internal/models"

	"github.com/rs/zerolog/log"
)

// FixtureFetcher is the upstream fetch capability
type FixtureFetcher interface {
	FetchFixturesByDate(ctx context.Context, date, timezone string) (*models.FixturesResponse, error)
}

// FixtureStore is the write side of the store adapter
type FixtureStore interface {
	UpsertBatch(ctx context.Context, fixtures []*models.Fixture) (int, error)
}

// Result reports one pipeline run
type Result struct {
	Written  int      `json:"written"`
	Dates    []string `json:"dates"`
	Timezone string   `json:"timezone"`
}

// Pipeline fetches fixtures per date, normalizes them and upserts each
// date's batch. One date's failure never aborts the remaining dates, and
// re-running the same dates is safe because the upsert is idempotent.
type Pipeline struct {
	fetcher FixtureFetcher
	store   FixtureStore
}

// New creates a pipeline. A nil store puts the pipeline in fetch-only mode:
// fixtures are still fetched but nothing is written.
func New(fetcher FixtureFetcher, store FixtureStore) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
	}
}

// Run processes the target dates in order and returns the total rows
// written together with the window it covered.
func (p *Pipeline) Run(ctx context.Context, dates []string, timezone string) Result {
	result := Result{
		Dates:    dates,
		Timezone: timezone,
	}

	start := time.Now()
	for _, date := range dates {
		written, err := p.runDate(ctx, date, timezone)
		if err != nil {
			// Skip this date, attempt the rest of the window
			log.Error().Err(err).Str("date", date).Msg("Date skipped")
			metrics.DatesSkipped.Inc()
			metrics.RecordError("pipeline", "date_failed")
			continue
		}
		result.Written += written
	}

	log.Info().
		Int("written", result.Written).
		Strs("dates", dates).
		Str("timezone", timezone).
		Dur("duration", time.Since(start)).
		Msg("Fixture sync run complete")

	return result
}

func (p *Pipeline) runDate(ctx context.Context, date, timezone string) (int, error) {
	resp, err := p.fetcher.FetchFixturesByDate(ctx, date, timezone)
	if err != nil {
		return 0, err
	}

	if len(resp.Response) == 0 {
		log.Debug().Str("date", date).Msg("No fixtures for date")
		return 0, nil
	}

	rows := make([]*models.Fixture, 0, len(resp.Response))
	for i := range resp.Response {
		rows = append(rows, resp.Response[i].ToFixture())
	}

	if p.store == nil {
		// Fetch-only mode: persistence configuration is missing
		log.Warn().
			Str("date", date).
			Int("count", len(rows)).
			Msg("Persistence disabled, fixtures not written")
		return 0, nil
	}

	written, err := p.store.UpsertBatch(ctx, rows)
	if err != nil {
		return 0, err
	}

	metrics.FixturesUpserted.Add(float64(written))
	log.Info().
		Str("date", date).
		Int("written", written).
		Msg("Fixtures upserted for date")

	return written, nil
}
