// Package backfill enriches stored fixtures with aggregated match-winner
// odds, touching only rows that still lack them.
package backfill

import (
	"context"
	"fmt"

	"bc_tele/datafetcher/internal/metrics"
	"bc_tele/datafetcher/internal/models"

	"github.com/rs/zerolog/log"
)

// OddsSource produces the mean price triple for one fixture
type OddsSource interface {
	MatchWinner(ctx context.Context, fixtureID int64) *models.AggregatedOdds
}

// Store is the slice of the store adapter the reconciler needs
type Store interface {
	EnsureOddsColumns(ctx context.Context) error
	ListOddsCandidates(ctx context.Context, fixtureID *int64, limit int) ([]int64, error)
	UpdateOdds(ctx context.Context, fixtureID int64, home, away, draw string) error
}

// Reconciler scans for fixtures with incomplete derived odds and writes the
// aggregated prices back, one committed row at a time.
type Reconciler struct {
	store Store
	odds  OddsSource
}

// NewReconciler creates a backfill reconciler
func NewReconciler(store Store, odds OddsSource) *Reconciler {
	return &Reconciler{
		store: store,
		odds:  odds,
	}
}

// Run selects either the explicit fixture id or the incomplete set (capped
// when limit > 0) and enriches each row. An aggregator failure for one row
// writes the not-found sentinel and continues; finding nothing to do is not
// an error. Returns the number of rows updated.
func (r *Reconciler) Run(ctx context.Context, fixtureID *int64, limit int) (int, error) {
	// Schema must be ready before the scan; this only ever adds columns
	if err := r.store.EnsureOddsColumns(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure odds columns: %w", err)
	}

	ids, err := r.store.ListOddsCandidates(ctx, fixtureID, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to select backfill rows: %w", err)
	}

	if len(ids) == 0 {
		log.Info().Msg("No fixtures need odds backfill")
		return 0, nil
	}

	log.Info().Int("count", len(ids)).Msg("Backfilling odds")

	updated := 0
	for _, id := range ids {
		agg := r.odds.MatchWinner(ctx, id)

		home := agg.HomeField()
		away := agg.AwayField()
		draw := agg.DrawField()
		for _, f := range []models.OddsField{home, away, draw} {
			if !f.Known {
				metrics.BackfillOddsNotFound.Inc()
			}
		}

		if err := r.store.UpdateOdds(ctx, id, home.Text(), away.Text(), draw.Text()); err != nil {
			log.Error().Err(err).Int64("fixture_id", id).Msg("Failed to write odds")
			metrics.RecordError("backfill", "write")
			continue
		}

		updated++
		metrics.BackfillRowsUpdated.Inc()
		log.Debug().
			Int64("fixture_id", id).
			Str("home", home.Text()).
			Str("away", away.Text()).
			Str("draw", draw.Text()).
			Msg("Odds written")
	}

	log.Info().
		Int("selected", len(ids)).
		Int("updated", updated).
		Msg("Odds backfill finished")

	return updated, nil
}
