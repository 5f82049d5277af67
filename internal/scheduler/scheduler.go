package scheduler

import (
	"context"
	"fmt"
	"time"

	"bc_tele/datafetcher/internal/config"
	"bc_tele/datafetcher/internal/metrics"
	"bc_tele/datafetcher/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// BackfillRunner is the odds backfill job kicked off by the fixed-hour
// trigger
type BackfillRunner interface {
	Run(ctx context.Context, fixtureID *int64, limit int) (int, error)
}

// Scheduler runs the recurring sync triggers:
// - daily refresh of the date window at local midnight
// - interval refresh every N hours aligned to the top of the hour
// - odds backfill once daily at a fixed local hour
// Each trigger is independent; one failing does not stop the others.
type Scheduler struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	backfill BackfillRunner
	loc      *time.Location
	cron     *cron.Cron
	stopChan chan struct{}
	nowFunc  func() time.Time
}

// NewScheduler creates a scheduler. The backfill runner may be nil when
// persistence is disabled.
func NewScheduler(cfg *config.Config, p *pipeline.Pipeline, backfill BackfillRunner) *Scheduler {
	loc := LoadLocation(cfg.Timezone)
	return &Scheduler{
		cfg:      cfg,
		pipeline: p,
		backfill: backfill,
		loc:      loc,
		cron:     cron.New(cron.WithLocation(loc)),
		stopChan: make(chan struct{}),
		nowFunc:  time.Now,
	}
}

// Start registers the cron triggers and launches the interval loop
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().
		Str("timezone", s.loc.String()).
		Int("interval_hours", ClampIntervalHours(s.cfg.IntervalHours)).
		Int("backfill_hour", s.cfg.BackfillHour).
		Msg("Scheduler starting...")

	// Daily window refresh at local midnight
	if _, err := s.cron.AddFunc("0 0 * * *", func() {
		s.RunOnce(ctx, "midnight")
	}); err != nil {
		return fmt.Errorf("failed to schedule midnight refresh: %w", err)
	}

	// Odds backfill once daily at the configured local hour
	backfillSpec := fmt.Sprintf("0 %d * * *", s.cfg.BackfillHour)
	if _, err := s.cron.AddFunc(backfillSpec, func() {
		s.runBackfill(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule odds backfill: %w", err)
	}

	s.cron.Start()

	// Interval refresh aligned to the top of the hour
	go s.intervalLoop(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// intervalLoop sleeps until the next aligned fire time, runs one sync, and
// recomputes. Each iteration fully completes before the next sleep, so the
// trigger never overlaps itself.
func (s *Scheduler) intervalLoop(ctx context.Context) {
	for {
		next := NextIntervalFire(s.nowFunc(), s.cfg.IntervalHours, s.loc)
		wait := next.Sub(s.nowFunc())
		if wait < 0 {
			wait = 0
		}

		log.Debug().
			Time("next_fire", next).
			Dur("wait", wait).
			Msg("Interval trigger sleeping")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Context cancelled, stopping interval trigger")
			return
		case <-s.stopChan:
			timer.Stop()
			log.Info().Msg("Stop signal received, stopping interval trigger")
			return
		case <-timer.C:
			s.RunOnce(ctx, "interval")
		}
	}
}

// RunOnce computes the current target-date window and runs the fetch
// pipeline synchronously. The manual trigger surface calls this directly.
func (s *Scheduler) RunOnce(ctx context.Context, trigger string) pipeline.Result {
	start := s.nowFunc()
	dates := TargetDates(start, s.loc, s.cfg.LookBackDays, s.cfg.LookAheadDays)

	log.Info().
		Str("trigger", trigger).
		Strs("dates", dates).
		Msg("Running fixture sync")

	result := s.pipeline.Run(ctx, dates, s.loc.String())
	metrics.RecordSync(trigger, "success", time.Since(start).Seconds())

	return result
}

// runBackfill invokes the odds backfill as an isolated unit of work:
// a panic or error there is logged and never takes down the scheduler.
// Fire-and-forget, no status propagates back.
func (s *Scheduler) runBackfill(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Odds backfill panicked")
			metrics.RecordError("scheduler", "backfill_panic")
		}
	}()

	if s.backfill == nil {
		log.Warn().Msg("Backfill trigger fired but persistence is disabled")
		return
	}

	log.Info().Msg("Running scheduled odds backfill...")
	updated, err := s.backfill.Run(ctx, nil, s.cfg.BackfillLimit)
	if err != nil {
		log.Error().Err(err).Msg("Odds backfill failed")
		metrics.RecordBackfill("error")
		return
	}

	log.Info().Int("updated", updated).Msg("Odds backfill complete")
	metrics.RecordBackfill("success")
}
