package scheduler

import (
	"context"
	"testing"
	"time"

	"bc_tele/datafetcher/internal/config"
	"bc_tele/datafetcher/internal/models"
	"bc_tele/datafetcher/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	dates []string
}

func (f *stubFetcher) FetchFixturesByDate(ctx context.Context, date, timezone string) (*models.FixturesResponse, error) {
	f.dates = append(f.dates, date)
	return &models.FixturesResponse{}, nil
}

type panicBackfill struct{}

func (panicBackfill) Run(ctx context.Context, fixtureID *int64, limit int) (int, error) {
	panic("boom")
}

type countingBackfill struct {
	runs      int
	lastLimit int
}

func (b *countingBackfill) Run(ctx context.Context, fixtureID *int64, limit int) (int, error) {
	b.runs++
	b.lastLimit = limit
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Timezone:      "UTC",
		LookBackDays:  1,
		LookAheadDays: 1,
		IntervalHours: 6,
		BackfillHour:  2,
		BackfillLimit: 25,
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	fetcher := &stubFetcher{}
	s := NewScheduler(testConfig(), pipeline.New(fetcher, nil), nil)
	s.nowFunc = func() time.Time {
		return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	}

	result := s.RunOnce(context.Background(), "manual")

	assert.Equal(t, []string{"2024-03-14", "2024-03-15", "2024-03-16"}, result.Dates)
	assert.Equal(t, "UTC", result.Timezone)
	assert.Equal(t, result.Dates, fetcher.dates, "every window date is fetched")
}

func TestScheduler_RunBackfill(t *testing.T) {
	backfill := &countingBackfill{}
	s := NewScheduler(testConfig(), pipeline.New(&stubFetcher{}, nil), backfill)

	s.runBackfill(context.Background())

	assert.Equal(t, 1, backfill.runs)
	assert.Equal(t, 25, backfill.lastLimit)
}

func TestScheduler_RunBackfill_NilRunner(t *testing.T) {
	s := NewScheduler(testConfig(), pipeline.New(&stubFetcher{}, nil), nil)

	// Must not panic when persistence is disabled
	s.runBackfill(context.Background())
}

func TestScheduler_RunBackfill_PanicIsolated(t *testing.T) {
	s := NewScheduler(testConfig(), pipeline.New(&stubFetcher{}, nil), panicBackfill{})

	require.NotPanics(t, func() {
		s.runBackfill(context.Background())
	})
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(testConfig(), pipeline.New(&stubFetcher{}, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	s.Stop()
}
