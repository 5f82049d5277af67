package pipeline

import (
	"context"
	"errors"
	"testing"

	"bc_tele/datafetcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	responses map[string]*models.FixturesResponse
	errs      map[string]error
	calls     []string
}

func (f *fakeFetcher) FetchFixturesByDate(ctx context.Context, date, timezone string) (*models.FixturesResponse, error) {
	f.calls = append(f.calls, date)
	if err := f.errs[date]; err != nil {
		return nil, err
	}
	if resp, ok := f.responses[date]; ok {
		return resp, nil
	}
	return &models.FixturesResponse{}, nil
}

type fakeStore struct {
	batches [][]*models.Fixture
	err     error
}

func (s *fakeStore) UpsertBatch(ctx context.Context, fixtures []*models.Fixture) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, fixtures)
	return len(fixtures), nil
}

func fixtureInput(id int64) models.FixtureInput {
	return models.FixtureInput{
		Fixture: &models.FixtureNode{ID: &id},
	}
}

func TestPipeline_Run(t *testing.T) {
	fetcher := &fakeFetcher{
		responses: map[string]*models.FixturesResponse{
			"2024-03-15": {Response: []models.FixtureInput{fixtureInput(1), fixtureInput(2)}},
		},
		errs: map[string]error{
			"2024-03-14": errors.New("upstream unavailable"),
		},
	}
	store := &fakeStore{}
	p := New(fetcher, store)

	result := p.Run(context.Background(), []string{"2024-03-14", "2024-03-15", "2024-03-16"}, "UTC")

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, []string{"2024-03-14", "2024-03-15", "2024-03-16"}, result.Dates)
	assert.Equal(t, "UTC", result.Timezone)

	// Failed date is skipped but the rest of the window is still attempted.
	assert.Equal(t, []string{"2024-03-14", "2024-03-15", "2024-03-16"}, fetcher.calls)

	require.Len(t, store.batches, 1, "empty dates do not write a batch")
	assert.Len(t, store.batches[0], 2)
}

func TestPipeline_Run_StoreFailureSkipsDate(t *testing.T) {
	fetcher := &fakeFetcher{
		responses: map[string]*models.FixturesResponse{
			"2024-03-15": {Response: []models.FixtureInput{fixtureInput(1)}},
		},
	}
	store := &fakeStore{err: errors.New("connection reset")}
	p := New(fetcher, store)

	result := p.Run(context.Background(), []string{"2024-03-15"}, "UTC")

	assert.Equal(t, 0, result.Written)
}

func TestPipeline_Run_FetchOnly(t *testing.T) {
	fetcher := &fakeFetcher{
		responses: map[string]*models.FixturesResponse{
			"2024-03-15": {Response: []models.FixtureInput{fixtureInput(1), fixtureInput(2)}},
		},
	}
	p := New(fetcher, nil)

	result := p.Run(context.Background(), []string{"2024-03-15"}, "UTC")

	assert.Equal(t, 0, result.Written, "nil store fetches but never writes")
	assert.Equal(t, []string{"2024-03-15"}, fetcher.calls)
}

func TestPipeline_Run_EmptyWindow(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := New(fetcher, &fakeStore{})

	result := p.Run(context.Background(), nil, "UTC")

	assert.Equal(t, 0, result.Written)
	assert.Empty(t, fetcher.calls)
}
