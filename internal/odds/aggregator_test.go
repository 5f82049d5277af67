package odds

import (
	"context"
	"errors"
	"testing"
	"time"

	"bc_tele/datafetcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOddsFetcher struct {
	resp  *models.OddsResponse
	err   error
	calls int
}

func (f *fakeOddsFetcher) FetchOdds(ctx context.Context, fixtureID int64, bookmakerID int32) (*models.OddsResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func quote(bookmaker, label, odd string) models.BookmakerNode {
	bet := "Match Winner"
	return models.BookmakerNode{
		Name: &bookmaker,
		Bets: []models.BetNode{{
			Name:   &bet,
			Values: []models.BetValueNode{{Value: &label, Odd: odd}},
		}},
	}
}

func TestAggregator_MatchWinner(t *testing.T) {
	id := int64(42)
	fetcher := &fakeOddsFetcher{
		resp: &models.OddsResponse{
			Results: 1,
			Response: []models.OddsEntry{{
				Fixture: &models.OddsFixtureRef{ID: &id},
				Bookmakers: []models.BookmakerNode{
					quote("Bet365", "Home", "2.0"),
					quote("William Hill", "Home", "3.0"),
				},
			}},
		},
	}
	agg := NewAggregator(fetcher, nil, time.Minute)

	got := agg.MatchWinner(context.Background(), 42)

	assert.Equal(t, int64(42), got.FixtureID)
	require.NotNil(t, got.Home)
	assert.InDelta(t, 2.5, *got.Home, 1e-9)
	assert.Nil(t, got.Away)
	assert.Nil(t, got.Draw)
	assert.Equal(t, 1, fetcher.calls)
}

func TestAggregator_MatchWinner_FetchFailure(t *testing.T) {
	fetcher := &fakeOddsFetcher{err: errors.New("timeout")}
	agg := NewAggregator(fetcher, nil, time.Minute)

	got := agg.MatchWinner(context.Background(), 7)

	require.NotNil(t, got, "fetch failure degrades to a triple of nulls")
	assert.Equal(t, int64(7), got.FixtureID)
	assert.Nil(t, got.Home)
	assert.Nil(t, got.Away)
	assert.Nil(t, got.Draw)
}

func TestAggregator_MatchWinner_EmptyResponse(t *testing.T) {
	fetcher := &fakeOddsFetcher{resp: &models.OddsResponse{}}
	agg := NewAggregator(fetcher, nil, time.Minute)

	got := agg.MatchWinner(context.Background(), 9)

	assert.Equal(t, int64(9), got.FixtureID, "fixture id falls back to the request when the payload is empty")
	assert.Nil(t, got.Home)
	assert.Nil(t, got.Away)
	assert.Nil(t, got.Draw)
}
