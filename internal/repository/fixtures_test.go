//go:build integration

package repository

import (
	"database/sql"
	"testing"
	"time"

	"bc_tele/datafetcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFixture(id int64, home, away string) *models.Fixture {
	return &models.Fixture{
		FixtureID:   id,
		FixtureDate: sql.NullTime{Time: time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC), Valid: true},
		StatusShort: sql.NullString{String: "NS", Valid: true},
		LeagueName:  sql.NullString{String: "Premier League", Valid: true},
		HomeName:    sql.NullString{String: home, Valid: true},
		AwayName:    sql.NullString{String: away, Valid: true},
		TeamsVS:     home + " VS " + away,
	}
}

func TestFixtureRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	fixture := testFixture(1000, "Arsenal", "Chelsea")
	require.NoError(t, db.Fixtures.Upsert(ctx, fixture))

	retrieved, err := db.Fixtures.GetByFixtureID(ctx, 1000)
	require.NoError(t, err, "Should retrieve fixture")
	assert.Equal(t, "Arsenal VS Chelsea", retrieved.TeamsVS)
	assert.Equal(t, "NS", retrieved.StatusShort.String)
	assert.False(t, retrieved.HomeOdd.Valid, "Odds start out null")

	// Update status and score
	fixture.StatusShort = sql.NullString{String: "FT", Valid: true}
	fixture.GoalsHome = sql.NullInt32{Int32: 2, Valid: true}
	fixture.GoalsAway = sql.NullInt32{Int32: 1, Valid: true}
	require.NoError(t, db.Fixtures.Upsert(ctx, fixture))

	updated, err := db.Fixtures.GetByFixtureID(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, "FT", updated.StatusShort.String)
	assert.Equal(t, int32(2), updated.GoalsHome.Int32)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestFixtureRepository_Upsert_PreservesOdds(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	fixture := testFixture(1001, "Liverpool", "Everton")
	require.NoError(t, db.Fixtures.Upsert(ctx, fixture))
	require.NoError(t, db.Fixtures.UpdateOdds(ctx, 1001, "2.1", "3.4", "3.2"))

	// A later sync of the same fixture must not clear the derived odds
	fixture.StatusShort = sql.NullString{String: "1H", Valid: true}
	require.NoError(t, db.Fixtures.Upsert(ctx, fixture))

	retrieved, err := db.Fixtures.GetByFixtureID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "1H", retrieved.StatusShort.String)
	assert.Equal(t, "2.1", retrieved.HomeOdd.String)
	assert.Equal(t, "3.4", retrieved.AwayOdd.String)
	assert.Equal(t, "3.2", retrieved.DrawOdd.String)
}

func TestFixtureRepository_UpsertBatch(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	batch := []*models.Fixture{
		testFixture(2001, "Team A", "Team B"),
		testFixture(2002, "Team C", "Team D"),
		testFixture(2003, "Team E", "Team F"),
	}

	written, err := db.Fixtures.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	// Re-running the same batch is effectively a no-op
	written, err = db.Fixtures.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	count, err := db.Fixtures.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestFixtureRepository_UpsertBatch_Empty(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	written, err := db.Fixtures.UpsertBatch(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
}

func TestFixtureRepository_ListOddsCandidates(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	for _, id := range []int64{3003, 3001, 3002} {
		require.NoError(t, db.Fixtures.Upsert(ctx, testFixture(id, "Home", "Away")))
	}
	// 3002 is complete and must not be selected
	require.NoError(t, db.Fixtures.UpdateOdds(ctx, 3002, "2.0", "3.0", "3.5"))

	ids, err := db.Fixtures.ListOddsCandidates(ctx, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3001, 3003}, ids, "incomplete fixtures, oldest id first")

	// Limit caps the selection
	ids, err = db.Fixtures.ListOddsCandidates(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3001}, ids)

	// Explicit id wins even when the fixture is complete
	explicit := int64(3002)
	ids, err = db.Fixtures.ListOddsCandidates(ctx, &explicit, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3002}, ids)
}

func TestFixtureRepository_ListOddsCandidates_SentinelIsComplete(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Fixtures.Upsert(ctx, testFixture(3100, "Home", "Away")))
	require.NoError(t, db.Fixtures.UpdateOdds(ctx, 3100,
		models.OddsNotFound, models.OddsNotFound, models.OddsNotFound))

	ids, err := db.Fixtures.ListOddsCandidates(ctx, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, ids, "a confirmed-absent fixture is not retried")
}

func TestFixtureRepository_UpdateOdds_MissingFixture(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.Fixtures.UpdateOdds(ctx, 999999, "2.0", "3.0", "3.5")
	require.Error(t, err)
}

func TestFixtureRepository_EnsureOddsColumns(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Columns already exist as TEXT; repeat runs must be no-ops
	require.NoError(t, db.Fixtures.EnsureOddsColumns(ctx))
	require.NoError(t, db.Fixtures.EnsureOddsColumns(ctx))

	// Simulate an older deployment that created a numeric column
	_, err := db.Pool.Exec(ctx, `ALTER TABLE api_football_fixtures DROP COLUMN home_odd`)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `ALTER TABLE api_football_fixtures ADD COLUMN home_odd NUMERIC`)
	require.NoError(t, err)

	require.NoError(t, db.Fixtures.EnsureOddsColumns(ctx))

	var dataType string
	err = db.Pool.QueryRow(ctx, `
		SELECT data_type FROM information_schema.columns
		WHERE table_name = 'api_football_fixtures' AND column_name = 'home_odd'
	`).Scan(&dataType)
	require.NoError(t, err)
	assert.Equal(t, "text", dataType)
}

func TestFixtureRepository_SearchSimilar(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	fixtures := []*models.Fixture{
		testFixture(4001, "Manchester United", "Liverpool"),
		testFixture(4002, "Manchester City", "Arsenal"),
		testFixture(4003, "Real Madrid", "Barcelona"),
	}
	_, err := db.Fixtures.UpsertBatch(ctx, fixtures)
	require.NoError(t, err)

	results, err := db.Fixtures.SearchSimilar(ctx, "manchester united liverpool", 0.3, 20)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(4001), results[0].FixtureID, "best match first")
	assert.Greater(t, results[0].Similarity, 0.3)
}

func TestFixtureRepository_SearchSubstring(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	fixtures := []*models.Fixture{
		testFixture(4101, "Manchester United", "Liverpool"),
		testFixture(4102, "Real Madrid", "Barcelona"),
	}
	_, err := db.Fixtures.UpsertBatch(ctx, fixtures)
	require.NoError(t, err)

	results, err := db.Fixtures.SearchSubstring(ctx, "liverpool", 20)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(4101), results[0].FixtureID)
	assert.Equal(t, "Manchester United VS Liverpool", results[0].TeamsVS)

	// No hits is an empty result, not an error
	results, err = db.Fixtures.SearchSubstring(ctx, "juventus", 20)
	require.NoError(t, err)
	assert.Empty(t, results)
}
