package repository

import (
	"context"
	"fmt"
	"time"

	"bc_tele/datafetcher/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// FixtureRepository handles fixture database operations
type FixtureRepository struct {
	db *Database
}

const fixtureUpsertQuery = `
	INSERT INTO api_football_fixtures (
		fixture_id, fixture_date, fixture_timezone, fixture_timestamp,
		venue_id, venue_name, venue_city,
		status_long, status_short, status_elapsed, referee,
		period_first, period_second,
		league_id, league_name, league_country, league_season, league_round,
		league_logo, league_flag, league_standings,
		home_id, home_name, home_logo, home_winner,
		away_id, away_name, away_logo, away_winner,
		goals_home, goals_away,
		score_halftime_home, score_halftime_away,
		score_fulltime_home, score_fulltime_away,
		score_extratime_home, score_extratime_away,
		score_penalty_home, score_penalty_away,
		teams_vs
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		$31, $32, $33, $34, $35, $36, $37, $38, $39, $40
	)
	ON CONFLICT (fixture_id) DO UPDATE SET
		fixture_date = EXCLUDED.fixture_date,
		fixture_timezone = EXCLUDED.fixture_timezone,
		fixture_timestamp = EXCLUDED.fixture_timestamp,
		venue_id = EXCLUDED.venue_id,
		venue_name = EXCLUDED.venue_name,
		venue_city = EXCLUDED.venue_city,
		status_long = EXCLUDED.status_long,
		status_short = EXCLUDED.status_short,
		status_elapsed = EXCLUDED.status_elapsed,
		referee = EXCLUDED.referee,
		period_first = EXCLUDED.period_first,
		period_second = EXCLUDED.period_second,
		league_id = EXCLUDED.league_id,
		league_name = EXCLUDED.league_name,
		league_country = EXCLUDED.league_country,
		league_season = EXCLUDED.league_season,
		league_round = EXCLUDED.league_round,
		league_logo = EXCLUDED.league_logo,
		league_flag = EXCLUDED.league_flag,
		league_standings = EXCLUDED.league_standings,
		home_id = EXCLUDED.home_id,
		home_name = EXCLUDED.home_name,
		home_logo = EXCLUDED.home_logo,
		home_winner = EXCLUDED.home_winner,
		away_id = EXCLUDED.away_id,
		away_name = EXCLUDED.away_name,
		away_logo = EXCLUDED.away_logo,
		away_winner = EXCLUDED.away_winner,
		goals_home = EXCLUDED.goals_home,
		goals_away = EXCLUDED.goals_away,
		score_halftime_home = EXCLUDED.score_halftime_home,
		score_halftime_away = EXCLUDED.score_halftime_away,
		score_fulltime_home = EXCLUDED.score_fulltime_home,
		score_fulltime_away = EXCLUDED.score_fulltime_away,
		score_extratime_home = EXCLUDED.score_extratime_home,
		score_extratime_away = EXCLUDED.score_extratime_away,
		score_penalty_home = EXCLUDED.score_penalty_home,
		score_penalty_away = EXCLUDED.score_penalty_away,
		teams_vs = EXCLUDED.teams_vs,
		updated_at = NOW()
`

func fixtureUpsertArgs(f *models.Fixture) []interface{} {
	return []interface{}{
		f.FixtureID, f.FixtureDate, f.FixtureTimezone, f.FixtureTimestamp,
		f.VenueID, f.VenueName, f.VenueCity,
		f.StatusLong, f.StatusShort, f.StatusElapsed, f.Referee,
		f.PeriodFirst, f.PeriodSecond,
		f.LeagueID, f.LeagueName, f.LeagueCountry, f.LeagueSeason, f.LeagueRound,
		f.LeagueLogo, f.LeagueFlag, f.LeagueStandings,
		f.HomeID, f.HomeName, f.HomeLogo, f.HomeWinner,
		f.AwayID, f.AwayName, f.AwayLogo, f.AwayWinner,
		f.GoalsHome, f.GoalsAway,
		f.ScoreHalftimeHome, f.ScoreHalftimeAway,
		f.ScoreFulltimeHome, f.ScoreFulltimeAway,
		f.ScoreExtratimeHome, f.ScoreExtratimeAway,
		f.ScorePenaltyHome, f.ScorePenaltyAway,
		f.TeamsVS,
	}
}

// Upsert inserts or updates a single fixture. The derived odds columns are
// never written here; only the backfill reconciler touches them.
func (r *FixtureRepository) Upsert(ctx context.Context, fixture *models.Fixture) error {
	_, err := r.db.Pool.Exec(ctx, fixtureUpsertQuery, fixtureUpsertArgs(fixture)...)
	if err != nil {
		return fmt.Errorf("failed to upsert fixture: %w", err)
	}
	return nil
}

// UpsertBatch writes an ordered batch of fixtures inside one transaction and
// returns the number of rows processed. A failure rolls back the entire
// batch; previously committed batches are unaffected. Re-running the same
// batch is a no-op in effect.
func (r *FixtureRepository) UpsertBatch(ctx context.Context, fixtures []*models.Fixture) (int, error) {
	if len(fixtures) == 0 {
		return 0, nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	count := 0
	for _, fixture := range fixtures {
		if _, err := tx.Exec(ctx, fixtureUpsertQuery, fixtureUpsertArgs(fixture)...); err != nil {
			return 0, fmt.Errorf("failed to upsert fixture %d: %w", fixture.FixtureID, err)
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit fixture batch: %w", err)
	}

	log.Debug().Int("count", count).Msg("Fixture batch upserted")
	return count, nil
}

const fixtureSelectColumns = `
	fixture_id, fixture_date, fixture_timezone, fixture_timestamp,
	venue_id, venue_name, venue_city,
	status_long, status_short, status_elapsed, referee,
	period_first, period_second,
	league_id, league_name, league_country, league_season, league_round,
	league_logo, league_flag, league_standings,
	home_id, home_name, home_logo, home_winner,
	away_id, away_name, away_logo, away_winner,
	goals_home, goals_away,
	score_halftime_home, score_halftime_away,
	score_fulltime_home, score_fulltime_away,
	score_extratime_home, score_extratime_away,
	score_penalty_home, score_penalty_away,
	teams_vs, home_odd, away_odd, draw_odd, created_at, updated_at
`

func scanFixture(row pgx.Row) (*models.Fixture, error) {
	var f models.Fixture
	err := row.Scan(
		&f.FixtureID, &f.FixtureDate, &f.FixtureTimezone, &f.FixtureTimestamp,
		&f.VenueID, &f.VenueName, &f.VenueCity,
		&f.StatusLong, &f.StatusShort, &f.StatusElapsed, &f.Referee,
		&f.PeriodFirst, &f.PeriodSecond,
		&f.LeagueID, &f.LeagueName, &f.LeagueCountry, &f.LeagueSeason, &f.LeagueRound,
		&f.LeagueLogo, &f.LeagueFlag, &f.LeagueStandings,
		&f.HomeID, &f.HomeName, &f.HomeLogo, &f.HomeWinner,
		&f.AwayID, &f.AwayName, &f.AwayLogo, &f.AwayWinner,
		&f.GoalsHome, &f.GoalsAway,
		&f.ScoreHalftimeHome, &f.ScoreHalftimeAway,
		&f.ScoreFulltimeHome, &f.ScoreFulltimeAway,
		&f.ScoreExtratimeHome, &f.ScoreExtratimeAway,
		&f.ScorePenaltyHome, &f.ScorePenaltyAway,
		&f.TeamsVS, &f.HomeOdd, &f.AwayOdd, &f.DrawOdd, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByFixtureID retrieves a fixture by its upstream id
func (r *FixtureRepository) GetByFixtureID(ctx context.Context, fixtureID int64) (*models.Fixture, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_football_fixtures WHERE fixture_id = $1`, fixtureSelectColumns)

	fixture, err := scanFixture(r.db.Pool.QueryRow(ctx, query, fixtureID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("fixture not found: fixture_id=%d", fixtureID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fixture: %w", err)
	}

	return fixture, nil
}

// ListOddsCandidates returns fixture ids whose derived odds columns are
// incomplete, oldest id first, optionally capped. When an explicit fixture
// id is given it is returned regardless of completeness.
func (r *FixtureRepository) ListOddsCandidates(ctx context.Context, fixtureID *int64, limit int) ([]int64, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if fixtureID != nil {
		rows, err = r.db.Pool.Query(ctx,
			`SELECT fixture_id FROM api_football_fixtures WHERE fixture_id = $1`, *fixtureID)
	} else {
		query := `
			SELECT fixture_id
			FROM api_football_fixtures
			WHERE home_odd IS NULL OR home_odd = ''
			   OR away_odd IS NULL OR away_odd = ''
			   OR draw_odd IS NULL OR draw_odd = ''
			ORDER BY fixture_id ASC
		`
		if limit > 0 {
			query += ` LIMIT $1`
			rows, err = r.db.Pool.Query(ctx, query, limit)
		} else {
			rows, err = r.db.Pool.Query(ctx, query)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list odds candidates: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fixture id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixture ids: %w", err)
	}

	log.Debug().Int("count", len(ids)).Msg("Odds candidates selected")
	return ids, nil
}

// UpdateOdds writes the three derived odds columns for one fixture. Each
// call commits independently so a later failure loses at most one row.
func (r *FixtureRepository) UpdateOdds(ctx context.Context, fixtureID int64, home, away, draw string) error {
	query := `
		UPDATE api_football_fixtures
		SET home_odd = $1, away_odd = $2, draw_odd = $3, updated_at = NOW()
		WHERE fixture_id = $4
	`

	result, err := r.db.Pool.Exec(ctx, query, home, away, draw, fixtureID)
	if err != nil {
		return fmt.Errorf("failed to update odds: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("fixture not found: fixture_id=%d", fixtureID)
	}

	return nil
}

// EnsureOddsColumns additively guarantees the derived odds columns exist
// with a text-compatible type, converting in place when an older deployment
// created them numeric. Never drops or rewrites row data.
func (r *FixtureRepository) EnsureOddsColumns(ctx context.Context) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = 'api_football_fixtures'
		  AND column_name IN ('home_odd', 'away_odd', 'draw_odd')
	`)
	if err != nil {
		return fmt.Errorf("failed to inspect odds columns: %w", err)
	}

	existing := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		existing[name] = dataType
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating column info: %w", err)
	}

	for _, col := range []string{"home_odd", "away_odd", "draw_odd"} {
		dataType, ok := existing[col]
		if !ok {
			stmt := fmt.Sprintf(`ALTER TABLE api_football_fixtures ADD COLUMN %s TEXT`, col)
			if _, err := r.db.Pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column %s: %w", col, err)
			}
			continue
		}
		switch dataType {
		case "text", "character varying", "varchar":
			// already text-compatible
		default:
			stmt := fmt.Sprintf(`ALTER TABLE api_football_fixtures ALTER COLUMN %s TYPE TEXT USING %s::text`, col, col)
			if _, err := r.db.Pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to convert column %s to text: %w", col, err)
			}
		}
	}

	return nil
}

// SearchResult is one hit of a teams_vs search
type SearchResult struct {
	FixtureID   int64      `json:"fixture_id"`
	TeamsVS     string     `json:"teams_vs"`
	LeagueName  string     `json:"league_name,omitempty"`
	FixtureDate *time.Time `json:"fixture_date,omitempty"`
	Similarity  float64    `json:"similarity,omitempty"`
}

// SearchSimilar returns fixtures whose teams_vs label exceeds the given
// trigram similarity threshold against the keyword, best match first.
// set_limit is per-connection, so threshold and query share one connection.
func (r *FixtureRepository) SearchSimilar(ctx context.Context, keyword string, threshold float64, limit int) ([]SearchResult, error) {
	conn, err := r.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT set_limit($1::float4)`, threshold); err != nil {
		return nil, fmt.Errorf("failed to set similarity threshold: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT fixture_id, teams_vs, league_name, fixture_date, similarity(teams_vs, $1) AS sim
		FROM api_football_fixtures
		WHERE teams_vs % $1
		ORDER BY sim DESC
		LIMIT $2
	`, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run similarity search: %w", err)
	}
	defer rows.Close()

	return collectSearchResults(rows, true)
}

// SearchSubstring is the case-insensitive substring fallback, most recent
// fixtures first with null dates last.
func (r *FixtureRepository) SearchSubstring(ctx context.Context, keyword string, limit int) ([]SearchResult, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT fixture_id, teams_vs, league_name, fixture_date
		FROM api_football_fixtures
		WHERE teams_vs ILIKE '%' || $1 || '%'
		ORDER BY fixture_date DESC NULLS LAST
		LIMIT $2
	`, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run substring search: %w", err)
	}
	defer rows.Close()

	return collectSearchResults(rows, false)
}

func collectSearchResults(rows pgx.Rows, withSimilarity bool) ([]SearchResult, error) {
	var results []SearchResult
	for rows.Next() {
		var (
			res        SearchResult
			teamsVS    *string
			leagueName *string
			date       *time.Time
		)

		var err error
		if withSimilarity {
			err = rows.Scan(&res.FixtureID, &teamsVS, &leagueName, &date, &res.Similarity)
		} else {
			err = rows.Scan(&res.FixtureID, &teamsVS, &leagueName, &date)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}

		if teamsVS != nil {
			res.TeamsVS = *teamsVS
		}
		if leagueName != nil {
			res.LeagueName = *leagueName
		}
		res.FixtureDate = date
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// Count returns the total number of fixtures
func (r *FixtureRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_football_fixtures`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count fixtures: %w", err)
	}

	return count, nil
}
