package models

import (
	"database/sql"
	"time"
)

// Fixture is the flat row stored in the api_football_fixtures table.
// It always holds the latest known upstream state; repeated upserts
// overwrite every column except the derived odds fields.
type Fixture struct {
	FixtureID        int64          `db:"fixture_id"`
	FixtureDate      sql.NullTime   `db:"fixture_date"`
	FixtureTimezone  sql.NullString `db:"fixture_timezone"`
	FixtureTimestamp sql.NullInt64  `db:"fixture_timestamp"`
	VenueID          sql.NullInt64  `db:"venue_id"`
	VenueName        sql.NullString `db:"venue_name"`
	VenueCity        sql.NullString `db:"venue_city"`
	StatusLong       sql.NullString `db:"status_long"`
	StatusShort      sql.NullString `db:"status_short"`
	StatusElapsed    sql.NullInt32  `db:"status_elapsed"`
	Referee          sql.NullString `db:"referee"`
	PeriodFirst      sql.NullInt64  `db:"period_first"`
	PeriodSecond     sql.NullInt64  `db:"period_second"`

	LeagueID        sql.NullInt32  `db:"league_id"`
	LeagueName      sql.NullString `db:"league_name"`
	LeagueCountry   sql.NullString `db:"league_country"`
	LeagueSeason    sql.NullInt32  `db:"league_season"`
	LeagueRound     sql.NullString `db:"league_round"`
	LeagueLogo      sql.NullString `db:"league_logo"`
	LeagueFlag      sql.NullString `db:"league_flag"`
	LeagueStandings sql.NullBool   `db:"league_standings"`

	HomeID     sql.NullInt32  `db:"home_id"`
	HomeName   sql.NullString `db:"home_name"`
	HomeLogo   sql.NullString `db:"home_logo"`
	HomeWinner sql.NullBool   `db:"home_winner"`
	AwayID     sql.NullInt32  `db:"away_id"`
	AwayName   sql.NullString `db:"away_name"`
	AwayLogo   sql.NullString `db:"away_logo"`
	AwayWinner sql.NullBool   `db:"away_winner"`

	GoalsHome sql.NullInt32 `db:"goals_home"`
	GoalsAway sql.NullInt32 `db:"goals_away"`

	ScoreHalftimeHome  sql.NullInt32 `db:"score_halftime_home"`
	ScoreHalftimeAway  sql.NullInt32 `db:"score_halftime_away"`
	ScoreFulltimeHome  sql.NullInt32 `db:"score_fulltime_home"`
	ScoreFulltimeAway  sql.NullInt32 `db:"score_fulltime_away"`
	ScoreExtratimeHome sql.NullInt32 `db:"score_extratime_home"`
	ScoreExtratimeAway sql.NullInt32 `db:"score_extratime_away"`
	ScorePenaltyHome   sql.NullInt32 `db:"score_penalty_home"`
	ScorePenaltyAway   sql.NullInt32 `db:"score_penalty_away"`

	TeamsVS string `db:"teams_vs"`

	// Derived odds columns, written only by the backfill reconciler.
	// NULL means not yet attempted; the "not found" sentinel means a
	// lookup ran and confirmed no price exists.
	HomeOdd sql.NullString `db:"home_odd"`
	AwayOdd sql.NullString `db:"away_odd"`
	DrawOdd sql.NullString `db:"draw_odd"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// FixtureInput mirrors one element of the API-Football /fixtures response.
// Every field is a pointer so that partially-populated payloads decode
// without error; completeness varies with match status and tournament tier.
type FixtureInput struct {
	Fixture *FixtureNode `json:"fixture"`
	League  *LeagueNode  `json:"league"`
	Teams   *TeamsNode   `json:"teams"`
	Goals   *GoalsNode   `json:"goals"`
	Score   *ScoreNode   `json:"score"`
}

type FixtureNode struct {
	ID        *int64       `json:"id"`
	Referee   *string      `json:"referee"`
	Timezone  *string      `json:"timezone"`
	Date      *string      `json:"date"`
	Timestamp *int64       `json:"timestamp"`
	Periods   *PeriodsNode `json:"periods"`
	Venue     *VenueNode   `json:"venue"`
	Status    *StatusNode  `json:"status"`
}

type PeriodsNode struct {
	First  *int64 `json:"first"`
	Second *int64 `json:"second"`
}

type VenueNode struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
	City *string `json:"city"`
}

type StatusNode struct {
	Long    *string `json:"long"`
	Short   *string `json:"short"`
	Elapsed *int32  `json:"elapsed"`
}

type LeagueNode struct {
	ID        *int32  `json:"id"`
	Name      *string `json:"name"`
	Country   *string `json:"country"`
	Logo      *string `json:"logo"`
	Flag      *string `json:"flag"`
	Season    *int32  `json:"season"`
	Round     *string `json:"round"`
	Standings *bool   `json:"standings"`
}

type TeamsNode struct {
	Home *TeamNode `json:"home"`
	Away *TeamNode `json:"away"`
}

type TeamNode struct {
	ID     *int32  `json:"id"`
	Name   *string `json:"name"`
	Logo   *string `json:"logo"`
	Winner *bool   `json:"winner"`
}

type GoalsNode struct {
	Home *int32 `json:"home"`
	Away *int32 `json:"away"`
}

type ScoreNode struct {
	Halftime  *GoalsNode `json:"halftime"`
	Fulltime  *GoalsNode `json:"fulltime"`
	Extratime *GoalsNode `json:"extratime"`
	Penalty   *GoalsNode `json:"penalty"`
}

// FixturesResponse is the envelope of the /fixtures endpoint
type FixturesResponse struct {
	Results  int            `json:"results"`
	Response []FixtureInput `json:"response"`
}

// ToFixture flattens a FixtureInput into a Fixture row. It is total over
// well-formed input: any missing node or leaf becomes a null column, and
// the teams_vs label is produced even when both team names are absent.
func (fi *FixtureInput) ToFixture() *Fixture {
	row := &Fixture{}

	if f := fi.Fixture; f != nil {
		if f.ID != nil {
			row.FixtureID = *f.ID
		}
		row.FixtureTimezone = nullString(f.Timezone)
		row.FixtureTimestamp = nullInt64(f.Timestamp)
		row.Referee = nullString(f.Referee)

		if f.Date != nil {
			if t, err := time.Parse(time.RFC3339, *f.Date); err == nil {
				row.FixtureDate = sql.NullTime{Time: t, Valid: true}
			}
		}
		if p := f.Periods; p != nil {
			row.PeriodFirst = nullInt64(p.First)
			row.PeriodSecond = nullInt64(p.Second)
		}
		if v := f.Venue; v != nil {
			row.VenueID = nullInt64(v.ID)
			row.VenueName = nullString(v.Name)
			row.VenueCity = nullString(v.City)
		}
		if st := f.Status; st != nil {
			row.StatusLong = nullString(st.Long)
			row.StatusShort = nullString(st.Short)
			row.StatusElapsed = nullInt32(st.Elapsed)
		}
	}

	if l := fi.League; l != nil {
		row.LeagueID = nullInt32(l.ID)
		row.LeagueName = nullString(l.Name)
		row.LeagueCountry = nullString(l.Country)
		row.LeagueSeason = nullInt32(l.Season)
		row.LeagueRound = nullString(l.Round)
		row.LeagueLogo = nullString(l.Logo)
		row.LeagueFlag = nullString(l.Flag)
		row.LeagueStandings = nullBool(l.Standings)
	}

	var homeName, awayName string
	if t := fi.Teams; t != nil {
		if h := t.Home; h != nil {
			row.HomeID = nullInt32(h.ID)
			row.HomeName = nullString(h.Name)
			row.HomeLogo = nullString(h.Logo)
			row.HomeWinner = nullBool(h.Winner)
			if h.Name != nil {
				homeName = *h.Name
			}
		}
		if a := t.Away; a != nil {
			row.AwayID = nullInt32(a.ID)
			row.AwayName = nullString(a.Name)
			row.AwayLogo = nullString(a.Logo)
			row.AwayWinner = nullBool(a.Winner)
			if a.Name != nil {
				awayName = *a.Name
			}
		}
	}
	row.TeamsVS = homeName + " VS " + awayName

	if g := fi.Goals; g != nil {
		row.GoalsHome = nullInt32(g.Home)
		row.GoalsAway = nullInt32(g.Away)
	}

	if s := fi.Score; s != nil {
		if ht := s.Halftime; ht != nil {
			row.ScoreHalftimeHome = nullInt32(ht.Home)
			row.ScoreHalftimeAway = nullInt32(ht.Away)
		}
		if ft := s.Fulltime; ft != nil {
			row.ScoreFulltimeHome = nullInt32(ft.Home)
			row.ScoreFulltimeAway = nullInt32(ft.Away)
		}
		if et := s.Extratime; et != nil {
			row.ScoreExtratimeHome = nullInt32(et.Home)
			row.ScoreExtratimeAway = nullInt32(et.Away)
		}
		if pn := s.Penalty; pn != nil {
			row.ScorePenaltyHome = nullInt32(pn.Home)
			row.ScorePenaltyAway = nullInt32(pn.Away)
		}
	}

	return row
}

// IsFinished returns true if the match has concluded
func (f *Fixture) IsFinished() bool {
	switch f.StatusShort.String {
	case "FT", "AET", "PEN":
		return f.StatusShort.Valid
	}
	return false
}

// IsLive returns true if the match is currently being played
func (f *Fixture) IsLive() bool {
	switch f.StatusShort.String {
	case "1H", "2H", "HT", "ET", "BT", "P", "LIVE":
		return f.StatusShort.Valid
	}
	return false
}

// HasCompleteOdds reports whether all three derived odds columns carry a
// value (sentinel included). Rows failing this are backfill candidates.
func (f *Fixture) HasCompleteOdds() bool {
	return f.HomeOdd.Valid && f.HomeOdd.String != "" &&
		f.AwayOdd.Valid && f.AwayOdd.String != "" &&
		f.DrawOdd.Valid && f.DrawOdd.String != ""
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt32(i *int32) sql.NullInt32 {
	if i == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: *i, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
