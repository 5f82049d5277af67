package models

import (
	"fmt"
	"strconv"
	"strings"
)

// OddsNotFound is the sentinel stored when an odds lookup ran but no
// canonical bookmaker offered a price. It is distinct from NULL, which
// means the lookup has not been attempted yet.
const OddsNotFound = "not found"

// OddsField is the three-state value of a derived odds column.
type OddsField struct {
	Known bool
	Price float64
}

// Found returns an OddsField carrying a price
func Found(price float64) OddsField {
	return OddsField{Known: true, Price: price}
}

// Text renders the field as stored in the database: a %g-formatted price,
// or the explicit sentinel when confirmed absent.
func (o OddsField) Text() string {
	if !o.Known {
		return OddsNotFound
	}
	return fmt.Sprintf("%g", o.Price)
}

// AggregatedOdds is the mean match-winner price triple for one fixture,
// each outcome independently absent when no canonical bookmaker quoted it.
type AggregatedOdds struct {
	FixtureID int64
	Home      *float64
	Away      *float64
	Draw      *float64
}

// HomeField converts the home outcome to its column representation
func (a *AggregatedOdds) HomeField() OddsField { return toField(a.Home) }

// AwayField converts the away outcome to its column representation
func (a *AggregatedOdds) AwayField() OddsField { return toField(a.Away) }

// DrawField converts the draw outcome to its column representation
func (a *AggregatedOdds) DrawField() OddsField { return toField(a.Draw) }

func toField(v *float64) OddsField {
	if v == nil {
		return OddsField{}
	}
	return Found(*v)
}

// OddsResponse is the envelope of the API-Football /odds endpoint
type OddsResponse struct {
	Results  int         `json:"results"`
	Response []OddsEntry `json:"response"`
}

type OddsEntry struct {
	Fixture    *OddsFixtureRef `json:"fixture"`
	Bookmakers []BookmakerNode `json:"bookmakers"`
}

type OddsFixtureRef struct {
	ID *int64 `json:"id"`
}

type BookmakerNode struct {
	ID   *int32    `json:"id"`
	Name *string   `json:"name"`
	Bets []BetNode `json:"bets"`
}

type BetNode struct {
	ID     *int32         `json:"id"`
	Name   *string        `json:"name"`
	Values []BetValueNode `json:"values"`
}

type BetValueNode struct {
	Value *string     `json:"value"`
	Odd   interface{} `json:"odd"` // upstream sends either a string or a number
}

// CanonicalBookmaker maps a raw bookmaker name onto the canonical set.
// Unrecognized names return "" and are excluded from aggregation.
func CanonicalBookmaker(name *string) string {
	if name == nil {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(*name)) {
	case "william hill", "williamhill":
		return "William Hill"
	case "bet365", "bet 365":
		return "Bet365"
	case "ladbrokes", "立博":
		return "Ladbrokes"
	}
	return ""
}

// MatchWinnerQuote holds one canonical bookmaker's match-winner prices
type MatchWinnerQuote struct {
	BookmakerID   int32
	BookmakerName string
	Home          *float64
	Away          *float64
	Draw          *float64
}

// MatchWinnerQuotes walks the odds response and extracts the match-winner
// market from canonical bookmakers only. Outcome labels are aliased:
// home/1/w1, away/2/w2, draw/x.
func (r *OddsResponse) MatchWinnerQuotes() (int64, []MatchWinnerQuote) {
	var fixtureID int64
	var quotes []MatchWinnerQuote

	for _, entry := range r.Response {
		if fixtureID == 0 && entry.Fixture != nil && entry.Fixture.ID != nil {
			fixtureID = *entry.Fixture.ID
		}
		for _, bm := range entry.Bookmakers {
			cname := CanonicalBookmaker(bm.Name)
			if cname == "" {
				continue
			}
			for _, bet := range bm.Bets {
				if bet.Name == nil || !strings.EqualFold(strings.TrimSpace(*bet.Name), "match winner") {
					continue
				}
				q := MatchWinnerQuote{BookmakerName: cname}
				if bm.ID != nil {
					q.BookmakerID = *bm.ID
				}
				for _, v := range bet.Values {
					price := parseOdd(v.Odd)
					if price == nil || v.Value == nil {
						continue
					}
					switch strings.ToLower(strings.TrimSpace(*v.Value)) {
					case "home", "1", "w1":
						q.Home = price
					case "away", "2", "w2":
						q.Away = price
					case "draw", "x":
						q.Draw = price
					}
				}
				quotes = append(quotes, q)
			}
		}
	}

	return fixtureID, quotes
}

// AggregateMatchWinner reduces canonical bookmaker quotes to the arithmetic
// mean per outcome. An outcome no bookmaker priced stays nil, never zero.
func AggregateMatchWinner(fixtureID int64, quotes []MatchWinnerQuote) *AggregatedOdds {
	var home, away, draw []float64
	for _, q := range quotes {
		if q.Home != nil {
			home = append(home, *q.Home)
		}
		if q.Away != nil {
			away = append(away, *q.Away)
		}
		if q.Draw != nil {
			draw = append(draw, *q.Draw)
		}
	}

	return &AggregatedOdds{
		FixtureID: fixtureID,
		Home:      mean(home),
		Away:      mean(away),
		Draw:      mean(draw),
	}
}

func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	m := sum / float64(len(vals))
	return &m
}

func parseOdd(raw interface{}) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}
