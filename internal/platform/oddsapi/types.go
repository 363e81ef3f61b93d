package oddsapi

import (
	"strings"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// Event is one upcoming or live game as returned by the odds endpoint, with
// nested bookmaker/market/outcome arrays.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's quotes for an event.
type Bookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []MarketRow `json:"markets"`
}

// MarketRow is a single market ("h2h", "spreads", "totals") from one book.
type MarketRow struct {
	Key      string       `json:"key"`
	Outcomes []OutcomeRow `json:"outcomes"`
}

// OutcomeRow is one side of a market. Price is American odds; Point carries
// the spread or total line where applicable.
type OutcomeRow struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// ScoreEvent is one game from the scores endpoint.
type ScoreEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	Completed    bool        `json:"completed"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Scores       []TeamScore `json:"scores"`
}

// TeamScore is one team's score; the API serves it as a string.
type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// sportKeys maps league codes to the provider's sport keys.
var sportKeys = map[domain.League]string{
	domain.LeagueNFL:   "americanfootball_nfl",
	domain.LeagueNCAAF: "americanfootball_ncaaf",
	domain.LeagueNBA:   "basketball_nba",
	domain.LeagueNCAAB: "basketball_ncaab",
	domain.LeagueWNBA:  "basketball_wnba",
	domain.LeagueMLB:   "baseball_mlb",
	domain.LeagueNHL:   "icehockey_nhl",
}

// SportKey returns the provider sport key for a supported league.
func SportKey(l domain.League) (string, bool) {
	k, ok := sportKeys[l]
	return k, ok
}

// ExtractQuote flattens an event's nested bookmaker arrays into a single
// OddsQuote. Policy: the first listed bookmaker's quote is authoritative; no
// best-price shopping or cross-book averaging is attempted. Missing markets
// and unmatched outcome names are left nil.
func (e Event) ExtractQuote(capturedAt time.Time) domain.OddsQuote {
	q := domain.OddsQuote{CapturedAt: capturedAt}
	if len(e.Bookmakers) == 0 {
		return q
	}
	book := e.Bookmakers[0]

	for _, m := range book.Markets {
		switch m.Key {
		case "h2h":
			for _, o := range m.Outcomes {
				price := americanPrice(o.Price)
				if price == nil {
					continue
				}
				switch {
				case teamEquals(o.Name, e.HomeTeam):
					q.MoneylineHome = price
				case teamEquals(o.Name, e.AwayTeam):
					q.MoneylineAway = price
				}
			}
		case "spreads":
			for _, o := range m.Outcomes {
				price := americanPrice(o.Price)
				switch {
				case teamEquals(o.Name, e.HomeTeam):
					q.SpreadPriceHome = price
					if o.Point != nil {
						// The home outcome's point is already home-relative.
						q.SpreadLine = o.Point
					}
				case teamEquals(o.Name, e.AwayTeam):
					q.SpreadPriceAway = price
					if q.SpreadLine == nil && o.Point != nil {
						neg := -*o.Point
						q.SpreadLine = &neg
					}
				}
			}
		case "totals":
			for _, o := range m.Outcomes {
				price := americanPrice(o.Price)
				switch strings.ToLower(o.Name) {
				case "over":
					q.OverPrice = price
					if o.Point != nil {
						q.TotalLine = o.Point
					}
				case "under":
					q.UnderPrice = price
					if q.TotalLine == nil && o.Point != nil {
						q.TotalLine = o.Point
					}
				}
			}
		}
	}
	return q
}

// americanPrice converts the provider's float price field to a signed integer
// American price. Zero means the price was absent from the payload.
func americanPrice(price float64) *int {
	p := int(price)
	if p == 0 {
		return nil
	}
	return &p
}

func teamEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FinalScores returns the home and away scores of a completed score event.
// The bool is false when either team's score is missing or malformed.
func (s ScoreEvent) FinalScores() (home, away int, ok bool) {
	var haveHome, haveAway bool
	for _, ts := range s.Scores {
		n, err := parseScore(ts.Score)
		if err != nil {
			continue
		}
		switch {
		case teamEquals(ts.Name, s.HomeTeam):
			home, haveHome = n, true
		case teamEquals(ts.Name, s.AwayTeam):
			away, haveAway = n, true
		}
	}
	return home, away, haveHome && haveAway
}
