package oddsapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

const oddsPayload = `[
  {
    "id": "evt1",
    "sport_key": "americanfootball_nfl",
    "commence_time": "2025-11-09T18:00:00Z",
    "home_team": "Kansas City Chiefs",
    "away_team": "Buffalo Bills",
    "bookmakers": [
      {
        "key": "draftkings",
        "title": "DraftKings",
        "last_update": "2025-11-09T12:00:00Z",
        "markets": [
          {
            "key": "h2h",
            "outcomes": [
              {"name": "Kansas City Chiefs", "price": -150},
              {"name": "Buffalo Bills", "price": 130}
            ]
          },
          {
            "key": "spreads",
            "outcomes": [
              {"name": "Kansas City Chiefs", "price": -110, "point": -3.5},
              {"name": "Buffalo Bills", "price": -110, "point": 3.5}
            ]
          },
          {
            "key": "totals",
            "outcomes": [
              {"name": "Over", "price": -105, "point": 47.5},
              {"name": "Under", "price": -115, "point": 47.5}
            ]
          }
        ]
      },
      {
        "key": "fanduel",
        "title": "FanDuel",
        "last_update": "2025-11-09T12:01:00Z",
        "markets": [
          {
            "key": "h2h",
            "outcomes": [
              {"name": "Kansas City Chiefs", "price": -999},
              {"name": "Buffalo Bills", "price": 999}
            ]
          }
        ]
      }
    ]
  }
]`

func TestExtractQuoteFirstBookWins(t *testing.T) {
	var events []Event
	if err := json.Unmarshal([]byte(oddsPayload), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	now := time.Now().UTC()
	q := events[0].ExtractQuote(now)

	if q.CapturedAt != now {
		t.Errorf("captured at = %v, want %v", q.CapturedAt, now)
	}
	if q.MoneylineHome == nil || *q.MoneylineHome != -150 {
		t.Errorf("moneyline home = %v, want -150 from the first book", q.MoneylineHome)
	}
	if q.MoneylineAway == nil || *q.MoneylineAway != 130 {
		t.Errorf("moneyline away = %v, want 130", q.MoneylineAway)
	}
	if q.SpreadLine == nil || *q.SpreadLine != -3.5 {
		t.Errorf("spread line = %v, want -3.5", q.SpreadLine)
	}
	if q.SpreadPriceHome == nil || *q.SpreadPriceHome != -110 {
		t.Errorf("spread home price = %v, want -110", q.SpreadPriceHome)
	}
	if q.TotalLine == nil || *q.TotalLine != 47.5 {
		t.Errorf("total line = %v, want 47.5", q.TotalLine)
	}
	if q.OverPrice == nil || *q.OverPrice != -105 {
		t.Errorf("over price = %v, want -105", q.OverPrice)
	}
	if q.UnderPrice == nil || *q.UnderPrice != -115 {
		t.Errorf("under price = %v, want -115", q.UnderPrice)
	}
}

func TestExtractQuoteNoBooks(t *testing.T) {
	e := Event{HomeTeam: "A", AwayTeam: "B"}
	q := e.ExtractQuote(time.Now())
	if q.MoneylineHome != nil || q.SpreadLine != nil || q.TotalLine != nil {
		t.Errorf("expected an empty quote, got %+v", q)
	}
}

func TestExtractQuotePartialMarkets(t *testing.T) {
	line := 212.5
	e := Event{
		HomeTeam: "Denver Nuggets",
		AwayTeam: "Miami Heat",
		Bookmakers: []Bookmaker{{
			Key: "draftkings",
			Markets: []MarketRow{{
				Key: "totals",
				Outcomes: []OutcomeRow{
					{Name: "Over", Point: &line},
					{Name: "Under", Point: &line},
				},
			}},
		}},
	}
	q := e.ExtractQuote(time.Now())
	if q.TotalLine == nil || *q.TotalLine != 212.5 {
		t.Errorf("total line = %v, want 212.5", q.TotalLine)
	}
	if q.OverPrice != nil || q.UnderPrice != nil {
		t.Error("zero prices must stay nil")
	}
	if q.MoneylineHome != nil || q.SpreadLine != nil {
		t.Error("absent markets must stay nil")
	}
}

func TestFinalScores(t *testing.T) {
	s := ScoreEvent{
		HomeTeam:  "Kansas City Chiefs",
		AwayTeam:  "Buffalo Bills",
		Completed: true,
		Scores: []TeamScore{
			{Name: "Buffalo Bills", Score: "24"},
			{Name: "kansas city chiefs", Score: " 27 "},
		},
	}
	home, away, ok := s.FinalScores()
	if !ok {
		t.Fatal("expected complete scores")
	}
	if home != 27 || away != 24 {
		t.Errorf("got %d-%d, want 27-24", home, away)
	}
}

func TestFinalScoresIncomplete(t *testing.T) {
	tests := []struct {
		name   string
		scores []TeamScore
	}{
		{"empty", nil},
		{"one team only", []TeamScore{{Name: "Home", Score: "10"}}},
		{"malformed score", []TeamScore{{Name: "Home", Score: "10"}, {Name: "Away", Score: "n/a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreEvent{HomeTeam: "Home", AwayTeam: "Away", Scores: tt.scores}
			if _, _, ok := s.FinalScores(); ok {
				t.Error("expected ok=false")
			}
		})
	}
}

func TestSportKeyCoversAllLeagues(t *testing.T) {
	for _, l := range domain.Leagues {
		if _, ok := SportKey(l); !ok {
			t.Errorf("league %s has no sport key", l)
		}
	}
	if _, ok := SportKey(domain.League("xfl")); ok {
		t.Error("unknown league must not resolve")
	}
}
