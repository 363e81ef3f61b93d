package domain

import (
	"fmt"
	"time"
)

// Market is the betting market a pick belongs to.
type Market string

const (
	MarketMoneyline Market = "moneyline"
	MarketSpread    Market = "spread"
	MarketTotal     Market = "total"
)

// Side is the side of a market a pick recommends.
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Pick is a derived recommendation for one game in one market. Confidence is
// the 0-100 boundary representation; the inference engine works in [0,1]
// internally. A pick becomes immutable once a grade row exists for it.
type Pick struct {
	ID         string    `json:"id"`
	GameID     string    `json:"game_id"`
	Market     Market    `json:"market"`
	Side       Side      `json:"side"`
	Line       *float64  `json:"line,omitempty"` // spread or total number, nil for moneyline
	Confidence int       `json:"confidence"`
	SourceTag  string    `json:"source_tag"`
	CreatedAt  time.Time `json:"created_at"`
}

// Label renders the pick the way the client UIs display it,
// e.g. "HOME", "HOME -7", "OVER 47.5".
func (p Pick) Label() string {
	side := map[Side]string{
		SideHome: "HOME", SideAway: "AWAY",
		SideOver: "OVER", SideUnder: "UNDER",
	}[p.Side]
	if p.Line == nil {
		return side
	}
	if p.Market == MarketSpread {
		return fmt.Sprintf("%s %+g", side, *p.Line)
	}
	return fmt.Sprintf("%s %g", side, *p.Line)
}
