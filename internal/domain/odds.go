package domain

import "time"

// OddsQuote is a snapshot of market prices for one game at one capture time.
// Every price field is optional: a nil pointer means the market was not offered,
// which downstream consumers must treat as "no market", never as zero.
//
// Prices follow the American odds convention (signed integers). The spread line
// is home-relative: negative means the home side is favored.
type OddsQuote struct {
	ID         int64     `json:"id"`
	GameID     string    `json:"game_id"`
	CapturedAt time.Time `json:"captured_at"`

	MoneylineHome *int `json:"moneyline_home,omitempty"`
	MoneylineAway *int `json:"moneyline_away,omitempty"`

	SpreadLine      *float64 `json:"spread_line,omitempty"`
	SpreadPriceHome *int     `json:"spread_price_home,omitempty"`
	SpreadPriceAway *int     `json:"spread_price_away,omitempty"`

	TotalLine  *float64 `json:"total_line,omitempty"`
	OverPrice  *int     `json:"over_price,omitempty"`
	UnderPrice *int     `json:"under_price,omitempty"`
}
