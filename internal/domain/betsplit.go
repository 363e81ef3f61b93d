package domain

import "time"

// PublicBetSplit is exogenous data: the percentage of public wagers on each
// side of one market for a game. It is read-only from this system's
// perspective and consumed only by the fade detector.
type PublicBetSplit struct {
	GameID     string    `json:"game_id"`
	Market     Market    `json:"market"`
	HomePct    float64   `json:"home_pct"` // over side for totals
	AwayPct    float64   `json:"away_pct"` // under side for totals
	CapturedAt time.Time `json:"captured_at"`
}

// PublicSide returns the side the public majority is on and its percentage.
// For totals, HomePct carries the over percentage.
func (s PublicBetSplit) PublicSide() (Side, float64) {
	overUnder := s.Market == MarketTotal
	if s.HomePct >= s.AwayPct {
		if overUnder {
			return SideOver, s.HomePct
		}
		return SideHome, s.HomePct
	}
	if overUnder {
		return SideUnder, s.AwayPct
	}
	return SideAway, s.AwayPct
}

// FadeItem is a game where the public consensus and the model pick disagree.
type FadeItem struct {
	Game      Game    `json:"game"`
	Market    Market  `json:"market"`
	PublicOn  Side    `json:"public_on"`
	PublicPct float64 `json:"public_pct"`
	ModelPick Pick    `json:"model_pick"`
}
