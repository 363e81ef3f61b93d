package domain

import "time"

// GameStatus represents the lifecycle state of a scheduled game.
type GameStatus string

const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusFinal      GameStatus = "final"
)

// Game is a scheduled sporting event. The internal ID is generated once and is
// stable; the provider ID is whatever the odds provider assigned and may change
// representation between endpoints. The dedup identity of a game is the
// (league, home team, away team, start time) tuple enforced by storage.
type Game struct {
	ID         string     `json:"id"`
	ProviderID string     `json:"provider_id"`
	League     League     `json:"league"`
	HomeTeam   string     `json:"home_team"`
	AwayTeam   string     `json:"away_team"`
	StartTime  time.Time  `json:"start_time"` // UTC
	Status     GameStatus `json:"status"`
	HomeScore  *int       `json:"home_score,omitempty"`
	AwayScore  *int       `json:"away_score,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
