package domain

import "time"

// Outcome is the settled result of a pick.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// GradeResult records the outcome of a pick once its game reaches final
// status. Exactly one row exists per (pick, market); grading an already
// settled pick is a no-op.
type GradeResult struct {
	PickID    string    `json:"pick_id"`
	Market    Market    `json:"market"`
	Outcome   Outcome   `json:"outcome"`
	SettledAt time.Time `json:"settled_at"`
}
