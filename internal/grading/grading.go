// Package grading settles picks against final scores. The outcome functions
// are pure; orchestration, idempotency, and storage live in the service layer.
package grading

import "github.com/tgrayson/oddsmith/internal/domain"

// FinalScore is one graded game's inputs: the final score plus the lines that
// were on offer at close.
type FinalScore struct {
	GameID      string
	HomeScore   int
	AwayScore   int
	SpreadClose *float64 // home-relative line at close
	TotalClose  *float64
}

// Moneyline settles the outright-winner market for the given side.
// Equal scores are a push, which matters for sports that permit ties.
func Moneyline(side domain.Side, homeScore, awayScore int) domain.Outcome {
	if homeScore == awayScore {
		return domain.OutcomePush
	}
	homeWon := homeScore > awayScore
	if (side == domain.SideHome) == homeWon {
		return domain.OutcomeWin
	}
	return domain.OutcomeLoss
}

// Spread settles the handicap market: the home side covers when
// homeScore + line exceeds awayScore, and the margin exactly cancelling the
// line is a push.
func Spread(side domain.Side, homeScore, awayScore int, line float64) domain.Outcome {
	adjusted := float64(homeScore) + line
	away := float64(awayScore)
	if adjusted == away {
		return domain.OutcomePush
	}
	homeCovered := adjusted > away
	if (side == domain.SideHome) == homeCovered {
		return domain.OutcomeWin
	}
	return domain.OutcomeLoss
}

// Total settles the over/under market against the combined score, pushing on
// exact equality with the line.
func Total(side domain.Side, homeScore, awayScore int, line float64) domain.Outcome {
	combined := float64(homeScore + awayScore)
	if combined == line {
		return domain.OutcomePush
	}
	wentOver := combined > line
	if (side == domain.SideOver) == wentOver {
		return domain.OutcomeWin
	}
	return domain.OutcomeLoss
}

// Settle resolves one pick against a final score. The second return is false
// when the pick's market cannot be graded from the available close lines
// (e.g. a spread pick with no closing spread recorded).
func Settle(p domain.Pick, fs FinalScore) (domain.Outcome, bool) {
	switch p.Market {
	case domain.MarketMoneyline:
		return Moneyline(p.Side, fs.HomeScore, fs.AwayScore), true
	case domain.MarketSpread:
		line := fs.SpreadClose
		if line == nil {
			line = p.Line // fall back to the line the pick was made at
		}
		if line == nil {
			return "", false
		}
		// Pick lines are framed from the picked side; grading needs the
		// home-relative frame, which the closing line already is.
		if fs.SpreadClose == nil && p.Side == domain.SideAway {
			neg := -*line
			line = &neg
		}
		return Spread(p.Side, fs.HomeScore, fs.AwayScore, *line), true
	case domain.MarketTotal:
		line := fs.TotalClose
		if line == nil {
			line = p.Line
		}
		if line == nil {
			return "", false
		}
		return Total(p.Side, fs.HomeScore, fs.AwayScore, *line), true
	default:
		return "", false
	}
}
