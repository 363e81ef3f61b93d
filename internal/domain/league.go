package domain

import "fmt"

// League identifies one of the supported sports leagues.
type League string

const (
	LeagueNFL   League = "nfl"
	LeagueNBA   League = "nba"
	LeagueMLB   League = "mlb"
	LeagueNHL   League = "nhl"
	LeagueNCAAF League = "ncaaf"
	LeagueNCAAB League = "ncaab"
	LeagueWNBA  League = "wnba"
)

// Leagues is the fixed set of supported league codes, in display order.
var Leagues = []League{
	LeagueNFL, LeagueNBA, LeagueMLB, LeagueNHL,
	LeagueNCAAF, LeagueNCAAB, LeagueWNBA,
}

// ParseLeague validates a league code from an external boundary. Unknown codes
// are rejected with ErrInvalidArgument before any storage access happens.
func ParseLeague(s string) (League, error) {
	for _, l := range Leagues {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported league %q", ErrInvalidArgument, s)
}
