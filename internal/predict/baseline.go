package predict

import (
	"math"

	"github.com/tgrayson/oddsmith/internal/oddsmath"
)

// Baseline model calibration constants. The /25 scale and the ±0.12 cap are
// fixed by convention, not fitted to data; changing them changes every
// downstream probability.
const (
	baselineSpreadScale = 25.0
	baselineSpreadCap   = 0.12
)

// BaselineHomeWinProb estimates P(home wins) by anchoring on the moneyline
// implied probability and nudging it with the spread.
//
// The moneyline anchor prefers the home price; with only an away price the
// complement is used; with neither the anchor is 0.5 (maximal uncertainty,
// not an error). homeSpread is the home-relative line; callers holding an
// away-framed spread must negate it first. The nudge is
// clamp(-homeSpread/25, -0.12, +0.12) and the final result is clamped
// to [0,1].
func BaselineHomeWinProb(mlHome, mlAway *int, homeSpread *float64) float64 {
	prob := 0.5
	if p := oddsmath.ImpliedPtr(mlHome); p != nil {
		prob = *p
	} else if p := oddsmath.ImpliedPtr(mlAway); p != nil {
		prob = 1 - *p
	}

	if homeSpread != nil {
		adj := -*homeSpread / baselineSpreadScale
		adj = math.Max(-baselineSpreadCap, math.Min(baselineSpreadCap, adj))
		prob += adj
	}

	return math.Max(0, math.Min(1, prob))
}
