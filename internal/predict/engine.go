// Package predict derives picks and win probabilities from odds quotes. The
// heuristics are deterministic closed forms over quoted prices, not a trained
// model; the constants are uncalibrated and preserved as-is for behavioral
// stability across releases.
package predict

import (
	"math"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/oddsmath"
)

// Spread confidence heuristic constants. Bigger spreads and bigger juice
// correlate with more lopsided markets; none of these values are derived from
// data.
const (
	spreadBaseConfidence = 0.50
	spreadLineScale      = 0.05 // per point of |line|
	spreadLineBonusCap   = 0.10
	spreadJuiceThreshold = 300 // price magnitude that triggers the juice bonus
	spreadJuiceBonus     = 0.10
	spreadConfidenceCap  = 0.75
)

// Total market constants.
const (
	totalMinConfidence      = 0.55
	totalLineOnlyConfidence = 0.58 // low-information fallback, not a real inference
)

// MarketPick is one market's recommendation with confidence in [0,1].
type MarketPick struct {
	Side       domain.Side
	Line       *float64
	Confidence float64
}

// Result holds at most one pick per market. A nil market means the required
// prices were absent, which is expected and non-exceptional.
type Result struct {
	Moneyline *MarketPick
	Spread    *MarketPick
	Total     *MarketPick
}

// Empty reports whether no market produced a pick.
func (r Result) Empty() bool {
	return r.Moneyline == nil && r.Spread == nil && r.Total == nil
}

// Score100 converts an engine-internal confidence to the 0-100 integer
// surfaced at the boundary.
func Score100(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// Infer produces per-market picks for a single odds quote. Absent markets
// yield nil entries rather than errors.
func Infer(q domain.OddsQuote) Result {
	return Result{
		Moneyline: inferMoneyline(q),
		Spread:    inferSpread(q),
		Total:     inferTotal(q),
	}
}

// inferMoneyline picks the side with the higher raw implied probability. The
// two sides are deliberately not cross-normalized here, so the confidence
// still carries the book's vig; ties break to home.
func inferMoneyline(q domain.OddsQuote) *MarketPick {
	home := oddsmath.ImpliedPtr(q.MoneylineHome)
	away := oddsmath.ImpliedPtr(q.MoneylineAway)
	if home == nil || away == nil {
		return nil
	}
	if *home >= *away {
		return &MarketPick{Side: domain.SideHome, Confidence: *home}
	}
	return &MarketPick{Side: domain.SideAway, Confidence: *away}
}

// inferSpread reads the favorite straight off the sign of the home-relative
// line. Confidence starts at 0.50, gains up to +0.10 scaled by the size of
// the line, gains a flat +0.10 when either side's juice magnitude reaches
// 300, and never exceeds 0.75.
func inferSpread(q domain.OddsQuote) *MarketPick {
	if q.SpreadLine == nil {
		return nil
	}
	line := *q.SpreadLine
	if line == 0 {
		// Pick-em: the market names no favorite.
		return nil
	}

	conf := spreadBaseConfidence
	conf += math.Min(spreadLineBonusCap, math.Abs(line)*spreadLineScale)
	if heavyJuice(q.SpreadPriceHome) || heavyJuice(q.SpreadPriceAway) {
		conf += spreadJuiceBonus
	}
	conf = math.Min(conf, spreadConfidenceCap)

	mag := math.Abs(line)
	if line < 0 {
		homeLine := -mag
		return &MarketPick{Side: domain.SideHome, Line: &homeLine, Confidence: conf}
	}
	awayLine := -mag // favorite framed from the picked side's perspective
	return &MarketPick{Side: domain.SideAway, Line: &awayLine, Confidence: conf}
}

func heavyJuice(price *int) bool {
	if price == nil {
		return false
	}
	mag := *price
	if mag < 0 {
		mag = -mag
	}
	return mag >= spreadJuiceThreshold
}

// inferTotal leans on the book's price asymmetry: when both sides are priced,
// the cheaper (smaller American) side is taken as the market maker's lean.
// With only a line and no prices, it defaults to OVER at a fixed 0.58.
func inferTotal(q domain.OddsQuote) *MarketPick {
	if q.TotalLine == nil {
		return nil
	}
	line := *q.TotalLine

	if q.OverPrice == nil || q.UnderPrice == nil {
		return &MarketPick{Side: domain.SideOver, Line: &line, Confidence: totalLineOnlyConfidence}
	}

	over := oddsmath.ImpliedPtr(q.OverPrice)
	under := oddsmath.ImpliedPtr(q.UnderPrice)
	if over == nil || under == nil {
		return &MarketPick{Side: domain.SideOver, Line: &line, Confidence: totalLineOnlyConfidence}
	}

	conf := math.Max(totalMinConfidence, math.Round(math.Max(*over, *under)*100)/100)

	side := domain.SideOver
	if *q.UnderPrice > *q.OverPrice {
		// Under is the cheaper price (e.g. -105 vs the over's -115).
		side = domain.SideUnder
	}
	return &MarketPick{Side: side, Line: &line, Confidence: conf}
}
