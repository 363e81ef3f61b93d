// Package oddsmath provides pure conversions between American odds prices and
// probabilities. Nothing here touches I/O or state; every function is
// deterministic over its inputs.
package oddsmath

import (
	"fmt"
	"math"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// Implied converts an American odds price to the win probability it implies,
// ignoring the bookmaker's margin.
//
//	+130 -> 100 / (130 + 100) ≈ 0.4348
//	-150 -> 150 / (150 + 100) = 0.6
//
// A price of exactly 0 is malformed input and returns ErrInvalidOdds; it is
// never silently coerced to a probability.
func Implied(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: 0", domain.ErrInvalidOdds)
	}
	if odds > 0 {
		return 100.0 / (float64(odds) + 100.0), nil
	}
	neg := float64(-odds)
	return neg / (neg + 100.0), nil
}

// ImpliedPtr is the nil-propagating form used where an absent market is an
// expected, non-exceptional condition: a nil price yields a nil probability.
// The input is assumed pre-validated (provider decoding maps missing prices to
// nil and never emits a literal 0).
func ImpliedPtr(odds *int) *float64 {
	if odds == nil {
		return nil
	}
	p, err := Implied(*odds)
	if err != nil {
		return nil
	}
	return &p
}

// NormalizeTwoWay removes the vig from a two-way market by scaling both
// probabilities so they sum to 1. When either input is nil, or their sum is
// non-positive or non-finite, the inputs are returned unchanged: missing
// market data is common and callers proceed with best-effort output rather
// than an error.
func NormalizeTwoWay(a, b *float64) (*float64, *float64) {
	if a == nil || b == nil {
		return a, b
	}
	sum := *a + *b
	if sum <= 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return a, b
	}
	na := *a / sum
	nb := *b / sum
	return &na, &nb
}

// Edge is the signed difference between our probability estimate and the
// market's implied probability. Nil propagates from either input.
func Edge(our, market *float64) *float64 {
	if our == nil || market == nil {
		return nil
	}
	e := *our - *market
	return &e
}
