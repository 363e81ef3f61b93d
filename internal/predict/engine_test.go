package predict

import (
	"math"
	"testing"

	"github.com/tgrayson/oddsmith/internal/domain"
)

func iptr(i int) *int         { return &i }
func fptr(f float64) *float64 { return &f }

func TestInferMoneylineFavorite(t *testing.T) {
	q := domain.OddsQuote{
		MoneylineHome: iptr(-150),
		MoneylineAway: iptr(130),
	}
	res := Infer(q)
	if res.Moneyline == nil {
		t.Fatal("expected a moneyline pick")
	}
	if res.Moneyline.Side != domain.SideHome {
		t.Errorf("side = %s, want home", res.Moneyline.Side)
	}
	if got := Score100(res.Moneyline.Confidence); got != 60 {
		t.Errorf("confidence = %d, want 60", got)
	}
}

func TestInferMoneylineTieBreaksHome(t *testing.T) {
	q := domain.OddsQuote{MoneylineHome: iptr(-110), MoneylineAway: iptr(-110)}
	res := Infer(q)
	if res.Moneyline == nil || res.Moneyline.Side != domain.SideHome {
		t.Fatalf("equal implied probabilities must resolve to home, got %+v", res.Moneyline)
	}
}

func TestInferMoneylineAbsent(t *testing.T) {
	tests := []struct {
		name string
		q    domain.OddsQuote
	}{
		{"no prices", domain.OddsQuote{}},
		{"home only", domain.OddsQuote{MoneylineHome: iptr(-150)}},
		{"away only", domain.OddsQuote{MoneylineAway: iptr(120)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := Infer(tt.q); res.Moneyline != nil {
				t.Errorf("expected no moneyline pick, got %+v", res.Moneyline)
			}
		})
	}
}

func TestInferSpreadHomeFavorite(t *testing.T) {
	q := domain.OddsQuote{
		SpreadLine:      fptr(-7),
		SpreadPriceHome: iptr(-110),
		SpreadPriceAway: iptr(-110),
	}
	res := Infer(q)
	if res.Spread == nil {
		t.Fatal("expected a spread pick")
	}
	if res.Spread.Side != domain.SideHome {
		t.Errorf("side = %s, want home", res.Spread.Side)
	}
	if res.Spread.Line == nil || *res.Spread.Line != -7 {
		t.Errorf("line = %v, want -7", res.Spread.Line)
	}
	// 50 base + min(10, 7*5) = 60; no juice bonus at -110.
	if got := Score100(res.Spread.Confidence); got != 60 {
		t.Errorf("confidence = %d, want 60", got)
	}
}

func TestInferSpreadAwayFavorite(t *testing.T) {
	q := domain.OddsQuote{SpreadLine: fptr(3.5)}
	res := Infer(q)
	if res.Spread == nil || res.Spread.Side != domain.SideAway {
		t.Fatalf("positive home line should favor away, got %+v", res.Spread)
	}
	if *res.Spread.Line != -3.5 {
		t.Errorf("away line = %v, want -3.5", *res.Spread.Line)
	}
}

func TestInferSpreadJuiceBonus(t *testing.T) {
	q := domain.OddsQuote{
		SpreadLine:      fptr(-1),
		SpreadPriceHome: iptr(-320),
		SpreadPriceAway: iptr(240),
	}
	res := Infer(q)
	// 50 + min(10, 5) + 10 juice = 65.
	if got := Score100(res.Spread.Confidence); got != 65 {
		t.Errorf("confidence = %d, want 65", got)
	}
}

func TestInferSpreadConfidenceBounds(t *testing.T) {
	lines := []float64{-0.5, -1, -2.5, -7, -14, -28, 0.5, 3, 10, 50, -1000}
	prices := []*int{nil, iptr(-110), iptr(-305), iptr(450)}
	for _, line := range lines {
		for _, hp := range prices {
			for _, ap := range prices {
				q := domain.OddsQuote{SpreadLine: fptr(line), SpreadPriceHome: hp, SpreadPriceAway: ap}
				res := Infer(q)
				if res.Spread == nil {
					t.Fatalf("line %v: expected a pick", line)
				}
				c := Score100(res.Spread.Confidence)
				if c < 50 || c > 75 {
					t.Errorf("line %v prices %v/%v: confidence %d outside [50,75]", line, hp, ap, c)
				}
			}
		}
	}
}

func TestInferSpreadPickEm(t *testing.T) {
	q := domain.OddsQuote{SpreadLine: fptr(0)}
	if res := Infer(q); res.Spread != nil {
		t.Fatalf("zero line is a pick-em, expected no spread pick, got %+v", res.Spread)
	}
}

func TestInferTotalCheaperSide(t *testing.T) {
	q := domain.OddsQuote{
		TotalLine:  fptr(47.5),
		OverPrice:  iptr(-105),
		UnderPrice: iptr(-115),
	}
	res := Infer(q)
	if res.Total == nil {
		t.Fatal("expected a total pick")
	}
	if res.Total.Side != domain.SideOver {
		t.Errorf("side = %s, want over (cheaper price)", res.Total.Side)
	}
	if *res.Total.Line != 47.5 {
		t.Errorf("line = %v, want 47.5", *res.Total.Line)
	}
	if got := Score100(res.Total.Confidence); got < 55 {
		t.Errorf("confidence = %d, want >= 55", got)
	}
}

func TestInferTotalUnderCheaper(t *testing.T) {
	q := domain.OddsQuote{
		TotalLine:  fptr(210),
		OverPrice:  iptr(-120),
		UnderPrice: iptr(100),
	}
	res := Infer(q)
	if res.Total.Side != domain.SideUnder {
		t.Errorf("side = %s, want under", res.Total.Side)
	}
}

func TestInferTotalLineOnlyFallback(t *testing.T) {
	q := domain.OddsQuote{TotalLine: fptr(47.5)}
	res := Infer(q)
	if res.Total == nil {
		t.Fatal("expected the line-only fallback pick")
	}
	if res.Total.Side != domain.SideOver {
		t.Errorf("side = %s, want over", res.Total.Side)
	}
	if got := Score100(res.Total.Confidence); got != 58 {
		t.Errorf("fallback confidence = %d, want exactly 58", got)
	}
	if *res.Total.Line != 47.5 {
		t.Errorf("line = %v, want 47.5", *res.Total.Line)
	}
}

func TestInferEmptyQuote(t *testing.T) {
	res := Infer(domain.OddsQuote{})
	if !res.Empty() {
		t.Fatalf("empty quote must produce an all-nil result, got %+v", res)
	}
}

func TestBaselineHomeWinProb(t *testing.T) {
	tests := []struct {
		name   string
		home   *int
		away   *int
		spread *float64
		want   float64
	}{
		{"no inputs", nil, nil, nil, 0.5},
		{"home ml only", iptr(-150), nil, nil, 0.6},
		{"away ml complement", nil, iptr(-150), nil, 0.4},
		{"spread nudge", nil, nil, fptr(-2.5), 0.5 + 2.5/25.0},
		{"nudge capped", nil, nil, fptr(-20), 0.62},
		{"positive spread nudges down", nil, nil, fptr(5), 0.5 - 5.0/25.0},
		{"ml plus spread", iptr(-150), nil, fptr(-3), 0.6 + 3.0/25.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaselineHomeWinProb(tt.home, tt.away, tt.spread)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBaselineClampedForExtremeSpreads(t *testing.T) {
	for _, spread := range []float64{-10000, -500, 500, 10000, math.Inf(-1), math.Inf(1)} {
		got := BaselineHomeWinProb(iptr(-10000), nil, &spread)
		if got < 0 || got > 1 {
			t.Errorf("spread %v: probability %v outside [0,1]", spread, got)
		}
	}
}
