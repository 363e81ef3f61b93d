package oddsmath

import (
	"errors"
	"math"
	"testing"

	"github.com/tgrayson/oddsmith/internal/domain"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func TestImplied(t *testing.T) {
	tests := []struct {
		odds int
		want float64
	}{
		{-150, 0.6},
		{130, 100.0 / 230.0},
		{-110, 110.0 / 210.0},
		{100, 0.5},
		{-100, 0.5},
		{2000, 100.0 / 2100.0},
		{-10000, 10000.0 / 10100.0},
	}
	for _, tt := range tests {
		got, err := Implied(tt.odds)
		if err != nil {
			t.Fatalf("Implied(%d): unexpected error %v", tt.odds, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Implied(%d) = %v, want %v", tt.odds, got, tt.want)
		}
		if got <= 0 || got >= 1 {
			t.Errorf("Implied(%d) = %v, outside (0,1)", tt.odds, got)
		}
	}
}

func TestImpliedZeroIsInvalid(t *testing.T) {
	_, err := Implied(0)
	if !errors.Is(err, domain.ErrInvalidOdds) {
		t.Fatalf("Implied(0) error = %v, want ErrInvalidOdds", err)
	}
}

func TestImpliedPtrNilPropagates(t *testing.T) {
	if got := ImpliedPtr(nil); got != nil {
		t.Fatalf("ImpliedPtr(nil) = %v, want nil", *got)
	}
	got := ImpliedPtr(iptr(-150))
	if got == nil || math.Abs(*got-0.6) > 1e-12 {
		t.Fatalf("ImpliedPtr(-150) = %v, want 0.6", got)
	}
}

func TestVigPairDoesNotSumToOne(t *testing.T) {
	// A real two-sided quote carries vig: -150/+130 implies 0.6 + 0.4348 > 1.
	home, _ := Implied(-150)
	away, _ := Implied(130)
	if home+away <= 1 {
		t.Fatalf("expected vigged pair to sum above 1, got %v", home+away)
	}
}

func TestNormalizeTwoWay(t *testing.T) {
	home, _ := Implied(-150)
	away, _ := Implied(130)

	nh, na := NormalizeTwoWay(&home, &away)
	if nh == nil || na == nil {
		t.Fatal("normalized pair should be non-nil")
	}
	if math.Abs(*nh+*na-1.0) > 1e-12 {
		t.Errorf("normalized pair sums to %v, want 1", *nh+*na)
	}
	if *nh <= *na {
		t.Errorf("favorite should keep the larger share: %v vs %v", *nh, *na)
	}
}

func TestNormalizeTwoWayFallbacks(t *testing.T) {
	tests := []struct {
		name string
		a, b *float64
	}{
		{"nil a", nil, fptr(0.5)},
		{"nil b", fptr(0.5), nil},
		{"both nil", nil, nil},
		{"zero sum", fptr(0), fptr(0)},
		{"negative sum", fptr(-0.2), fptr(0.1)},
		{"infinite sum", fptr(math.Inf(1)), fptr(0.5)},
		{"nan", fptr(math.NaN()), fptr(0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := NormalizeTwoWay(tt.a, tt.b)
			if a != tt.a || b != tt.b {
				t.Errorf("expected inputs returned unchanged")
			}
		})
	}
}

func TestEdge(t *testing.T) {
	got := Edge(fptr(0.58), fptr(0.52))
	if got == nil || math.Abs(*got-0.06) > 1e-12 {
		t.Fatalf("Edge = %v, want 0.06", got)
	}
	if Edge(nil, fptr(0.5)) != nil || Edge(fptr(0.5), nil) != nil {
		t.Fatal("Edge should propagate nil")
	}
}
