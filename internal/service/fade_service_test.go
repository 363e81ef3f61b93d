package service

import (
	"context"
	"testing"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

type fadeFixture struct {
	svc    *FadeService
	games  *fakeGameStore
	picks  *fakePickStore
	splits *fakeBetSplitStore
}

func newFadeFixture() *fadeFixture {
	games := newFakeGameStore()
	picks := newFakePickStore(games)
	splits := newFakeBetSplitStore()
	svc := NewFadeService(games, picks, splits, testLogger())
	return &fadeFixture{svc: svc, games: games, picks: picks, splits: splits}
}

func (fx *fadeFixture) seed(t *testing.T, id string, pick domain.Pick, split domain.PublicBetSplit) {
	t.Helper()
	ctx := context.Background()
	_, _, err := fx.games.Upsert(ctx, domain.Game{
		ID: id, League: domain.LeagueNFL, HomeTeam: "Home " + id, AwayTeam: "Away " + id,
		StartTime: time.Now().UTC().Add(6 * time.Hour), Status: domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatal(err)
	}
	pick.GameID = id
	pick.SourceTag = sourceTagModel
	if _, _, err := fx.picks.Upsert(ctx, pick); err != nil {
		t.Fatal(err)
	}
	split.GameID = id
	split.CapturedAt = time.Now().UTC()
	if err := fx.splits.Upsert(ctx, split); err != nil {
		t.Fatal(err)
	}
}

func TestFadesDetectsDisagreement(t *testing.T) {
	fx := newFadeFixture()

	// Public is 70% on away; the model likes home with confidence 65. Fade.
	fx.seed(t, "g1",
		domain.Pick{ID: "p1", Market: domain.MarketSpread, Side: domain.SideHome, Line: fptr(-3), Confidence: 65},
		domain.PublicBetSplit{Market: domain.MarketSpread, HomePct: 30, AwayPct: 70})
	// Public and model agree: not a fade.
	fx.seed(t, "g2",
		domain.Pick{ID: "p2", Market: domain.MarketSpread, Side: domain.SideAway, Line: fptr(-3), Confidence: 70},
		domain.PublicBetSplit{Market: domain.MarketSpread, HomePct: 25, AwayPct: 75})
	// Disagreement but model confidence below the floor: not a fade.
	fx.seed(t, "g3",
		domain.Pick{ID: "p3", Market: domain.MarketSpread, Side: domain.SideHome, Line: fptr(-1), Confidence: 52},
		domain.PublicBetSplit{Market: domain.MarketSpread, HomePct: 20, AwayPct: 80})
	// Public consensus below the threshold: not a fade.
	fx.seed(t, "g4",
		domain.Pick{ID: "p4", Market: domain.MarketSpread, Side: domain.SideHome, Line: fptr(-2), Confidence: 68},
		domain.PublicBetSplit{Market: domain.MarketSpread, HomePct: 48, AwayPct: 52})

	items, err := fx.svc.Fades(context.Background(), FadeQuery{
		League: domain.LeagueNFL, Days: 1, PublicThreshold: 60, MinConfidence: 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("fades = %d, want 1", len(items))
	}
	got := items[0]
	if got.Game.ID != "g1" || got.PublicOn != domain.SideAway || got.PublicPct != 70 {
		t.Errorf("fade = %+v, want g1 public on away at 70", got)
	}
	if got.ModelPick.Side != domain.SideHome {
		t.Errorf("model pick side = %s, want home", got.ModelPick.Side)
	}
}

func TestFadesSortedByPublicPctDesc(t *testing.T) {
	fx := newFadeFixture()

	fx.seed(t, "ga",
		domain.Pick{ID: "pa", Market: domain.MarketMoneyline, Side: domain.SideHome, Confidence: 62},
		domain.PublicBetSplit{Market: domain.MarketMoneyline, HomePct: 35, AwayPct: 65})
	fx.seed(t, "gb",
		domain.Pick{ID: "pb", Market: domain.MarketMoneyline, Side: domain.SideHome, Confidence: 62},
		domain.PublicBetSplit{Market: domain.MarketMoneyline, HomePct: 12, AwayPct: 88})
	fx.seed(t, "gc",
		domain.Pick{ID: "pc", Market: domain.MarketMoneyline, Side: domain.SideHome, Confidence: 62},
		domain.PublicBetSplit{Market: domain.MarketMoneyline, HomePct: 28, AwayPct: 72})

	items, err := fx.svc.Fades(context.Background(), FadeQuery{
		League: domain.LeagueNFL, Days: 1, PublicThreshold: 60, MinConfidence: 55,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("fades = %d, want 3", len(items))
	}
	want := []string{"gb", "gc", "ga"}
	for i, id := range want {
		if items[i].Game.ID != id {
			t.Errorf("position %d = %s, want %s (sorted by public pct desc)", i, items[i].Game.ID, id)
		}
	}
}

func TestFadesTotalsUseOverUnderSides(t *testing.T) {
	fx := newFadeFixture()

	// HomePct carries the over percentage for totals. Public 75% over, model
	// likes the under.
	fx.seed(t, "gt",
		domain.Pick{ID: "pt", Market: domain.MarketTotal, Side: domain.SideUnder, Line: fptr(210.5), Confidence: 61},
		domain.PublicBetSplit{Market: domain.MarketTotal, HomePct: 75, AwayPct: 25})

	items, err := fx.svc.Fades(context.Background(), FadeQuery{
		League: domain.LeagueNFL, Days: 1, PublicThreshold: 65, MinConfidence: 55,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].PublicOn != domain.SideOver {
		t.Fatalf("fades = %+v, want one with the public on the over", items)
	}
}

func TestFadesValidation(t *testing.T) {
	fx := newFadeFixture()
	ctx := context.Background()

	cases := []FadeQuery{
		{League: domain.League("xfl"), Days: 1, PublicThreshold: 60, MinConfidence: 55},
		{League: domain.LeagueNFL, Days: 0, PublicThreshold: 60, MinConfidence: 55},
		{League: domain.LeagueNFL, Days: 1, PublicThreshold: 45, MinConfidence: 55},
		{League: domain.LeagueNFL, Days: 1, PublicThreshold: 101, MinConfidence: 55},
		{League: domain.LeagueNFL, Days: 1, PublicThreshold: 60, MinConfidence: 101},
	}
	for i, q := range cases {
		if _, err := fx.svc.Fades(ctx, q); err == nil {
			t.Errorf("case %d: expected a validation error", i)
		}
	}
}

func TestFadesAllLeaguesWhenUnfiltered(t *testing.T) {
	fx := newFadeFixture()
	ctx := context.Background()

	// One NFL fade via the helper plus one NBA fade seeded by hand.
	fx.seed(t, "g-nfl",
		domain.Pick{ID: "p-nfl", Market: domain.MarketMoneyline, Side: domain.SideHome, Confidence: 62},
		domain.PublicBetSplit{Market: domain.MarketMoneyline, HomePct: 30, AwayPct: 70})

	g, _, err := fx.games.Upsert(ctx, domain.Game{
		ID: "g-nba", League: domain.LeagueNBA, HomeTeam: "Knicks", AwayTeam: "Heat",
		StartTime: time.Now().UTC().Add(3 * time.Hour), Status: domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := fx.picks.Upsert(ctx, domain.Pick{
		ID: "p-nba", GameID: g.ID, Market: domain.MarketMoneyline, Side: domain.SideAway,
		Confidence: 66, SourceTag: sourceTagModel,
	}); err != nil {
		t.Fatal(err)
	}
	if err := fx.splits.Upsert(ctx, domain.PublicBetSplit{
		GameID: g.ID, Market: domain.MarketMoneyline, HomePct: 81, AwayPct: 19, CapturedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	items, err := fx.svc.Fades(ctx, FadeQuery{Days: 1, PublicThreshold: 60, MinConfidence: 55})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("fades = %d, want both leagues", len(items))
	}
	if items[0].Game.ID != "g-nba" {
		t.Errorf("first fade = %s, want the 81%% NBA game first", items[0].Game.ID)
	}
}
