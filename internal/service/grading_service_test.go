package service

import (
	"context"
	"testing"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

type gradingFixture struct {
	svc    *GradingService
	games  *fakeGameStore
	picks  *fakePickStore
	odds   *fakeOddsStore
	grades *fakeGradeStore
	bus    *fakeSignalBus
}

func newGradingFixture() *gradingFixture {
	games := newFakeGameStore()
	odds := newFakeOddsStore()
	picks := newFakePickStore(games)
	grades := newFakeGradeStore()
	bus := newFakeSignalBus()
	svc := NewGradingService(games, picks, odds, grades, bus, testLogger())
	return &gradingFixture{svc: svc, games: games, picks: picks, odds: odds, grades: grades, bus: bus}
}

func yesterdayKickoff() time.Time {
	now := time.Now().UTC()
	day := now.AddDate(0, 0, -1)
	return time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, time.UTC)
}

func (fx *gradingFixture) seedFinalGame(t *testing.T, league domain.League, home, away int, spreadClose *float64) domain.Game {
	t.Helper()
	ctx := context.Background()
	g, _, err := fx.games.Upsert(ctx, domain.Game{
		ID:        "graded-" + string(league),
		League:    league,
		HomeTeam:  "Home",
		AwayTeam:  "Away",
		StartTime: yesterdayKickoff(),
		Status:    domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := fx.games.SetFinal(ctx, g.ID, home, away); err != nil {
		t.Fatal(err)
	}
	if spreadClose != nil {
		if err := fx.odds.Insert(ctx, domain.OddsQuote{
			GameID:     g.ID,
			CapturedAt: yesterdayKickoff().Add(-time.Hour),
			SpreadLine: spreadClose,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestGradeDayTiePushesBothMarkets(t *testing.T) {
	fx := newGradingFixture()
	ctx := context.Background()
	g := fx.seedFinalGame(t, domain.LeagueNFL, 24, 24, fptr(0))

	for _, p := range []domain.Pick{
		{ID: "p-ml", GameID: g.ID, Market: domain.MarketMoneyline, Side: domain.SideHome, Confidence: 60, SourceTag: sourceTagModel},
		{ID: "p-sp", GameID: g.ID, Market: domain.MarketSpread, Side: domain.SideHome, Line: fptr(0), Confidence: 55, SourceTag: sourceTagModel},
	} {
		if _, _, err := fx.picks.Upsert(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := fx.svc.GradeDay(ctx, yesterdayKickoff())
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalUpdated != 2 {
		t.Fatalf("total updated = %d, want 2", summary.TotalUpdated)
	}
	ls := summary.Leagues[domain.LeagueNFL]
	if ls.Outcomes[domain.MarketMoneyline][domain.OutcomePush] != 1 {
		t.Errorf("moneyline outcomes = %v, want one push", ls.Outcomes[domain.MarketMoneyline])
	}
	if ls.Outcomes[domain.MarketSpread][domain.OutcomePush] != 1 {
		t.Errorf("spread outcomes = %v, want one push", ls.Outcomes[domain.MarketSpread])
	}
}

func TestGradeDayIdempotent(t *testing.T) {
	fx := newGradingFixture()
	ctx := context.Background()
	g := fx.seedFinalGame(t, domain.LeagueNBA, 110, 104, nil)

	if _, _, err := fx.picks.Upsert(ctx, domain.Pick{
		ID: "p1", GameID: g.ID, Market: domain.MarketMoneyline, Side: domain.SideHome,
		Confidence: 58, SourceTag: sourceTagModel,
	}); err != nil {
		t.Fatal(err)
	}

	first, err := fx.svc.GradeDay(ctx, yesterdayKickoff())
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalUpdated != 1 {
		t.Fatalf("first run updated = %d, want 1", first.TotalUpdated)
	}

	second, err := fx.svc.GradeDay(ctx, yesterdayKickoff())
	if err != nil {
		t.Fatal(err)
	}
	if second.TotalUpdated != 0 {
		t.Errorf("second run updated = %d, want 0 (write-once grades)", second.TotalUpdated)
	}
	if len(fx.grades.grades) != 1 {
		t.Errorf("grade rows = %d, want 1", len(fx.grades.grades))
	}
}

func TestGradeDaySkipsUnfinishedAndUngradeable(t *testing.T) {
	fx := newGradingFixture()
	ctx := context.Background()

	// Final game with a spread pick but no line anywhere: ungradeable, skipped.
	g := fx.seedFinalGame(t, domain.LeagueNHL, 3, 2, nil)
	if _, _, err := fx.picks.Upsert(ctx, domain.Pick{
		ID: "p-sp", GameID: g.ID, Market: domain.MarketSpread, Side: domain.SideHome,
		Confidence: 55, SourceTag: sourceTagModel,
	}); err != nil {
		t.Fatal(err)
	}

	// A game still in progress on the same day must be left alone.
	unfinished, _, err := fx.games.Upsert(ctx, domain.Game{
		ID: "live", League: domain.LeagueNHL, HomeTeam: "A", AwayTeam: "B",
		StartTime: yesterdayKickoff().Add(time.Hour), Status: domain.GameStatusInProgress,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := fx.picks.Upsert(ctx, domain.Pick{
		ID: "p-live", GameID: unfinished.ID, Market: domain.MarketMoneyline, Side: domain.SideHome,
		Confidence: 60, SourceTag: sourceTagModel,
	}); err != nil {
		t.Fatal(err)
	}

	summary, err := fx.svc.GradeDay(ctx, yesterdayKickoff())
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalUpdated != 0 {
		t.Errorf("updated = %d, want 0", summary.TotalUpdated)
	}
	if len(fx.grades.grades) != 0 {
		t.Errorf("grade rows = %d, want none", len(fx.grades.grades))
	}
}

func TestRecordFinalsDateFilter(t *testing.T) {
	fx := newGradingFixture()
	ctx := context.Background()
	target := yesterdayKickoff()

	g, _, err := fx.games.Upsert(ctx, domain.Game{
		ID: "g1", League: domain.LeagueNFL, HomeTeam: "Home", AwayTeam: "Away",
		StartTime: target, Status: domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := fx.games.MapProvider(ctx, "prov-1", g.ID); err != nil {
		t.Fatal(err)
	}

	applied, failures := fx.svc.RecordFinals(ctx, domain.LeagueNFL, target, []FinalRecord{
		{ProviderID: "prov-1", HomeScore: 27, AwayScore: 20, Kickoff: target},
		// Spillover from the next day: silently skipped, not errored.
		{ProviderID: "prov-spill", HomeScore: 10, AwayScore: 7, Kickoff: target.AddDate(0, 0, 1)},
		// Unknown provider id on the right day: a per-item failure.
		{ProviderID: "prov-unknown", HomeScore: 14, AwayScore: 3, Kickoff: target},
	})
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	if len(failures) != 1 || failures[0].Ref != "prov-unknown" {
		t.Errorf("failures = %+v, want only the unknown provider", failures)
	}

	got, err := fx.games.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.GameStatusFinal || got.HomeScore == nil || *got.HomeScore != 27 {
		t.Errorf("game not finalized: %+v", got)
	}
}

func TestGradeYesterdayPublishesSummary(t *testing.T) {
	fx := newGradingFixture()
	ctx := context.Background()
	g := fx.seedFinalGame(t, domain.LeagueMLB, 5, 3, nil)
	if _, _, err := fx.picks.Upsert(ctx, domain.Pick{
		ID: "p1", GameID: g.ID, Market: domain.MarketMoneyline, Side: domain.SideHome,
		Confidence: 56, SourceTag: sourceTagModel,
	}); err != nil {
		t.Fatal(err)
	}

	summary, err := fx.svc.GradeYesterday(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalUpdated != 1 {
		t.Errorf("updated = %d, want 1", summary.TotalUpdated)
	}
	if fx.bus.onChannel(domain.ChannelGrades) != 1 {
		t.Errorf("grades channel publishes = %d, want 1", fx.bus.onChannel(domain.ChannelGrades))
	}
}
