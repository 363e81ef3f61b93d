package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/platform/oddsapi"
	"github.com/tgrayson/oddsmith/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOddsFetcher struct {
	events map[domain.League][]oddsapi.Event
	raw    []byte
	failOn domain.League
	calls  []domain.League
}

func (f *fakeOddsFetcher) GetOdds(_ context.Context, league domain.League) ([]oddsapi.Event, []byte, error) {
	f.calls = append(f.calls, league)
	if league == f.failOn {
		return nil, nil, errors.New("upstream down")
	}
	return f.events[league], f.raw, nil
}

type fakeIngester struct {
	batches map[domain.League][]service.ProviderGame
}

func (f *fakeIngester) IngestGames(_ context.Context, league domain.League, records []service.ProviderGame) (service.IngestSummary, error) {
	if f.batches == nil {
		f.batches = make(map[domain.League][]service.ProviderGame)
	}
	f.batches[league] = append(f.batches[league], records...)
	return service.IngestSummary{
		League:       league,
		Total:        len(records),
		Inserted:     len(records),
		QuotesStored: len(records),
	}, nil
}

type fakeFadeScanner struct {
	items []domain.FadeItem
	calls int
}

func (f *fakeFadeScanner) Fades(_ context.Context, _ service.FadeQuery) ([]domain.FadeItem, error) {
	f.calls++
	return f.items, nil
}

type fakeWaiter struct {
	waits int
}

func (f *fakeWaiter) Wait(_ context.Context, _ string, _ int, _ time.Duration) error {
	f.waits++
	return nil
}

type fakeSnapshotter struct {
	payloads map[domain.League][]byte
}

func (f *fakeSnapshotter) SnapshotRawPayload(_ context.Context, league domain.League, _ time.Time, payload []byte) error {
	if f.payloads == nil {
		f.payloads = make(map[domain.League][]byte)
	}
	f.payloads[league] = payload
	return nil
}

type fakePublisher struct {
	published map[string][][]byte
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if f.published == nil {
		f.published = make(map[string][][]byte)
	}
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakePublisher) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

var _ domain.SignalBus = (*fakePublisher)(nil)

func sampleEvent(id, home, away string) oddsapi.Event {
	return oddsapi.Event{
		ID:           id,
		HomeTeam:     home,
		AwayTeam:     away,
		CommenceTime: time.Now().UTC().Add(6 * time.Hour),
		Bookmakers: []oddsapi.Bookmaker{{
			Key: "draftkings",
			Markets: []oddsapi.MarketRow{{
				Key: "h2h",
				Outcomes: []oddsapi.OutcomeRow{
					{Name: home, Price: -150},
					{Name: away, Price: 130},
				},
			}},
		}},
	}
}

func TestOddsSyncerSweep(t *testing.T) {
	fetcher := &fakeOddsFetcher{
		events: map[domain.League][]oddsapi.Event{
			domain.LeagueNFL: {sampleEvent("ev-1", "Chiefs", "Bills")},
			domain.LeagueNBA: {sampleEvent("ev-2", "Lakers", "Celtics")},
		},
		raw: []byte(`[{"id":"ev-1"}]`),
	}
	ingester := &fakeIngester{}
	waiter := &fakeWaiter{}
	snaps := &fakeSnapshotter{}

	s := NewOddsSyncer(fetcher, ingester, nil, waiter, snaps, nil, OddsSyncerConfig{
		Leagues:     []domain.League{domain.LeagueNFL, domain.LeagueNBA},
		QuotaKey:    "oddsapi",
		QuotaLimit:  5,
		QuotaWindow: time.Minute,
		SnapshotRaw: true,
	}, testLogger())

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if waiter.waits != 2 {
		t.Errorf("quota waits = %d, want 2", waiter.waits)
	}
	nfl := ingester.batches[domain.LeagueNFL]
	if len(nfl) != 1 || nfl[0].ProviderID != "ev-1" || nfl[0].HomeTeam != "Chiefs" {
		t.Fatalf("nfl batch = %+v, want one record for ev-1", nfl)
	}
	if nfl[0].Quote == nil || nfl[0].Quote.MoneylineHome == nil || *nfl[0].Quote.MoneylineHome != -150 {
		t.Errorf("quote not extracted: %+v", nfl[0].Quote)
	}
	if len(snaps.payloads) != 2 {
		t.Errorf("snapshots = %d leagues, want 2", len(snaps.payloads))
	}
}

func TestOddsSyncerContinuesPastFailedLeague(t *testing.T) {
	fetcher := &fakeOddsFetcher{
		events: map[domain.League][]oddsapi.Event{
			domain.LeagueNBA: {sampleEvent("ev-2", "Lakers", "Celtics")},
		},
		failOn: domain.LeagueNFL,
	}
	ingester := &fakeIngester{}

	s := NewOddsSyncer(fetcher, ingester, nil, nil, nil, nil, OddsSyncerConfig{
		Leagues: []domain.League{domain.LeagueNFL, domain.LeagueNBA},
	}, testLogger())

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetch calls = %v, want both leagues attempted", fetcher.calls)
	}
	if len(ingester.batches[domain.LeagueNBA]) != 1 {
		t.Errorf("nba batch missing after nfl failure")
	}
}

func TestOddsSyncerPublishesFades(t *testing.T) {
	scanner := &fakeFadeScanner{items: []domain.FadeItem{{
		Market:    domain.MarketSpread,
		PublicOn:  domain.SideAway,
		PublicPct: 71,
	}}}
	bus := &fakePublisher{}

	s := NewOddsSyncer(&fakeOddsFetcher{}, &fakeIngester{}, scanner, nil, nil, bus, OddsSyncerConfig{
		Leagues:      []domain.League{},
		PublishFades: true,
		FadeQuery:    service.FadeQuery{Days: 1, PublicThreshold: 65, MinConfidence: 55},
	}, testLogger())

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if scanner.calls != 1 {
		t.Fatalf("fade scans = %d, want 1", scanner.calls)
	}
	msgs := bus.published[domain.ChannelFades]
	if len(msgs) != 1 {
		t.Fatalf("fade publishes = %d, want 1", len(msgs))
	}
	var items []domain.FadeItem
	if err := json.Unmarshal(msgs[0], &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].PublicPct != 71 {
		t.Errorf("published items = %+v", items)
	}
}

func TestOddsSyncerNoFadePublishWhenEmpty(t *testing.T) {
	scanner := &fakeFadeScanner{}
	bus := &fakePublisher{}

	s := NewOddsSyncer(&fakeOddsFetcher{}, &fakeIngester{}, scanner, nil, nil, bus, OddsSyncerConfig{
		PublishFades: true,
	}, testLogger())

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(bus.published) != 0 {
		t.Errorf("published = %+v, want nothing for an empty scan", bus.published)
	}
}
