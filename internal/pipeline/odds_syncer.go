// Package pipeline contains the background loops: odds syncing, score
// polling, daily grading, and cold-storage archival. The orchestrator runs
// them concurrently and ties their lifetimes to one context.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/platform/oddsapi"
	"github.com/tgrayson/oddsmith/internal/service"
)

// OddsFetcher retrieves current odds for a league from the provider. The raw
// response body is returned alongside the decoded events for archival.
type OddsFetcher interface {
	GetOdds(ctx context.Context, league domain.League) ([]oddsapi.Event, []byte, error)
}

// GameIngester reconciles a batch of provider game records into the store.
type GameIngester interface {
	IngestGames(ctx context.Context, league domain.League, records []service.ProviderGame) (service.IngestSummary, error)
}

// FadeScanner finds games where the public and the model disagree.
type FadeScanner interface {
	Fades(ctx context.Context, q service.FadeQuery) ([]domain.FadeItem, error)
}

// QuotaWaiter blocks until a request slot is available under the provider's
// rate quota.
type QuotaWaiter interface {
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// Snapshotter stores a raw provider payload for later replay.
type Snapshotter interface {
	SnapshotRawPayload(ctx context.Context, league domain.League, fetchedAt time.Time, payload []byte) error
}

// OddsSyncerConfig tunes one syncer instance.
type OddsSyncerConfig struct {
	Leagues      []domain.League
	QuotaKey     string
	QuotaLimit   int
	QuotaWindow  time.Duration
	SnapshotRaw  bool
	FadeQuery    service.FadeQuery
	PublishFades bool
}

// OddsSyncer pulls fresh odds from the provider for each configured league and
// feeds them through ingestion. After a sweep it optionally scans for fade
// candidates and publishes them on the signal bus.
type OddsSyncer struct {
	fetcher  OddsFetcher
	ingester GameIngester
	fades    FadeScanner
	limiter  QuotaWaiter
	snaps    Snapshotter
	bus      domain.SignalBus
	cfg      OddsSyncerConfig
	logger   *slog.Logger
}

// NewOddsSyncer creates an OddsSyncer. limiter, snaps, fades, and bus may be
// nil; the corresponding step is skipped.
func NewOddsSyncer(
	fetcher OddsFetcher,
	ingester GameIngester,
	fades FadeScanner,
	limiter QuotaWaiter,
	snaps Snapshotter,
	bus domain.SignalBus,
	cfg OddsSyncerConfig,
	logger *slog.Logger,
) *OddsSyncer {
	return &OddsSyncer{
		fetcher:  fetcher,
		ingester: ingester,
		fades:    fades,
		limiter:  limiter,
		snaps:    snaps,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one sweep over all configured leagues. A failed league is
// logged and skipped; the sweep continues with the next league.
func (s *OddsSyncer) Run(ctx context.Context) error {
	var totalInserted, totalQuotes int

	for _, league := range s.cfg.Leagues {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("odds syncer cancelled: %w", err)
		}

		summary, err := s.syncLeague(ctx, league)
		if err != nil {
			s.logger.Error("league sync failed",
				slog.String("league", string(league)),
				slog.String("error", err.Error()),
			)
			continue
		}
		totalInserted += summary.Inserted
		totalQuotes += summary.QuotesStored

		s.logger.Info("league synced",
			slog.String("league", string(league)),
			slog.Int("total", summary.Total),
			slog.Int("inserted", summary.Inserted),
			slog.Int("existing", summary.Existing),
			slog.Int("quotes", summary.QuotesStored),
			slog.Int64("repointed", summary.Repointed),
			slog.Int("errors", len(summary.Errors)),
		)
	}

	s.logger.Info("odds sweep complete",
		slog.Int("games_inserted", totalInserted),
		slog.Int("quotes_stored", totalQuotes),
	)

	if s.cfg.PublishFades {
		s.publishFades(ctx)
	}
	return nil
}

func (s *OddsSyncer) syncLeague(ctx context.Context, league domain.League) (service.IngestSummary, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.cfg.QuotaKey, s.cfg.QuotaLimit, s.cfg.QuotaWindow); err != nil {
			return service.IngestSummary{}, fmt.Errorf("waiting for provider quota: %w", err)
		}
	}

	events, raw, err := s.fetcher.GetOdds(ctx, league)
	if err != nil {
		return service.IngestSummary{}, fmt.Errorf("fetching odds: %w", err)
	}

	fetchedAt := time.Now().UTC()
	if s.cfg.SnapshotRaw && s.snaps != nil && len(raw) > 0 {
		if err := s.snaps.SnapshotRawPayload(ctx, league, fetchedAt, raw); err != nil {
			s.logger.Warn("raw snapshot failed",
				slog.String("league", string(league)),
				slog.String("error", err.Error()),
			)
		}
	}

	records := make([]service.ProviderGame, 0, len(events))
	for _, ev := range events {
		quote := ev.ExtractQuote(fetchedAt)
		records = append(records, service.ProviderGame{
			ProviderID: ev.ID,
			HomeTeam:   ev.HomeTeam,
			AwayTeam:   ev.AwayTeam,
			StartTime:  ev.CommenceTime,
			Quote:      &quote,
		})
	}

	return s.ingester.IngestGames(ctx, league, records)
}

// publishFades runs the fade scan over the configured window and pushes any
// candidates on the signal bus for the notifier and websocket hub.
func (s *OddsSyncer) publishFades(ctx context.Context) {
	if s.fades == nil || s.bus == nil {
		return
	}

	items, err := s.fades.Fades(ctx, s.cfg.FadeQuery)
	if err != nil {
		s.logger.Warn("fade scan failed", slog.String("error", err.Error()))
		return
	}
	if len(items) == 0 {
		return
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, domain.ChannelFades, payload); err != nil {
		s.logger.Warn("fade publish failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("fade candidates published", slog.Int("count", len(items)))
}

// RunLoop runs the syncer on a repeating interval until the context is
// cancelled.
func (s *OddsSyncer) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := s.Run(ctx); err != nil {
		s.logger.Error("odds sweep failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("odds syncer loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("odds sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
