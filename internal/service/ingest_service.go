package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// ProviderGame is one raw provider record handed to ingestion: the provider's
// event identifier, team names, start time, and optionally the odds quote
// captured alongside the schedule entry.
type ProviderGame struct {
	ProviderID string
	HomeTeam   string
	AwayTeam   string
	StartTime  time.Time
	Quote      *domain.OddsQuote
}

// ItemError records one failed item of a batch run.
type ItemError struct {
	Ref string `json:"ref"`
	Err string `json:"error"`
}

// IngestSummary reports the outcome of one ingestion run. Errors holds
// per-item failures; a non-empty list still means the other items landed.
type IngestSummary struct {
	League       domain.League `json:"league"`
	Total        int           `json:"total"`
	Inserted     int           `json:"inserted"`
	Existing     int           `json:"existing"`
	QuotesStored int           `json:"quotes_stored"`
	Repointed    int64         `json:"repointed"`
	Errors       []ItemError   `json:"errors,omitempty"`
}

// IngestService reconciles provider schedule/odds payloads into game storage.
// Every step is idempotent per row, so resending a whole batch after a
// timeout is safe.
type IngestService struct {
	games  domain.GameStore
	odds   domain.OddsStore
	splits domain.BetSplitStore
	cache  domain.PredictionCache
	logger *slog.Logger
}

// NewIngestService creates an IngestService with all required dependencies.
func NewIngestService(
	games domain.GameStore,
	odds domain.OddsStore,
	splits domain.BetSplitStore,
	cache domain.PredictionCache,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		games:  games,
		odds:   odds,
		splits: splits,
		cache:  cache,
		logger: logger,
	}
}

// IngestGames upserts a batch of provider records for one league. The dedup
// identity is (league, home, away, start_time); a conflict returns the
// existing canonical row and counts as Existing, never as a failure. The
// provider-id mapping is refreshed on every row so the latest provider
// identifier always wins, and odds stranded under a superseded internal id
// are re-pointed to the canonical row rather than dropped.
func (s *IngestService) IngestGames(ctx context.Context, league domain.League, records []ProviderGame) (IngestSummary, error) {
	if _, err := domain.ParseLeague(string(league)); err != nil {
		return IngestSummary{}, fmt.Errorf("ingest_service: %w", err)
	}

	summary := IngestSummary{League: league, Total: len(records)}

	for _, rec := range records {
		if err := s.ingestOne(ctx, league, rec, &summary); err != nil {
			summary.Errors = append(summary.Errors, ItemError{Ref: rec.ProviderID, Err: err.Error()})
			s.logger.WarnContext(ctx, "ingest_service: record failed",
				slog.String("league", string(league)),
				slog.String("provider_id", rec.ProviderID),
				slog.String("error", err.Error()),
			)
		}
	}

	// Fresh odds invalidate cached boards. Best-effort.
	if err := s.cache.Invalidate(ctx, league); err != nil {
		s.logger.WarnContext(ctx, "ingest_service: cache invalidate failed",
			slog.String("league", string(league)),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "ingest_service: batch done",
		slog.String("league", string(league)),
		slog.Int("total", summary.Total),
		slog.Int("inserted", summary.Inserted),
		slog.Int("existing", summary.Existing),
		slog.Int("quotes", summary.QuotesStored),
		slog.Int("failed", len(summary.Errors)),
	)

	return summary, nil
}

func (s *IngestService) ingestOne(ctx context.Context, league domain.League, rec ProviderGame, summary *IngestSummary) error {
	if strings.TrimSpace(rec.HomeTeam) == "" || strings.TrimSpace(rec.AwayTeam) == "" {
		return fmt.Errorf("%w: missing team name", domain.ErrInvalidArgument)
	}
	if rec.StartTime.IsZero() {
		return fmt.Errorf("%w: missing start time", domain.ErrInvalidArgument)
	}

	canonical, outcome, err := s.games.Upsert(ctx, domain.Game{
		ID:         uuid.NewString(),
		ProviderID: rec.ProviderID,
		League:     league,
		HomeTeam:   rec.HomeTeam,
		AwayTeam:   rec.AwayTeam,
		StartTime:  rec.StartTime.UTC(),
		Status:     domain.GameStatusScheduled,
	})
	if err != nil {
		return err
	}
	switch outcome {
	case domain.Inserted:
		summary.Inserted++
	default:
		summary.Existing++
	}

	if rec.ProviderID != "" {
		// Odds captured against a previous mapping of this provider id are
		// stranded once the id points at a different canonical row. Re-point
		// them before refreshing the mapping.
		prevID, err := s.games.ResolveProvider(ctx, rec.ProviderID)
		if err == nil && prevID != canonical.ID {
			moved, err := s.odds.Repoint(ctx, prevID, canonical.ID)
			if err != nil {
				return err
			}
			summary.Repointed += moved
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := s.games.MapProvider(ctx, rec.ProviderID, canonical.ID); err != nil {
			return err
		}
	}

	if rec.Quote != nil {
		q := *rec.Quote
		q.GameID = canonical.ID
		if q.CapturedAt.IsZero() {
			q.CapturedAt = time.Now().UTC()
		}
		if err := s.odds.Insert(ctx, q); err != nil {
			return err
		}
		summary.QuotesStored++
	}

	return nil
}

// RecordBetSplits stores a batch of public betting splits. Splits are
// exogenous read-only data; each (game, market) capture replaces the last.
func (s *IngestService) RecordBetSplits(ctx context.Context, splits []domain.PublicBetSplit) []ItemError {
	var failures []ItemError
	for _, sp := range splits {
		if sp.GameID == "" {
			failures = append(failures, ItemError{Ref: sp.GameID, Err: "missing game id"})
			continue
		}
		if err := s.splits.Upsert(ctx, sp); err != nil {
			failures = append(failures, ItemError{Ref: sp.GameID, Err: err.Error()})
			s.logger.WarnContext(ctx, "ingest_service: bet split failed",
				slog.String("game_id", sp.GameID),
				slog.String("error", err.Error()),
			)
		}
	}
	return failures
}
