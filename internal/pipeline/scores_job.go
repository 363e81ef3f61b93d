package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/platform/oddsapi"
	"github.com/tgrayson/oddsmith/internal/service"
)

// ScoreFetcher retrieves recent score events for a league. daysFrom bounds how
// far back the provider looks.
type ScoreFetcher interface {
	GetScores(ctx context.Context, league domain.League, daysFrom int) ([]oddsapi.ScoreEvent, error)
}

// FinalsRecorder applies provider finals to stored games.
type FinalsRecorder interface {
	RecordFinals(ctx context.Context, league domain.League, target time.Time, finals []service.FinalRecord) (int, []service.ItemError)
}

// ScoresJob polls the provider's scores endpoint and marks completed games
// final. Incomplete events and games we never ingested are skipped; finals for
// already-final games are harmless rewrites of the same score.
type ScoresJob struct {
	fetcher  ScoreFetcher
	recorder FinalsRecorder
	leagues  []domain.League
	daysFrom int
	logger   *slog.Logger
}

// NewScoresJob creates a ScoresJob covering the given leagues. daysFrom is
// clamped to the provider's supported range of 1 to 3 days.
func NewScoresJob(fetcher ScoreFetcher, recorder FinalsRecorder, leagues []domain.League, daysFrom int, logger *slog.Logger) *ScoresJob {
	if daysFrom < 1 {
		daysFrom = 1
	}
	if daysFrom > 3 {
		daysFrom = 3
	}
	return &ScoresJob{
		fetcher:  fetcher,
		recorder: recorder,
		leagues:  leagues,
		daysFrom: daysFrom,
		logger:   logger,
	}
}

// Run executes one polling pass over all configured leagues.
func (j *ScoresJob) Run(ctx context.Context) error {
	var totalApplied int

	for _, league := range j.leagues {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scores job cancelled: %w", err)
		}

		events, err := j.fetcher.GetScores(ctx, league, j.daysFrom)
		if err != nil {
			j.logger.Error("score fetch failed",
				slog.String("league", string(league)),
				slog.String("error", err.Error()),
			)
			continue
		}

		finals := make([]service.FinalRecord, 0, len(events))
		for _, ev := range events {
			if !ev.Completed {
				continue
			}
			home, away, ok := ev.FinalScores()
			if !ok {
				j.logger.Warn("score event missing team scores",
					slog.String("league", string(league)),
					slog.String("provider_id", ev.ID),
				)
				continue
			}
			finals = append(finals, service.FinalRecord{
				ProviderID: ev.ID,
				HomeScore:  home,
				AwayScore:  away,
				Kickoff:    ev.CommenceTime,
			})
		}
		if len(finals) == 0 {
			continue
		}

		// Zero target: the polling pass accepts completed games from any day in
		// the lookback window.
		applied, failures := j.recorder.RecordFinals(ctx, league, time.Time{}, finals)
		totalApplied += applied
		if len(failures) > 0 {
			j.logger.Warn("some finals not applied",
				slog.String("league", string(league)),
				slog.Int("applied", applied),
				slog.Int("failed", len(failures)),
			)
		}
	}

	j.logger.Info("scores pass complete", slog.Int("finals_applied", totalApplied))
	return nil
}

// RunLoop runs the scores job on a repeating interval until the context is
// cancelled.
func (j *ScoresJob) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := j.Run(ctx); err != nil {
		j.logger.Error("scores pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("scores job loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("scores pass failed", slog.String("error", err.Error()))
			}
		}
	}
}
