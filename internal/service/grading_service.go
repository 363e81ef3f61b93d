package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/grading"
)

// FinalRecord is one provider score record: the provider's event id, the
// final score, and the kickoff time the provider reported.
type FinalRecord struct {
	ProviderID string
	HomeScore  int
	AwayScore  int
	Kickoff    time.Time
}

// LeagueGradeSummary is one league's share of a grading run.
type LeagueGradeSummary struct {
	Games    int                                   `json:"games"`
	Updated  int                                   `json:"updated"`
	Outcomes map[domain.Market]map[domain.Outcome]int `json:"outcomes,omitempty"`
	Errors   []ItemError                           `json:"errors,omitempty"`
}

// GradeRunSummary reports one grading run across all leagues.
type GradeRunSummary struct {
	Day          string                                    `json:"day"`
	TotalUpdated int                                       `json:"total_updated"`
	Leagues      map[domain.League]*LeagueGradeSummary `json:"leagues"`
}

// GradingService settles stored picks against final scores. Grade rows are
// write-once; a rerun over the same day updates zero additional rows.
type GradingService struct {
	games  domain.GameStore
	picks  domain.PickStore
	odds   domain.OddsStore
	grades domain.GradeStore
	bus    domain.SignalBus
	logger *slog.Logger
	now    func() time.Time
}

// NewGradingService creates a GradingService with all required dependencies.
func NewGradingService(
	games domain.GameStore,
	picks domain.PickStore,
	odds domain.OddsStore,
	grades domain.GradeStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *GradingService {
	return &GradingService{
		games:  games,
		picks:  picks,
		odds:   odds,
		grades: grades,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// RecordFinals marks games final from provider score records. Records whose
// kickoff date does not fall on target are silently skipped; provider score
// feeds routinely include spillover from adjacent days. Failures are
// per-item; one bad record never aborts the batch.
func (s *GradingService) RecordFinals(ctx context.Context, league domain.League, target time.Time, finals []FinalRecord) (int, []ItemError) {
	targetDay := target.UTC().Truncate(24 * time.Hour)

	var applied int
	var failures []ItemError
	for _, rec := range finals {
		if !target.IsZero() && !rec.Kickoff.UTC().Truncate(24*time.Hour).Equal(targetDay) {
			continue
		}

		gameID, err := s.games.ResolveProvider(ctx, rec.ProviderID)
		if err != nil {
			failures = append(failures, ItemError{Ref: rec.ProviderID, Err: err.Error()})
			continue
		}
		if err := s.games.SetFinal(ctx, gameID, rec.HomeScore, rec.AwayScore); err != nil {
			failures = append(failures, ItemError{Ref: rec.ProviderID, Err: err.Error()})
			continue
		}
		applied++
	}

	if len(failures) > 0 {
		s.logger.WarnContext(ctx, "grading_service: some finals failed",
			slog.String("league", string(league)),
			slog.Int("applied", applied),
			slog.Int("failed", len(failures)),
		)
	}
	return applied, failures
}

// GradeYesterday grades the prior UTC calendar day across all supported
// leagues and publishes the run summary on the signal bus.
func (s *GradingService) GradeYesterday(ctx context.Context) (GradeRunSummary, error) {
	day := s.now().UTC().AddDate(0, 0, -1)
	summary, err := s.GradeDay(ctx, day)
	if err != nil {
		return summary, err
	}
	s.publishSummary(ctx, summary)
	return summary, nil
}

// GradeDay grades every final game of one UTC calendar day. Grading is
// idempotent: a grade row is written once per (pick, market) and conflicts
// are no-ops, so the second run over a day reports zero updates.
func (s *GradingService) GradeDay(ctx context.Context, day time.Time) (GradeRunSummary, error) {
	from, to := dayWindow(day.UTC(), 0)
	summary := GradeRunSummary{
		Day:     from.Format("2006-01-02"),
		Leagues: make(map[domain.League]*LeagueGradeSummary, len(domain.Leagues)),
	}

	for _, league := range domain.Leagues {
		ls := &LeagueGradeSummary{Outcomes: make(map[domain.Market]map[domain.Outcome]int)}
		summary.Leagues[league] = ls

		games, err := s.games.ListByLeagueRange(ctx, league, from, to)
		if err != nil {
			ls.Errors = append(ls.Errors, ItemError{Ref: string(league), Err: err.Error()})
			s.logger.WarnContext(ctx, "grading_service: list games failed",
				slog.String("league", string(league)),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, g := range games {
			if g.Status != domain.GameStatusFinal || g.HomeScore == nil || g.AwayScore == nil {
				continue
			}
			ls.Games++
			if err := s.gradeGame(ctx, g, ls, &summary); err != nil {
				ls.Errors = append(ls.Errors, ItemError{Ref: g.ID, Err: err.Error()})
				s.logger.WarnContext(ctx, "grading_service: game failed",
					slog.String("game_id", g.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	s.logger.InfoContext(ctx, "grading_service: run done",
		slog.String("day", summary.Day),
		slog.Int("total_updated", summary.TotalUpdated),
	)
	return summary, nil
}

func (s *GradingService) gradeGame(ctx context.Context, g domain.Game, ls *LeagueGradeSummary, run *GradeRunSummary) error {
	picks, err := s.picks.ListByGame(ctx, g.ID)
	if err != nil {
		return err
	}
	if len(picks) == 0 {
		return nil
	}

	fs := grading.FinalScore{
		GameID:    g.ID,
		HomeScore: *g.HomeScore,
		AwayScore: *g.AwayScore,
	}
	// Closing lines come from the latest stored quote; absent lines fall back
	// to the line each pick was made at.
	if q, err := s.odds.LatestByGame(ctx, g.ID); err == nil {
		fs.SpreadClose = q.SpreadLine
		fs.TotalClose = q.TotalLine
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	for _, p := range picks {
		outcome, ok := grading.Settle(p, fs)
		if !ok {
			s.logger.WarnContext(ctx, "grading_service: pick ungradeable",
				slog.String("pick_id", p.ID),
				slog.String("market", string(p.Market)),
			)
			continue
		}

		res, err := s.grades.Create(ctx, domain.GradeResult{
			PickID:    p.ID,
			Market:    p.Market,
			Outcome:   outcome,
			SettledAt: s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("grade pick %s: %w", p.ID, err)
		}
		if res == domain.Inserted {
			ls.Updated++
			run.TotalUpdated++
			if ls.Outcomes[p.Market] == nil {
				ls.Outcomes[p.Market] = make(map[domain.Outcome]int)
			}
			ls.Outcomes[p.Market][outcome]++
		}
	}
	return nil
}

func (s *GradingService) publishSummary(ctx context.Context, summary GradeRunSummary) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, domain.ChannelGrades, payload); err != nil {
		s.logger.WarnContext(ctx, "grading_service: publish failed",
			slog.String("channel", domain.ChannelGrades),
			slog.String("error", err.Error()),
		)
	}
}
