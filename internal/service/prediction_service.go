package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/predict"
)

// maxDayOffset bounds the relative-day parameter on the read endpoints.
const maxDayOffset = 14

// sourceTagModel tags picks produced by the inference engine, as opposed to
// any future hand-curated source.
const sourceTagModel = "model"

// PredictionService derives picks from the latest stored odds and serves the
// cached prediction board.
type PredictionService struct {
	games    domain.GameStore
	odds     domain.OddsStore
	picks    domain.PickStore
	cache    domain.PredictionCache
	bus      domain.SignalBus
	logger   *slog.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewPredictionService creates a PredictionService with all required
// dependencies. cacheTTL bounds staleness of the served board.
func NewPredictionService(
	games domain.GameStore,
	odds domain.OddsStore,
	picks domain.PickStore,
	cache domain.PredictionCache,
	bus domain.SignalBus,
	logger *slog.Logger,
	cacheTTL time.Duration,
) *PredictionService {
	return &PredictionService{
		games:    games,
		odds:     odds,
		picks:    picks,
		cache:    cache,
		bus:      bus,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Predictions returns the pick board for one league on a relative day.
// dayOffset 0 is today (UTC), 1 tomorrow, -1 yesterday. Picks for games that
// have not started are refreshed from the latest odds on every uncached read;
// picks for started games are served as stored and never regenerated.
func (s *PredictionService) Predictions(ctx context.Context, league domain.League, dayOffset int) (domain.PredictionBoard, error) {
	if _, err := domain.ParseLeague(string(league)); err != nil {
		return domain.PredictionBoard{}, fmt.Errorf("prediction_service: %w", err)
	}
	if dayOffset < -maxDayOffset || dayOffset > maxDayOffset {
		return domain.PredictionBoard{}, fmt.Errorf("prediction_service: %w: day offset %d out of range", domain.ErrInvalidArgument, dayOffset)
	}

	if board, ok, err := s.cache.Get(ctx, league, dayOffset); err != nil {
		s.logger.WarnContext(ctx, "prediction_service: cache get failed",
			slog.String("league", string(league)),
			slog.String("error", err.Error()),
		)
	} else if ok {
		return board, nil
	}

	now := s.now().UTC()
	from, to := dayWindow(now, dayOffset)

	games, err := s.games.ListByLeagueRange(ctx, league, from, to)
	if err != nil {
		return domain.PredictionBoard{}, fmt.Errorf("prediction_service: list games: %w", err)
	}

	gameIDs := make([]string, 0, len(games))
	for _, g := range games {
		gameIDs = append(gameIDs, g.ID)
	}
	quotes, err := s.odds.LatestForGames(ctx, gameIDs)
	if err != nil {
		return domain.PredictionBoard{}, fmt.Errorf("prediction_service: latest odds: %w", err)
	}

	board := domain.PredictionBoard{Items: []domain.PredictionItem{}}
	var refreshed int
	for _, g := range games {
		var picks []domain.Pick
		if g.StartTime.After(now) {
			q, ok := quotes[g.ID]
			if !ok {
				continue // no odds yet, nothing to infer
			}
			picks, err = s.refreshPicks(ctx, g, q)
			if err != nil {
				s.logger.WarnContext(ctx, "prediction_service: refresh failed",
					slog.String("game_id", g.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			refreshed += len(picks)
		} else {
			picks, err = s.picks.ListByGame(ctx, g.ID)
			if err != nil {
				s.logger.WarnContext(ctx, "prediction_service: list picks failed",
					slog.String("game_id", g.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
		}
		for _, p := range picks {
			board.Items = append(board.Items, domain.PredictionItem{
				Game:  g,
				Pick:  p,
				Label: p.Label(),
			})
		}
	}
	board.Count = len(board.Items)

	if err := s.cache.Set(ctx, league, dayOffset, board, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "prediction_service: cache set failed",
			slog.String("league", string(league)),
			slog.String("error", err.Error()),
		)
	}

	if refreshed > 0 {
		s.publishRefresh(ctx, league, dayOffset, refreshed)
	}

	return board, nil
}

// refreshPicks runs inference on the latest quote and upserts the resulting
// picks. The (game, market, source_tag) uniqueness means reruns refresh in
// place; pick ids survive refreshes so attached grades stay valid.
func (s *PredictionService) refreshPicks(ctx context.Context, g domain.Game, q domain.OddsQuote) ([]domain.Pick, error) {
	res := predict.Infer(q)

	var out []domain.Pick
	for market, mp := range map[domain.Market]*predict.MarketPick{
		domain.MarketMoneyline: res.Moneyline,
		domain.MarketSpread:    res.Spread,
		domain.MarketTotal:     res.Total,
	} {
		if mp == nil {
			continue
		}
		stored, _, err := s.picks.Upsert(ctx, domain.Pick{
			ID:         uuid.NewString(),
			GameID:     g.ID,
			Market:     market,
			Side:       mp.Side,
			Line:       mp.Line,
			Confidence: predict.Score100(mp.Confidence),
			SourceTag:  sourceTagModel,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func (s *PredictionService) publishRefresh(ctx context.Context, league domain.League, dayOffset, count int) {
	payload, err := json.Marshal(map[string]any{
		"league":     league,
		"day_offset": dayOffset,
		"count":      count,
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, domain.ChannelPicks, payload); err != nil {
		s.logger.WarnContext(ctx, "prediction_service: publish failed",
			slog.String("channel", domain.ChannelPicks),
			slog.String("error", err.Error()),
		)
	}
}

// Games returns the schedule for one league on a relative day.
func (s *PredictionService) Games(ctx context.Context, league domain.League, dayOffset int) ([]domain.Game, error) {
	if _, err := domain.ParseLeague(string(league)); err != nil {
		return nil, fmt.Errorf("prediction_service: %w", err)
	}
	if dayOffset < -maxDayOffset || dayOffset > maxDayOffset {
		return nil, fmt.Errorf("prediction_service: %w: day offset %d out of range", domain.ErrInvalidArgument, dayOffset)
	}

	from, to := dayWindow(s.now().UTC(), dayOffset)
	games, err := s.games.ListByLeagueRange(ctx, league, from, to)
	if err != nil {
		return nil, fmt.Errorf("prediction_service: list games: %w", err)
	}
	return games, nil
}

// dayWindow returns the [start, end) UTC bounds of the calendar day offset
// days from now.
func dayWindow(now time.Time, offset int) (time.Time, time.Time) {
	day := now.AddDate(0, 0, offset)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
