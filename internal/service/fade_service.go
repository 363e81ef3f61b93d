package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// FadeQuery filters the fade scan. An empty League scans all leagues. Days
// bounds the window both directions around now. PublicThreshold is the
// minimum public percentage counted as consensus; MinConfidence the minimum
// model confidence worth fading against.
type FadeQuery struct {
	League          domain.League
	Days            int
	PublicThreshold float64
	MinConfidence   int
}

// FadeService detects games where the public consensus and the model pick
// disagree. It is a pure join over stored picks and bet splits; no inference
// runs here.
type FadeService struct {
	games  domain.GameStore
	picks  domain.PickStore
	splits domain.BetSplitStore
	logger *slog.Logger
	now    func() time.Time
}

// NewFadeService creates a FadeService with all required dependencies.
func NewFadeService(
	games domain.GameStore,
	picks domain.PickStore,
	splits domain.BetSplitStore,
	logger *slog.Logger,
) *FadeService {
	return &FadeService{
		games:  games,
		picks:  picks,
		splits: splits,
		logger: logger,
		now:    time.Now,
	}
}

// Fades returns games where the public is loaded on one side above the
// threshold while the model pick for the same market takes the other side
// with at least the minimum confidence. Results are sorted by public
// percentage descending, most lopsided consensus first.
func (s *FadeService) Fades(ctx context.Context, q FadeQuery) ([]domain.FadeItem, error) {
	leagues := domain.Leagues
	if q.League != "" {
		parsed, err := domain.ParseLeague(string(q.League))
		if err != nil {
			return nil, fmt.Errorf("fade_service: %w", err)
		}
		leagues = []domain.League{parsed}
	}
	if q.Days <= 0 || q.Days > maxDayOffset {
		return nil, fmt.Errorf("fade_service: %w: days %d out of range", domain.ErrInvalidArgument, q.Days)
	}
	if q.PublicThreshold <= 50 || q.PublicThreshold > 100 {
		return nil, fmt.Errorf("fade_service: %w: public threshold %.1f out of range", domain.ErrInvalidArgument, q.PublicThreshold)
	}
	if q.MinConfidence < 0 || q.MinConfidence > 100 {
		return nil, fmt.Errorf("fade_service: %w: min confidence %d out of range", domain.ErrInvalidArgument, q.MinConfidence)
	}

	now := s.now().UTC()
	windowStart, _ := dayWindow(now, -q.Days)
	_, windowEnd := dayWindow(now, q.Days)

	var items []domain.FadeItem
	for _, league := range leagues {
		games, err := s.games.ListByLeagueRange(ctx, league, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("fade_service: list games for %s: %w", league, err)
		}
		if len(games) == 0 {
			continue
		}

		byID := make(map[string]domain.Game, len(games))
		gameIDs := make([]string, 0, len(games))
		for _, g := range games {
			byID[g.ID] = g
			gameIDs = append(gameIDs, g.ID)
		}

		splits, err := s.splits.ListByGames(ctx, gameIDs)
		if err != nil {
			return nil, fmt.Errorf("fade_service: list splits for %s: %w", league, err)
		}
		if len(splits) == 0 {
			continue
		}

		for _, sp := range splits {
			publicSide, publicPct := sp.PublicSide()
			if publicPct < q.PublicThreshold {
				continue
			}

			picks, err := s.picks.ListByGame(ctx, sp.GameID)
			if err != nil {
				s.logger.WarnContext(ctx, "fade_service: list picks failed",
					slog.String("game_id", sp.GameID),
					slog.String("error", err.Error()),
				)
				continue
			}
			for _, p := range picks {
				if p.Market != sp.Market || p.Side == publicSide || p.Confidence < q.MinConfidence {
					continue
				}
				items = append(items, domain.FadeItem{
					Game:      byID[sp.GameID],
					Market:    sp.Market,
					PublicOn:  publicSide,
					PublicPct: publicPct,
					ModelPick: p,
				})
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublicPct > items[j].PublicPct
	})
	return items, nil
}
