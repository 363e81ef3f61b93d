package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// BetSplitStore implements domain.BetSplitStore using PostgreSQL.
type BetSplitStore struct {
	pool *pgxpool.Pool
}

// NewBetSplitStore creates a new BetSplitStore backed by the given connection pool.
func NewBetSplitStore(pool *pgxpool.Pool) *BetSplitStore {
	return &BetSplitStore{pool: pool}
}

var _ domain.BetSplitStore = (*BetSplitStore)(nil)

// Upsert stores the latest public betting split for a (game, market); each
// capture replaces the previous one.
func (s *BetSplitStore) Upsert(ctx context.Context, sp domain.PublicBetSplit) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bet_splits (game_id, market, home_pct, away_pct, captured_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (game_id, market) DO UPDATE SET
			home_pct    = EXCLUDED.home_pct,
			away_pct    = EXCLUDED.away_pct,
			captured_at = EXCLUDED.captured_at`,
		sp.GameID, string(sp.Market), sp.HomePct, sp.AwayPct, sp.CapturedAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert bet split %s/%s: %w", sp.GameID, sp.Market, err)
	}
	return nil
}

// ListByGames returns the current splits for the given games.
func (s *BetSplitStore) ListByGames(ctx context.Context, gameIDs []string) ([]domain.PublicBetSplit, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT game_id, market, home_pct, away_pct, captured_at FROM bet_splits
		 WHERE game_id = ANY($1)
		 ORDER BY game_id ASC, market ASC`, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bet splits for %d games: %w", len(gameIDs), err)
	}
	defer rows.Close()

	var splits []domain.PublicBetSplit
	for rows.Next() {
		var sp domain.PublicBetSplit
		var market string
		if err := rows.Scan(&sp.GameID, &market, &sp.HomePct, &sp.AwayPct, &sp.CapturedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan bet split: %w", err)
		}
		sp.Market = domain.Market(market)
		splits = append(splits, sp)
	}
	return splits, rows.Err()
}
