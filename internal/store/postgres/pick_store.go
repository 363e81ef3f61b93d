package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// PickStore implements domain.PickStore using PostgreSQL.
type PickStore struct {
	pool *pgxpool.Pool
}

// NewPickStore creates a new PickStore backed by the given connection pool.
func NewPickStore(pool *pgxpool.Pool) *PickStore {
	return &PickStore{pool: pool}
}

var _ domain.PickStore = (*PickStore)(nil)

const pickCols = `id, game_id, market, side, line, confidence, source_tag, created_at`

func scanPick(row pgx.Row) (domain.Pick, error) {
	var p domain.Pick
	var market, side string
	err := row.Scan(
		&p.ID, &p.GameID, &market, &side,
		&p.Line, &p.Confidence, &p.SourceTag, &p.CreatedAt,
	)
	if err != nil {
		return domain.Pick{}, err
	}
	p.Market = domain.Market(market)
	p.Side = domain.Side(side)
	return p, nil
}

// Upsert inserts a pick or refreshes the existing (game, market, source_tag)
// row with the new side, line, and confidence. The surviving row keeps its
// original id so grades stay attached across refreshes.
func (s *PickStore) Upsert(ctx context.Context, p domain.Pick) (domain.Pick, domain.UpsertOutcome, error) {
	const query = `
		INSERT INTO picks (
			id, game_id, market, side, line, confidence, source_tag, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (game_id, market, source_tag) DO UPDATE SET
			side       = EXCLUDED.side,
			line       = EXCLUDED.line,
			confidence = EXCLUDED.confidence
		RETURNING ` + pickCols + `, (xmax = 0) AS inserted`

	var out domain.Pick
	var market, side string
	var inserted bool
	err := s.pool.QueryRow(ctx, query,
		p.ID, p.GameID, string(p.Market), string(p.Side),
		p.Line, p.Confidence, p.SourceTag,
	).Scan(
		&out.ID, &out.GameID, &market, &side,
		&out.Line, &out.Confidence, &out.SourceTag, &out.CreatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Pick{}, "", fmt.Errorf("postgres: upsert pick %s/%s: %w", p.GameID, p.Market, err)
	}
	out.Market = domain.Market(market)
	out.Side = domain.Side(side)

	outcome := domain.AlreadyExists
	if inserted {
		outcome = domain.Inserted
	}
	return out, outcome, nil
}

// ListByGame returns all picks for one game.
func (s *PickStore) ListByGame(ctx context.Context, gameID string) ([]domain.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pickCols+` FROM picks
		 WHERE game_id = $1
		 ORDER BY market ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list picks for game %s: %w", gameID, err)
	}
	defer rows.Close()
	return collectPicks(rows)
}

// ListByLeagueRange returns picks whose games start within [from, to) for a
// league.
func (s *PickStore) ListByLeagueRange(ctx context.Context, league domain.League, from, to time.Time) ([]domain.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.game_id, p.market, p.side, p.line, p.confidence, p.source_tag, p.created_at
		 FROM picks p
		 JOIN games g ON g.id = p.game_id
		 WHERE g.league = $1 AND g.start_time >= $2 AND g.start_time < $3
		 ORDER BY g.start_time ASC, p.game_id ASC, p.market ASC`,
		string(league), from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: list picks for %s: %w", league, err)
	}
	defer rows.Close()
	return collectPicks(rows)
}

func collectPicks(rows pgx.Rows) ([]domain.Pick, error) {
	var picks []domain.Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}
