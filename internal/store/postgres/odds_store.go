package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// OddsStore implements domain.OddsStore using PostgreSQL.
type OddsStore struct {
	pool *pgxpool.Pool
}

// NewOddsStore creates a new OddsStore backed by the given connection pool.
func NewOddsStore(pool *pgxpool.Pool) *OddsStore {
	return &OddsStore{pool: pool}
}

var _ domain.OddsStore = (*OddsStore)(nil)

const oddsCols = `id, game_id, captured_at,
	moneyline_home, moneyline_away,
	spread_line, spread_price_home, spread_price_away,
	total_line, over_price, under_price`

func scanOdds(row pgx.Row) (domain.OddsQuote, error) {
	var q domain.OddsQuote
	err := row.Scan(
		&q.ID, &q.GameID, &q.CapturedAt,
		&q.MoneylineHome, &q.MoneylineAway,
		&q.SpreadLine, &q.SpreadPriceHome, &q.SpreadPriceAway,
		&q.TotalLine, &q.OverPrice, &q.UnderPrice,
	)
	return q, err
}

// Insert appends one odds snapshot. Snapshots are append-only history; the
// latest row per game is the live quote.
func (s *OddsStore) Insert(ctx context.Context, q domain.OddsQuote) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO odds (
			game_id, captured_at,
			moneyline_home, moneyline_away,
			spread_line, spread_price_home, spread_price_away,
			total_line, over_price, under_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		q.GameID, q.CapturedAt,
		q.MoneylineHome, q.MoneylineAway,
		q.SpreadLine, q.SpreadPriceHome, q.SpreadPriceAway,
		q.TotalLine, q.OverPrice, q.UnderPrice,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert odds for game %s: %w", q.GameID, err)
	}
	return nil
}

// LatestByGame returns the most recently captured quote for one game.
func (s *OddsStore) LatestByGame(ctx context.Context, gameID string) (domain.OddsQuote, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+oddsCols+` FROM odds
		 WHERE game_id = $1
		 ORDER BY captured_at DESC, id DESC
		 LIMIT 1`, gameID)
	q, err := scanOdds(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.OddsQuote{}, domain.ErrNotFound
		}
		return domain.OddsQuote{}, fmt.Errorf("postgres: latest odds for game %s: %w", gameID, err)
	}
	return q, nil
}

// LatestForGames returns the most recent quote per game in one query. Games
// with no quotes are simply absent from the map.
func (s *OddsStore) LatestForGames(ctx context.Context, gameIDs []string) (map[string]domain.OddsQuote, error) {
	out := make(map[string]domain.OddsQuote, len(gameIDs))
	if len(gameIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (game_id) `+oddsCols+` FROM odds
		 WHERE game_id = ANY($1)
		 ORDER BY game_id, captured_at DESC, id DESC`,
		gameIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: latest odds for %d games: %w", len(gameIDs), err)
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanOdds(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan odds: %w", err)
		}
		out[q.GameID] = q
	}
	return out, rows.Err()
}

// Repoint moves all quotes from one game reference to another and reports how
// many rows moved.
func (s *OddsStore) Repoint(ctx context.Context, fromGameID, toGameID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE odds SET game_id = $2 WHERE game_id = $1`,
		fromGameID, toGameID)
	if err != nil {
		return 0, fmt.Errorf("postgres: repoint odds %s -> %s: %w", fromGameID, toGameID, err)
	}
	return tag.RowsAffected(), nil
}

// ListBefore returns all quotes captured strictly before the cutoff, oldest
// first. Used by the archiver ahead of DeleteBefore.
func (s *OddsStore) ListBefore(ctx context.Context, before time.Time) ([]domain.OddsQuote, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+oddsCols+` FROM odds
		 WHERE captured_at < $1
		 ORDER BY captured_at ASC, id ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list odds before %s: %w", before, err)
	}
	defer rows.Close()

	var quotes []domain.OddsQuote
	for rows.Next() {
		q, err := scanOdds(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan odds: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// DeleteBefore removes quotes captured strictly before the cutoff.
func (s *OddsStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM odds WHERE captured_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete odds before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}
