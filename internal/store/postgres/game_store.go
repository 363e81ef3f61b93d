package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// GameStore implements domain.GameStore using PostgreSQL.
type GameStore struct {
	pool *pgxpool.Pool
}

// NewGameStore creates a new GameStore backed by the given connection pool.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

var _ domain.GameStore = (*GameStore)(nil)

const gameCols = `id, provider_id, league, home_team, away_team,
	start_time, status, home_score, away_score, created_at, updated_at`

// scanGame scans a single game row into a domain.Game.
func scanGame(row pgx.Row) (domain.Game, error) {
	var g domain.Game
	var league, status string
	err := row.Scan(
		&g.ID, &g.ProviderID, &league, &g.HomeTeam, &g.AwayTeam,
		&g.StartTime, &status, &g.HomeScore, &g.AwayScore,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return domain.Game{}, err
	}
	g.League = domain.League(league)
	g.Status = domain.GameStatus(status)
	return g, nil
}

// Upsert inserts a game or returns the existing canonical row on a
// (league, home_team, away_team, start_time) conflict. The DO UPDATE clause
// is a no-op touch so RETURNING always yields the surviving row; xmax = 0
// distinguishes a fresh insert from a conflict.
func (s *GameStore) Upsert(ctx context.Context, g domain.Game) (domain.Game, domain.UpsertOutcome, error) {
	const query = `
		INSERT INTO games (
			id, provider_id, league, home_team, away_team,
			start_time, status, home_score, away_score, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, NOW(), NOW()
		)
		ON CONFLICT (league, home_team, away_team, start_time) DO UPDATE SET
			updated_at = NOW()
		RETURNING ` + gameCols + `, (xmax = 0) AS inserted`

	var out domain.Game
	var league, status string
	var inserted bool
	err := s.pool.QueryRow(ctx, query,
		g.ID, g.ProviderID, string(g.League), g.HomeTeam, g.AwayTeam,
		g.StartTime, string(g.Status), g.HomeScore, g.AwayScore,
	).Scan(
		&out.ID, &out.ProviderID, &league, &out.HomeTeam, &out.AwayTeam,
		&out.StartTime, &status, &out.HomeScore, &out.AwayScore,
		&out.CreatedAt, &out.UpdatedAt, &inserted,
	)
	if err != nil {
		return domain.Game{}, "", fmt.Errorf("postgres: upsert game %s @ %s: %w", g.HomeTeam, g.StartTime, err)
	}
	out.League = domain.League(league)
	out.Status = domain.GameStatus(status)

	outcome := domain.AlreadyExists
	if inserted {
		outcome = domain.Inserted
	}
	return out, outcome, nil
}

// GetByID retrieves a game by its primary key.
func (s *GameStore) GetByID(ctx context.Context, id string) (domain.Game, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+gameCols+` FROM games WHERE id = $1`, id)
	g, err := scanGame(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Game{}, domain.ErrNotFound
		}
		return domain.Game{}, fmt.Errorf("postgres: get game %s: %w", id, err)
	}
	return g, nil
}

// GetByProviderID retrieves a game through the provider mapping table.
func (s *GameStore) GetByProviderID(ctx context.Context, providerID string) (domain.Game, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+gameCols+` FROM games g
		 JOIN provider_game_map m ON m.game_id = g.id
		 WHERE m.provider_id = $1`, providerID)
	g, err := scanGame(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Game{}, domain.ErrNotFound
		}
		return domain.Game{}, fmt.Errorf("postgres: get game by provider %s: %w", providerID, err)
	}
	return g, nil
}

// ListByLeagueRange returns games for a league starting within [from, to),
// ordered by start time.
func (s *GameStore) ListByLeagueRange(ctx context.Context, league domain.League, from, to time.Time) ([]domain.Game, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+gameCols+` FROM games
		 WHERE league = $1 AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time ASC, id ASC`,
		string(league), from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: list games for %s: %w", league, err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// SetFinal records the final score and marks the game final.
func (s *GameStore) SetFinal(ctx context.Context, id string, homeScore, awayScore int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE games SET status = $2, home_score = $3, away_score = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, string(domain.GameStatusFinal), homeScore, awayScore)
	if err != nil {
		return fmt.Errorf("postgres: set final for game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MapProvider records providerID -> gameID, overwriting any previous mapping.
func (s *GameStore) MapProvider(ctx context.Context, providerID, gameID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO provider_game_map (provider_id, game_id, mapped_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (provider_id) DO UPDATE SET
			game_id   = EXCLUDED.game_id,
			mapped_at = NOW()`,
		providerID, gameID)
	if err != nil {
		return fmt.Errorf("postgres: map provider %s -> %s: %w", providerID, gameID, err)
	}
	return nil
}

// ResolveProvider returns the internal game id for a provider identifier.
func (s *GameStore) ResolveProvider(ctx context.Context, providerID string) (string, error) {
	var gameID string
	err := s.pool.QueryRow(ctx,
		`SELECT game_id FROM provider_game_map WHERE provider_id = $1`,
		providerID).Scan(&gameID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("postgres: resolve provider %s: %w", providerID, err)
	}
	return gameID, nil
}
