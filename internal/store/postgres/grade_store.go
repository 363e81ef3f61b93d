package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// GradeStore implements domain.GradeStore using PostgreSQL.
type GradeStore struct {
	pool *pgxpool.Pool
}

// NewGradeStore creates a new GradeStore backed by the given connection pool.
func NewGradeStore(pool *pgxpool.Pool) *GradeStore {
	return &GradeStore{pool: pool}
}

var _ domain.GradeStore = (*GradeStore)(nil)

// Create writes a grade once per (pick, market). A conflicting write is
// dropped on the floor and reported as AlreadyExists so repeated grading runs
// never rewrite settled outcomes.
func (s *GradeStore) Create(ctx context.Context, g domain.GradeResult) (domain.UpsertOutcome, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO grades (pick_id, market, outcome, settled_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (pick_id, market) DO NOTHING`,
		g.PickID, string(g.Market), string(g.Outcome), g.SettledAt)
	if err != nil {
		return "", fmt.Errorf("postgres: create grade for pick %s: %w", g.PickID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.AlreadyExists, nil
	}
	return domain.Inserted, nil
}

// ListByPicks returns grades for the given pick ids.
func (s *GradeStore) ListByPicks(ctx context.Context, pickIDs []string) ([]domain.GradeResult, error) {
	if len(pickIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT pick_id, market, outcome, settled_at FROM grades
		 WHERE pick_id = ANY($1)
		 ORDER BY settled_at ASC, pick_id ASC`, pickIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: list grades for %d picks: %w", len(pickIDs), err)
	}
	defer rows.Close()

	var grades []domain.GradeResult
	for rows.Next() {
		var g domain.GradeResult
		var market, outcome string
		if err := rows.Scan(&g.PickID, &market, &outcome, &g.SettledAt); err != nil {
			return nil, fmt.Errorf("postgres: scan grade: %w", err)
		}
		g.Market = domain.Market(market)
		g.Outcome = domain.Outcome(outcome)
		grades = append(grades, g)
	}
	return grades, rows.Err()
}
