package domain

import (
	"context"
	"time"
)

// UpsertOutcome names the result of an idempotent upsert. A uniqueness
// conflict is an expected outcome of overlapping ingestion windows, not a
// fault, so it is reported as AlreadyExists rather than an error.
type UpsertOutcome string

const (
	Inserted      UpsertOutcome = "inserted"
	AlreadyExists UpsertOutcome = "already_exists"
)

// GameStore persists games and the provider-identifier mapping.
type GameStore interface {
	// Upsert inserts the game or, on a (league, home, away, start_time)
	// conflict, returns the existing canonical row. The returned Game always
	// carries the internal ID that storage settled on.
	Upsert(ctx context.Context, g Game) (Game, UpsertOutcome, error)
	GetByID(ctx context.Context, id string) (Game, error)
	GetByProviderID(ctx context.Context, providerID string) (Game, error)
	ListByLeagueRange(ctx context.Context, league League, from, to time.Time) ([]Game, error)
	SetFinal(ctx context.Context, id string, homeScore, awayScore int) error

	// MapProvider records providerID -> internal id, overwriting any previous
	// mapping so the latest provider identifier seen always wins.
	MapProvider(ctx context.Context, providerID, gameID string) error
	// ResolveProvider returns the internal game id for a provider identifier
	// via the mapping table, or ErrNotFound.
	ResolveProvider(ctx context.Context, providerID string) (string, error)
}

// OddsStore persists odds quote snapshots.
type OddsStore interface {
	Insert(ctx context.Context, q OddsQuote) error
	LatestByGame(ctx context.Context, gameID string) (OddsQuote, error)
	LatestForGames(ctx context.Context, gameIDs []string) (map[string]OddsQuote, error)
	// Repoint moves all quotes from one game reference to another. Used by
	// reconciliation when quotes were captured against a row that turned out
	// to be a duplicate of an existing game.
	Repoint(ctx context.Context, fromGameID, toGameID string) (int64, error)
	ListBefore(ctx context.Context, before time.Time) ([]OddsQuote, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// PickStore persists derived picks.
type PickStore interface {
	// Upsert inserts a pick or refreshes the existing row for the same
	// (game, market, source_tag). Callers must not upsert picks for games
	// that have started; grading relies on closed picks staying put.
	Upsert(ctx context.Context, p Pick) (Pick, UpsertOutcome, error)
	ListByGame(ctx context.Context, gameID string) ([]Pick, error)
	ListByLeagueRange(ctx context.Context, league League, from, to time.Time) ([]Pick, error)
}

// GradeStore persists settled pick outcomes.
type GradeStore interface {
	// Create writes a grade once per (pick, market); a conflict reports
	// AlreadyExists and leaves the original row untouched.
	Create(ctx context.Context, g GradeResult) (UpsertOutcome, error)
	ListByPicks(ctx context.Context, pickIDs []string) ([]GradeResult, error)
}

// BetSplitStore persists public betting percentages.
type BetSplitStore interface {
	Upsert(ctx context.Context, s PublicBetSplit) error
	ListByGames(ctx context.Context, gameIDs []string) ([]PublicBetSplit, error)
}
