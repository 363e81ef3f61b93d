package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGameStore is an in-memory domain.GameStore mirroring the storage
// contract: tuple dedup on upsert, latest-wins provider mapping.
type fakeGameStore struct {
	mu          sync.Mutex
	games       map[string]domain.Game
	providerMap map[string]string
	listCalls   int
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{
		games:       make(map[string]domain.Game),
		providerMap: make(map[string]string),
	}
}

func dedupKey(g domain.Game) string {
	return string(g.League) + "|" + g.HomeTeam + "|" + g.AwayTeam + "|" + strconv.FormatInt(g.StartTime.Unix(), 10)
}

func (f *fakeGameStore) Upsert(_ context.Context, g domain.Game) (domain.Game, domain.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dedupKey(g)
	for _, existing := range f.games {
		if dedupKey(existing) == key {
			return existing, domain.AlreadyExists, nil
		}
	}
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	f.games[g.ID] = g
	return g, domain.Inserted, nil
}

func (f *fakeGameStore) GetByID(_ context.Context, id string) (domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return domain.Game{}, domain.ErrNotFound
	}
	return g, nil
}

func (f *fakeGameStore) GetByProviderID(ctx context.Context, providerID string) (domain.Game, error) {
	id, err := f.ResolveProvider(ctx, providerID)
	if err != nil {
		return domain.Game{}, err
	}
	return f.GetByID(ctx, id)
}

func (f *fakeGameStore) ListByLeagueRange(_ context.Context, league domain.League, from, to time.Time) ([]domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var out []domain.Game
	for _, g := range f.games {
		if g.League == league && !g.StartTime.Before(from) && g.StartTime.Before(to) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeGameStore) SetFinal(_ context.Context, id string, homeScore, awayScore int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return domain.ErrNotFound
	}
	g.Status = domain.GameStatusFinal
	g.HomeScore = &homeScore
	g.AwayScore = &awayScore
	f.games[id] = g
	return nil
}

func (f *fakeGameStore) MapProvider(_ context.Context, providerID, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providerMap[providerID] = gameID
	return nil
}

func (f *fakeGameStore) ResolveProvider(_ context.Context, providerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.providerMap[providerID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

// fakeOddsStore is an in-memory domain.OddsStore.
type fakeOddsStore struct {
	mu     sync.Mutex
	quotes []domain.OddsQuote
	nextID int64
}

func newFakeOddsStore() *fakeOddsStore { return &fakeOddsStore{} }

func (f *fakeOddsStore) Insert(_ context.Context, q domain.OddsQuote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	q.ID = f.nextID
	f.quotes = append(f.quotes, q)
	return nil
}

func (f *fakeOddsStore) LatestByGame(_ context.Context, gameID string) (domain.OddsQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.OddsQuote
	for i := range f.quotes {
		q := &f.quotes[i]
		if q.GameID != gameID {
			continue
		}
		if best == nil || q.CapturedAt.After(best.CapturedAt) || (q.CapturedAt.Equal(best.CapturedAt) && q.ID > best.ID) {
			best = q
		}
	}
	if best == nil {
		return domain.OddsQuote{}, domain.ErrNotFound
	}
	return *best, nil
}

func (f *fakeOddsStore) LatestForGames(ctx context.Context, gameIDs []string) (map[string]domain.OddsQuote, error) {
	out := make(map[string]domain.OddsQuote)
	for _, id := range gameIDs {
		q, err := f.LatestByGame(ctx, id)
		if err == nil {
			out[id] = q
		}
	}
	return out, nil
}

func (f *fakeOddsStore) Repoint(_ context.Context, fromGameID, toGameID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var moved int64
	for i := range f.quotes {
		if f.quotes[i].GameID == fromGameID {
			f.quotes[i].GameID = toGameID
			moved++
		}
	}
	return moved, nil
}

func (f *fakeOddsStore) ListBefore(_ context.Context, before time.Time) ([]domain.OddsQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OddsQuote
	for _, q := range f.quotes {
		if q.CapturedAt.Before(before) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeOddsStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.OddsQuote
	var removed int64
	for _, q := range f.quotes {
		if q.CapturedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, q)
	}
	f.quotes = kept
	return removed, nil
}

// fakePickStore is an in-memory domain.PickStore keyed by
// (game, market, source_tag); the surviving row keeps its original id.
type fakePickStore struct {
	mu    sync.Mutex
	picks map[string]domain.Pick
	games *fakeGameStore
}

func newFakePickStore(games *fakeGameStore) *fakePickStore {
	return &fakePickStore{picks: make(map[string]domain.Pick), games: games}
}

func pickKey(p domain.Pick) string {
	return p.GameID + "|" + string(p.Market) + "|" + p.SourceTag
}

func (f *fakePickStore) Upsert(_ context.Context, p domain.Pick) (domain.Pick, domain.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pickKey(p)
	if existing, ok := f.picks[key]; ok {
		existing.Side = p.Side
		existing.Line = p.Line
		existing.Confidence = p.Confidence
		f.picks[key] = existing
		return existing, domain.AlreadyExists, nil
	}
	p.CreatedAt = time.Now()
	f.picks[key] = p
	return p, domain.Inserted, nil
}

func (f *fakePickStore) ListByGame(_ context.Context, gameID string) ([]domain.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Pick
	for _, p := range f.picks {
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
	return out, nil
}

func (f *fakePickStore) ListByLeagueRange(ctx context.Context, league domain.League, from, to time.Time) ([]domain.Pick, error) {
	games, err := f.games.ListByLeagueRange(ctx, league, from, to)
	if err != nil {
		return nil, err
	}
	var out []domain.Pick
	for _, g := range games {
		picks, _ := f.ListByGame(ctx, g.ID)
		out = append(out, picks...)
	}
	return out, nil
}

// fakeGradeStore is an in-memory domain.GradeStore with write-once rows.
type fakeGradeStore struct {
	mu     sync.Mutex
	grades map[string]domain.GradeResult
}

func newFakeGradeStore() *fakeGradeStore {
	return &fakeGradeStore{grades: make(map[string]domain.GradeResult)}
}

func (f *fakeGradeStore) Create(_ context.Context, g domain.GradeResult) (domain.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := g.PickID + "|" + string(g.Market)
	if _, ok := f.grades[key]; ok {
		return domain.AlreadyExists, nil
	}
	f.grades[key] = g
	return domain.Inserted, nil
}

func (f *fakeGradeStore) ListByPicks(_ context.Context, pickIDs []string) ([]domain.GradeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.GradeResult
	for _, id := range pickIDs {
		for _, g := range f.grades {
			if g.PickID == id {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

// fakeBetSplitStore is an in-memory domain.BetSplitStore.
type fakeBetSplitStore struct {
	mu     sync.Mutex
	splits map[string]domain.PublicBetSplit
	errOn  string // game id that fails upserts, for error-path tests
}

func newFakeBetSplitStore() *fakeBetSplitStore {
	return &fakeBetSplitStore{splits: make(map[string]domain.PublicBetSplit)}
}

func (f *fakeBetSplitStore) Upsert(_ context.Context, s domain.PublicBetSplit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errOn != "" && s.GameID == f.errOn {
		return fmt.Errorf("boom")
	}
	f.splits[s.GameID+"|"+string(s.Market)] = s
	return nil
}

func (f *fakeBetSplitStore) ListByGames(_ context.Context, gameIDs []string) ([]domain.PublicBetSplit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PublicBetSplit
	for _, id := range gameIDs {
		for _, s := range f.splits {
			if s.GameID == id {
				out = append(out, s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GameID != out[j].GameID {
			return out[i].GameID < out[j].GameID
		}
		return out[i].Market < out[j].Market
	})
	return out, nil
}

// fakePredictionCache is an in-memory domain.PredictionCache. TTLs are
// ignored; tests control hits by seeding or clearing entries.
type fakePredictionCache struct {
	mu          sync.Mutex
	boards      map[string]domain.PredictionBoard
	sets        int
	invalidated []domain.League
	disabled    bool // always miss
}

func newFakePredictionCache() *fakePredictionCache {
	return &fakePredictionCache{boards: make(map[string]domain.PredictionBoard)}
}

func cacheKey(league domain.League, dayOffset int) string {
	return string(league) + ":" + strconv.Itoa(dayOffset)
}

func (f *fakePredictionCache) Get(_ context.Context, league domain.League, dayOffset int) (domain.PredictionBoard, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disabled {
		return domain.PredictionBoard{}, false, nil
	}
	b, ok := f.boards[cacheKey(league, dayOffset)]
	return b, ok, nil
}

func (f *fakePredictionCache) Set(_ context.Context, league domain.League, dayOffset int, board domain.PredictionBoard, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if !f.disabled {
		f.boards[cacheKey(league, dayOffset)] = board
	}
	return nil
}

func (f *fakePredictionCache) Invalidate(_ context.Context, league domain.League) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, league)
	for key := range f.boards {
		if key[:len(string(league))] == string(league) {
			delete(f.boards, key)
		}
	}
	return nil
}

// fakeSignalBus records publishes.
type fakeSignalBus struct {
	mu        sync.Mutex
	published []busMessage
}

type busMessage struct {
	channel string
	payload []byte
}

func newFakeSignalBus() *fakeSignalBus { return &fakeSignalBus{} }

func (f *fakeSignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, busMessage{channel: channel, payload: payload})
	return nil
}

func (f *fakeSignalBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (f *fakeSignalBus) onChannel(channel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, m := range f.published {
		if m.channel == channel {
			n++
		}
	}
	return n
}

// Compile-time interface checks for the fakes.
var (
	_ domain.GameStore       = (*fakeGameStore)(nil)
	_ domain.OddsStore       = (*fakeOddsStore)(nil)
	_ domain.PickStore       = (*fakePickStore)(nil)
	_ domain.GradeStore      = (*fakeGradeStore)(nil)
	_ domain.BetSplitStore   = (*fakeBetSplitStore)(nil)
	_ domain.PredictionCache = (*fakePredictionCache)(nil)
	_ domain.SignalBus       = (*fakeSignalBus)(nil)
)
