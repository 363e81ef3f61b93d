package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// PredictionCache implements domain.PredictionCache using JSON-serialized
// boards under per-(league, day) string keys.
//
// Key schema:
//
//	predictions:{league}:{dayOffset} - JSON PredictionBoard
type PredictionCache struct {
	rdb *redis.Client
}

// NewPredictionCache creates a PredictionCache backed by the given Client.
func NewPredictionCache(c *Client) *PredictionCache {
	return &PredictionCache{rdb: c.Underlying()}
}

func predictionKey(league domain.League, dayOffset int) string {
	return "predictions:" + string(league) + ":" + strconv.Itoa(dayOffset)
}

// Get retrieves a cached board. The bool reports a hit; a miss is not an
// error.
func (pc *PredictionCache) Get(ctx context.Context, league domain.League, dayOffset int) (domain.PredictionBoard, bool, error) {
	data, err := pc.rdb.Get(ctx, predictionKey(league, dayOffset)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PredictionBoard{}, false, nil
		}
		return domain.PredictionBoard{}, false, fmt.Errorf("redis: get predictions %s/%d: %w", league, dayOffset, err)
	}

	var board domain.PredictionBoard
	if err := json.Unmarshal(data, &board); err != nil {
		return domain.PredictionBoard{}, false, fmt.Errorf("redis: unmarshal predictions %s/%d: %w", league, dayOffset, err)
	}
	return board, true, nil
}

// Set stores a board under the (league, dayOffset) key with the given TTL.
func (pc *PredictionCache) Set(ctx context.Context, league domain.League, dayOffset int, board domain.PredictionBoard, ttl time.Duration) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("redis: marshal predictions %s/%d: %w", league, dayOffset, err)
	}
	if err := pc.rdb.Set(ctx, predictionKey(league, dayOffset), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set predictions %s/%d: %w", league, dayOffset, err)
	}
	return nil
}

// Invalidate drops every cached day for a league. Called after ingestion so
// fresh odds show up without waiting out the TTL.
func (pc *PredictionCache) Invalidate(ctx context.Context, league domain.League) error {
	iter := pc.rdb.Scan(ctx, 0, "predictions:"+string(league)+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: scan predictions %s: %w", league, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := pc.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: invalidate predictions %s: %w", league, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.PredictionCache = (*PredictionCache)(nil)
