package domain

import (
	"context"
	"time"
)

// PredictionItem is a pick enriched with its game, the shape the prediction
// endpoints serve.
type PredictionItem struct {
	Game  Game   `json:"game"`
	Pick  Pick   `json:"pick"`
	Label string `json:"label"`
}

// PredictionBoard is the cached response body for one (league, day) key.
type PredictionBoard struct {
	Count int              `json:"count"`
	Items []PredictionItem `json:"items"`
}

// PredictionCache is a best-effort TTL cache over the prediction read path,
// keyed by (league, day offset). A miss or a cache failure simply triggers a
// fresh read; staleness up to the TTL is accepted.
type PredictionCache interface {
	Get(ctx context.Context, league League, dayOffset int) (PredictionBoard, bool, error)
	Set(ctx context.Context, league League, dayOffset int, board PredictionBoard, ttl time.Duration) error
	Invalidate(ctx context.Context, league League) error
}

// RateLimiter bounds the rate of requests against a shared key, e.g. the
// odds provider's API quota or a client IP.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Signal bus channel names.
const (
	ChannelPicks  = "picks"
	ChannelFades  = "fades"
	ChannelGrades = "grades"
)

// SignalBus is ephemeral pub/sub used to push pick, fade, and grading events
// to the WebSocket hub and the notifier.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter stores archival payloads (JSONL snapshots) in object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
