package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/tgrayson/oddsmith/internal/blob/s3"
	"github.com/tgrayson/oddsmith/internal/cache/redis"
	"github.com/tgrayson/oddsmith/internal/config"
	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/notify"
	"github.com/tgrayson/oddsmith/internal/platform/oddsapi"
	"github.com/tgrayson/oddsmith/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	GameStore     domain.GameStore
	OddsStore     domain.OddsStore
	PickStore     domain.PickStore
	GradeStore    domain.GradeStore
	BetSplitStore domain.BetSplitStore

	// Caches
	PredictionCache domain.PredictionCache
	RateLimiter     domain.RateLimiter
	Quota           *redis.RateLimiter
	SignalBus       domain.SignalBus

	// Blob storage (nil unless S3 is enabled for this mode)
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Odds provider (nil in serve mode)
	OddsClient *oddsapi.Client

	// Notifications
	Notifier *notify.Notifier

	// Raw clients, kept for health checks.
	Postgres *postgres.Client
	Redis    *redis.Client
	S3       *s3blob.Client
}

// needsS3 returns true for modes whose pipeline can write to object storage.
// Serve mode never touches blobs even when S3 is configured.
func needsS3(mode string) bool {
	switch mode {
	case "ingest", "grade", "full":
		return true
	default:
		return false
	}
}

// needsProvider returns true for modes that pull from the odds provider.
func needsProvider(mode string) bool {
	switch mode {
	case "ingest", "grade", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)
	deps.Postgres = pgClient

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.GameStore = postgres.NewGameStore(pool)
	deps.OddsStore = postgres.NewOddsStore(pool)
	deps.PickStore = postgres.NewPickStore(pool)
	deps.GradeStore = postgres.NewGradeStore(pool)
	deps.BetSplitStore = postgres.NewBetSplitStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Redis = redisClient

	deps.PredictionCache = redis.NewPredictionCache(redisClient)
	deps.Quota = redis.NewRateLimiter(redisClient)
	deps.RateLimiter = deps.Quota
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage ---
	if cfg.S3.Enabled && needsS3(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.S3 = s3Client

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.OddsStore)
	}

	// --- Odds provider ---
	if needsProvider(cfg.Mode) {
		deps.OddsClient = oddsapi.NewClient(cfg.OddsAPI.BaseURL, cfg.OddsAPI.APIKey)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
