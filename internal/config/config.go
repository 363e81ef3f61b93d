// Package config defines the top-level configuration for the oddsmith
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ODDSMITH_* environment variables.
type Config struct {
	Database Database       `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	OddsAPI  OddsAPIConfig  `toml:"oddsapi"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// Database holds PostgreSQL connection parameters.
type Database struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Name          string `toml:"name"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// OddsAPIConfig holds the odds provider's endpoint, credentials, and request
// quota.
type OddsAPIConfig struct {
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	QuotaLimit  int      `toml:"quota_limit"`
	QuotaWindow duration `toml:"quota_window"`
}

// PipelineConfig holds background-job parameters: odds syncing, score
// polling, daily grading, archival, and the post-sync fade scan.
type PipelineConfig struct {
	Enabled              bool     `toml:"enabled"`
	Leagues              []string `toml:"leagues"`
	SyncInterval         duration `toml:"sync_interval"`
	ScoresInterval       duration `toml:"scores_interval"`
	ScoresDaysFrom       int      `toml:"scores_days_from"`
	GradingCron          string   `toml:"grading_cron"`
	ArchiveCron          string   `toml:"archive_cron"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	SnapshotRaw          bool     `toml:"snapshot_raw"`
	PublishFades         bool     `toml:"publish_fades"`
	FadeDays             int      `toml:"fade_days"`
	FadeThreshold        float64  `toml:"fade_threshold"`
	FadeMinConfidence    int      `toml:"fade_min_confidence"`
}

// CacheConfig holds read-path cache parameters.
type CacheConfig struct {
	PredictionTTL duration `toml:"prediction_ttl"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	leagues := make([]string, 0, len(domain.Leagues))
	for _, l := range domain.Leagues {
		leagues = append(leagues, string(l))
	}

	return Config{
		Database: Database{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Name:          "oddsmith",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "oddsmith-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		OddsAPI: OddsAPIConfig{
			BaseURL:     "https://api.the-odds-api.com",
			QuotaLimit:  30,
			QuotaWindow: duration{time.Minute},
		},
		Pipeline: PipelineConfig{
			Enabled:              true,
			Leagues:              leagues,
			SyncInterval:         duration{5 * time.Minute},
			ScoresInterval:       duration{15 * time.Minute},
			ScoresDaysFrom:       2,
			GradingCron:          "0 6 * * *",
			ArchiveCron:          "0 3 1 * *",
			ArchiveRetentionDays: 90,
			SnapshotRaw:          false,
			PublishFades:         true,
			FadeDays:             1,
			FadeThreshold:        65,
			FadeMinConfidence:    55,
		},
		Cache: CacheConfig{
			PredictionTTL: duration{time.Minute},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   20,
			RateWindow:  duration{time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"fades", "grades"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":  true,
	"ingest": true,
	"grade":  true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, ingest, grade, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Name == "" {
			errs = append(errs, "database: name must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// OddsAPI — required whenever the pipeline pulls from the provider.
	needsProvider := c.Pipeline.Enabled && (c.Mode == "ingest" || c.Mode == "grade" || c.Mode == "full")
	if needsProvider {
		if c.OddsAPI.BaseURL == "" {
			errs = append(errs, "oddsapi: base_url must not be empty")
		}
		if c.OddsAPI.APIKey == "" {
			errs = append(errs, "oddsapi: api_key is required for mode "+c.Mode)
		}
		if c.OddsAPI.QuotaLimit < 1 {
			errs = append(errs, "oddsapi: quota_limit must be >= 1")
		}
	}

	// Pipeline
	if c.Pipeline.Enabled {
		for _, l := range c.Pipeline.Leagues {
			if _, err := domain.ParseLeague(l); err != nil {
				errs = append(errs, fmt.Sprintf("pipeline: unsupported league %q", l))
			}
		}
		if c.Pipeline.SyncInterval.Duration < time.Second {
			errs = append(errs, "pipeline: sync_interval must be at least 1s")
		}
		if c.Pipeline.ScoresInterval.Duration < time.Second {
			errs = append(errs, "pipeline: scores_interval must be at least 1s")
		}
		if c.Pipeline.ArchiveRetentionDays < 1 {
			errs = append(errs, "pipeline: archive_retention_days must be >= 1")
		}
	}

	// Cache
	if c.Cache.PredictionTTL.Duration <= 0 {
		errs = append(errs, "cache: prediction_ttl must be > 0")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LeagueList returns the configured pipeline leagues as domain values. Call
// after Validate; unknown codes are skipped.
func (c *Config) LeagueList() []domain.League {
	out := make([]domain.League, 0, len(c.Pipeline.Leagues))
	for _, raw := range c.Pipeline.Leagues {
		if l, err := domain.ParseLeague(raw); err == nil {
			out = append(out, l)
		}
	}
	return out
}
