package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ODDSMITH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ODDSMITH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "ODDSMITH_DATABASE_DSN")
	setStr(&cfg.Database.Host, "ODDSMITH_DATABASE_HOST")
	setInt(&cfg.Database.Port, "ODDSMITH_DATABASE_PORT")
	setStr(&cfg.Database.Name, "ODDSMITH_DATABASE_NAME")
	setStr(&cfg.Database.User, "ODDSMITH_DATABASE_USER")
	setStr(&cfg.Database.Password, "ODDSMITH_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "ODDSMITH_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "ODDSMITH_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "ODDSMITH_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "ODDSMITH_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ODDSMITH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ODDSMITH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ODDSMITH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ODDSMITH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ODDSMITH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ODDSMITH_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ODDSMITH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ODDSMITH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ODDSMITH_S3_REGION")
	setStr(&cfg.S3.Bucket, "ODDSMITH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ODDSMITH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ODDSMITH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ODDSMITH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ODDSMITH_S3_FORCE_PATH_STYLE")

	// ── OddsAPI ──
	setStr(&cfg.OddsAPI.BaseURL, "ODDSMITH_ODDSAPI_BASE_URL")
	setStr(&cfg.OddsAPI.APIKey, "ODDSMITH_ODDSAPI_API_KEY")
	setInt(&cfg.OddsAPI.QuotaLimit, "ODDSMITH_ODDSAPI_QUOTA_LIMIT")
	setDuration(&cfg.OddsAPI.QuotaWindow, "ODDSMITH_ODDSAPI_QUOTA_WINDOW")

	// ── Pipeline ──
	setBool(&cfg.Pipeline.Enabled, "ODDSMITH_PIPELINE_ENABLED")
	setStringSlice(&cfg.Pipeline.Leagues, "ODDSMITH_PIPELINE_LEAGUES")
	setDuration(&cfg.Pipeline.SyncInterval, "ODDSMITH_PIPELINE_SYNC_INTERVAL")
	setDuration(&cfg.Pipeline.ScoresInterval, "ODDSMITH_PIPELINE_SCORES_INTERVAL")
	setInt(&cfg.Pipeline.ScoresDaysFrom, "ODDSMITH_PIPELINE_SCORES_DAYS_FROM")
	setStr(&cfg.Pipeline.GradingCron, "ODDSMITH_PIPELINE_GRADING_CRON")
	setStr(&cfg.Pipeline.ArchiveCron, "ODDSMITH_PIPELINE_ARCHIVE_CRON")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "ODDSMITH_PIPELINE_ARCHIVE_RETENTION_DAYS")
	setBool(&cfg.Pipeline.SnapshotRaw, "ODDSMITH_PIPELINE_SNAPSHOT_RAW")
	setBool(&cfg.Pipeline.PublishFades, "ODDSMITH_PIPELINE_PUBLISH_FADES")
	setInt(&cfg.Pipeline.FadeDays, "ODDSMITH_PIPELINE_FADE_DAYS")
	setFloat64(&cfg.Pipeline.FadeThreshold, "ODDSMITH_PIPELINE_FADE_THRESHOLD")
	setInt(&cfg.Pipeline.FadeMinConfidence, "ODDSMITH_PIPELINE_FADE_MIN_CONFIDENCE")

	// ── Cache ──
	setDuration(&cfg.Cache.PredictionTTL, "ODDSMITH_CACHE_PREDICTION_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ODDSMITH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ODDSMITH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ODDSMITH_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ODDSMITH_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ODDSMITH_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ODDSMITH_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ODDSMITH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ODDSMITH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ODDSMITH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ODDSMITH_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ODDSMITH_MODE")
	setStr(&cfg.LogLevel, "ODDSMITH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
