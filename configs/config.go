package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

// Enabled reports whether enough R2 settings are present to archive objects.
func (r R2) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != ""
}

type Twitter struct {
	ConsumerKey    string
	ConsumerSecret string
	APIBase        string
	Timeout        time.Duration
	RatePerMinute  int
	// AppOnlyLookup sends batch user lookups with an application bearer
	// token instead of an account's user context.
	AppOnlyLookup bool
}

type Batch struct {
	Follow             int
	Unfollow           int
	DirectMessage      int
	DirectMessageFetch int
}

type Schedule struct {
	Sync          string
	Follow        string
	Unfollow      string
	DirectMessage string
}

type Logging struct {
	Level  slog.Level
	Format string
}

type Config struct {
	PostgresURI       string
	RedisURI          string
	HTTPAddr          string
	SecretKey         string
	CookieName        string
	WorkerConcurrency int
	Twitter           Twitter
	Batch             Batch
	Schedule          Schedule
	Logging           Logging
	R2                R2
}

const defaultSchedule = "@every 1h"

func LoadConfig() (*Config, error) {
	cfg := &Config{
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		HTTPAddr:    getEnv("HTTP_ADDR", ":3000"),
		SecretKey:   getEnv("SECRET_KEY", ""),
		CookieName:  getEnv("COOKIE_NAME", "followflow_session"),
		Twitter: Twitter{
			ConsumerKey:    getEnv("TWITTER_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("TWITTER_CONSUMER_SECRET", ""),
			APIBase:        getEnv("TWITTER_API_BASE", "https://api.twitter.com"),
		},
		Schedule: Schedule{
			Sync:          getEnv("SCHEDULE_SYNC", defaultSchedule),
			Follow:        getEnv("SCHEDULE_FOLLOW", defaultSchedule),
			Unfollow:      getEnv("SCHEDULE_UNFOLLOW", defaultSchedule),
			DirectMessage: getEnv("SCHEDULE_DIRECT_MESSAGE", defaultSchedule),
		},
		Logging: Logging{
			Level:  slog.LevelInfo,
			Format: getEnv("LOG_FORMAT", "json"),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
	}

	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"WORKER_CONCURRENCY", 4, &cfg.WorkerConcurrency},
		{"GATEWAY_RATE_PER_MINUTE", 60, &cfg.Twitter.RatePerMinute},
		{"FOLLOW_BATCH", 15, &cfg.Batch.Follow},
		{"UNFOLLOW_BATCH", 15, &cfg.Batch.Unfollow},
		{"DIRECT_MESSAGE_BATCH", 5, &cfg.Batch.DirectMessage},
		{"DIRECT_MESSAGE_FETCH", 50, &cfg.Batch.DirectMessageFetch},
	}
	for _, v := range ints {
		n, err := getEnvInt(v.key, v.fallback)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	timeout, err := getEnvInt("GATEWAY_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.Twitter.Timeout = time.Duration(timeout) * time.Second

	if v := os.Getenv("TWITTER_APP_ONLY_LOOKUP"); v != "" {
		appOnly, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TWITTER_APP_ONLY_LOOKUP: must be a boolean")
		}
		cfg.Twitter.AppOnlyLookup = appOnly
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
	}

	if n := len(cfg.SecretKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("invalid SECRET_KEY: must be 16, 24 or 32 bytes, got %d", n)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
