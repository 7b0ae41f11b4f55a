package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	defaultHenrikBaseURL = "https://api.henrikdev.xyz"
	defaultRegion        = "eu"
	defaultQueue         = "season_cleanup"
	defaultHTTPAddr      = ":8080"
	defaultSeasonID      = "4c4b8cff-43eb-13d3-8f14-96b783c90cd2"
	defaultPageSize      = 10
	defaultRatePerMinute = 30
	defaultWorkerCount   = 1
	defaultJobBufferSize = 100
	defaultSessionTTL    = 30 * time.Minute
	defaultLogLevel      = "info"
)

// Config holds runtime configuration for the tracker service.
type Config struct {
	HenrikAPIKey        string
	HenrikBaseURL       string
	HenrikRatePerMinute int
	DefaultRegion       string

	CacheURL   string
	RedisURL   string
	RedisQueue string

	WorkerCount   int
	JobBufferSize int

	HTTPAddr        string
	CurrentSeasonID string
	PageSize        int
	SessionTTL      time.Duration
	LogLevel        string
}

// Load builds a Config from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HenrikAPIKey:    os.Getenv("HENRIK_API_KEY"),
		HenrikBaseURL:   envOr("HENRIK_BASE_URL", defaultHenrikBaseURL),
		DefaultRegion:   strings.ToLower(envOr("DEFAULT_REGION", defaultRegion)),
		CacheURL:        os.Getenv("CACHE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisQueue:      envOr("REDIS_QUEUE", defaultQueue),
		HTTPAddr:        envOr("HTTP_ADDR", defaultHTTPAddr),
		CurrentSeasonID: strings.ToLower(envOr("CURRENT_SEASON_ID", defaultSeasonID)),
		LogLevel:        envOr("LOG_LEVEL", defaultLogLevel),
	}

	if cfg.CacheURL == "" {
		return nil, fmt.Errorf("CACHE_URL is required")
	}

	if _, err := uuid.Parse(cfg.CurrentSeasonID); err != nil {
		return nil, fmt.Errorf("CURRENT_SEASON_ID must be a season uuid: %w", err)
	}

	// The cleanup queue shares the cache instance unless told otherwise.
	if cfg.RedisURL == "" && isRedisURL(cfg.CacheURL) {
		cfg.RedisURL = cfg.CacheURL
	}

	var err error
	if cfg.HenrikRatePerMinute, err = envInt("HENRIK_RATE_PER_MINUTE", defaultRatePerMinute); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = envInt("PAGE_SIZE", defaultPageSize); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = envInt("WORKER_COUNT", defaultWorkerCount); err != nil {
		return nil, err
	}
	if cfg.JobBufferSize, err = envInt("JOB_BUFFER_SIZE", defaultJobBufferSize); err != nil {
		return nil, err
	}

	cfg.SessionTTL = defaultSessionTTL
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("SESSION_TTL must be a positive duration, got %q", raw)
		}
		cfg.SessionTTL = ttl
	}

	return cfg, nil
}

// HasAPIKey reports whether the upstream credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.HenrikAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func isRedisURL(u string) bool {
	return strings.HasPrefix(u, "redis://") || strings.HasPrefix(u, "rediss://")
}
