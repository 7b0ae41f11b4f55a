package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{
		"HENRIK_API_KEY", "HENRIK_BASE_URL", "HENRIK_RATE_PER_MINUTE", "DEFAULT_REGION",
		"CACHE_URL", "REDIS_URL", "REDIS_QUEUE", "WORKER_COUNT", "JOB_BUFFER_SIZE",
		"HTTP_ADDR", "CURRENT_SEASON_ID", "PAGE_SIZE", "SESSION_TTL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{"CACHE_URL": "redis://localhost:6379/0"})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultHenrikBaseURL, cfg.HenrikBaseURL)
	assert.Equal(t, "eu", cfg.DefaultRegion)
	assert.Equal(t, defaultSeasonID, cfg.CurrentSeasonID)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 30, cfg.HenrikRatePerMinute)
	assert.Equal(t, "season_cleanup", cfg.RedisQueue)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL, "queue should share a redis cache")
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.HasAPIKey())
}

func TestLoadRequiresCacheURL(t *testing.T) {
	setEnv(t, nil)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_URL")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad season", map[string]string{"CURRENT_SEASON_ID": "v25a6"}, "CURRENT_SEASON_ID"},
		{"bad page size", map[string]string{"PAGE_SIZE": "zero"}, "PAGE_SIZE"},
		{"negative workers", map[string]string{"WORKER_COUNT": "-2"}, "WORKER_COUNT"},
		{"bad ttl", map[string]string{"SESSION_TTL": "soon"}, "SESSION_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{"CACHE_URL": "memory://"}
			for k, v := range tt.env {
				env[k] = v
			}
			setEnv(t, env)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"CACHE_URL":         "postgres://tracker@localhost/tracker",
		"HENRIK_API_KEY":    "HDEV-test",
		"DEFAULT_REGION":    "NA",
		"CURRENT_SEASON_ID": "52DD6F00-463A-18A1-80AA-649C3E38A59E",
		"SESSION_TTL":       "5m",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasAPIKey())
	assert.Equal(t, "na", cfg.DefaultRegion)
	assert.Equal(t, "52dd6f00-463a-18a1-80aa-649c3e38a59e", cfg.CurrentSeasonID)
	assert.Empty(t, cfg.RedisURL, "postgres cache must not be used as a queue")
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
}
