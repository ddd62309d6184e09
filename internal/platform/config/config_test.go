package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"EVOTING_CONSOLE_ADDR", "EVOTING_BACKEND_URL", "EVOTING_SESSION_STORAGE", "REDIS_URL", "EVOTING_HTTP_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8081", cfg.BackendURL)
	assert.Equal(t, StorageMemory, cfg.Session.Storage)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("EVOTING_CONSOLE_ADDR", ":9000")
	t.Setenv("EVOTING_SESSION_STORAGE", "FILE")
	t.Setenv("EVOTING_SESSION_DIR", "/var/lib/evoting")
	t.Setenv("EVOTING_HTTP_TIMEOUT", "2s")
	t.Setenv("REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, StorageFile, cfg.Session.Storage)
	assert.Equal(t, "/var/lib/evoting", cfg.Session.Dir)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestFromEnv_RedisURLImpliesRedisStorage(t *testing.T) {
	t.Setenv("EVOTING_SESSION_STORAGE", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	assert.Equal(t, StorageRedis, FromEnv().Session.Storage)
}
