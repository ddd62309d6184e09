package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Session storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Server captures console server level configuration.
type Server struct {
	Addr        string
	BackendURL  string
	HTTPTimeout time.Duration
	LogLevel    string
	LogFormat   string
	Session     Session
	Redis       RedisConfig
}

// Session selects where credential slots are persisted.
type Session struct {
	Storage string
	Dir     string
}

// RedisConfig configures the Redis slot store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	storage := strings.ToLower(getEnv("EVOTING_SESSION_STORAGE", StorageMemory))
	if os.Getenv("EVOTING_SESSION_STORAGE") == "" && os.Getenv("REDIS_URL") != "" {
		storage = StorageRedis
	}

	return Server{
		Addr:        getEnv("EVOTING_CONSOLE_ADDR", ":8080"),
		BackendURL:  getEnv("EVOTING_BACKEND_URL", "http://localhost:8081"),
		HTTPTimeout: getDuration("EVOTING_HTTP_TIMEOUT", 15*time.Second),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Session: Session{
			Storage: storage,
			Dir:     os.Getenv("EVOTING_SESSION_DIR"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "evoting:session:"),
		},
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}
