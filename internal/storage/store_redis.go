package storage

import (
	"context"
	"errors"
	"time"

	"evoting/pkg/platform/sentinel"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var redisSlotDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "evoting_credential_slot_redis_duration_seconds",
	Help:    "Latency of credential slot operations against Redis",
	Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
}, []string{"op"})

// DefaultRedisKeyPrefix namespaces credential slots in a shared Redis.
const DefaultRedisKeyPrefix = "evoting:session:"

// RedisSlotStore keeps credential slots in Redis so several console replicas
// behind one operator login share the same session.
type RedisSlotStore struct {
	client *redis.Client
	prefix string
}

// RedisSlotStoreOption configures a RedisSlotStore.
type RedisSlotStoreOption func(*RedisSlotStore)

// WithKeyPrefix overrides DefaultRedisKeyPrefix.
func WithKeyPrefix(prefix string) RedisSlotStoreOption {
	return func(s *RedisSlotStore) {
		s.prefix = prefix
	}
}

func NewRedisSlotStore(client *redis.Client, opts ...RedisSlotStoreOption) *RedisSlotStore {
	s := &RedisSlotStore{client: client, prefix: DefaultRedisKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisSlotStore) Get(ctx context.Context, key string) (string, error) {
	defer observe("get", time.Now())
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set stores the slot without a TTL; credential expiry is carried by the
// credential itself.
func (s *RedisSlotStore) Set(ctx context.Context, key, value string) error {
	defer observe("set", time.Now())
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisSlotStore) Delete(ctx context.Context, key string) error {
	defer observe("delete", time.Now())
	return s.client.Del(ctx, s.prefix+key).Err()
}

func observe(op string, start time.Time) {
	redisSlotDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
