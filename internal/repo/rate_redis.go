package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// rateKeyPrefix namespaces rate window hashes.
const rateKeyPrefix = "signup:rate:"

// RedisRateStore keeps the fixed windows of one (scope, identifier) in a
// Redis hash: field = window start (unix seconds), value = request count.
// Each write refreshes the hash TTL to two windows, so stale identifiers
// expire on their own.
type RedisRateStore struct {
	client *redis.Client
	prefix string
}

// RedisRateStoreOption configures a RedisRateStore instance.
type RedisRateStoreOption func(*RedisRateStore)

// WithKeyPrefix overrides the default key namespace.
func WithKeyPrefix(prefix string) RedisRateStoreOption {
	return func(s *RedisRateStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisRateStore constructs a Redis-backed rate window store.
func NewRedisRateStore(client *redis.Client, opts ...RedisRateStoreOption) *RedisRateStore {
	s := &RedisRateStore{client: client, prefix: rateKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (s *RedisRateStore) key(scope domain.RateScope, identifier string) string {
	return s.prefix + string(scope) + ":" + identifier
}

// SumRequests adds the counters of every window starting at or after since.
func (s *RedisRateStore) SumRequests(ctx context.Context, scope domain.RateScope, identifier string, since time.Time) (int64, error) {
	fields, err := s.client.HGetAll(ctx, s.key(scope, identifier)).Result()
	if err != nil {
		return 0, err
	}
	cutoff := since.UTC().Unix()
	var total int64
	for field, value := range fields {
		start, err := strconv.ParseInt(field, 10, 64)
		if err != nil || start < cutoff {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		total += n
	}
	return total, nil
}

// RecordRequest increments the window containing ts.
func (s *RedisRateStore) RecordRequest(ctx context.Context, scope domain.RateScope, identifier string, ts time.Time) error {
	start, err := scope.WindowStart(ts)
	if err != nil {
		return err
	}
	window, _ := scope.Window()
	key := s.key(scope, identifier)

	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, strconv.FormatInt(start.Unix(), 10), 1)
	pipe.Expire(ctx, key, 2*window)
	_, err = pipe.Exec(ctx)
	return err
}
