// Package redisstore implements the shared counter store on Redis.
// Redis INCR is atomic per key, which is the property the fixed window
// needs: concurrent increments from any number of processes each
// observe a distinct post-increment value.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Admission-Gate/Admissiongate/internal/domain/admission"
)

const defaultTimeout = time.Second

// Config holds Redis connection parameters.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Timeout bounds dial, read, and write operations. Zero means one
	// second; admission must never wait on the store longer than that.
	Timeout time.Duration
}

// Store implements admission.CounterStore on a Redis client.
type Store struct {
	client *redis.Client
}

var _ admission.CounterStore = (*Store)(nil)

// New connects to Redis and verifies the connection with a ping.
func New(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Store{client: client}, nil
}

// IncrementBatch increments every key in one pipeline round trip. Each
// increment also refreshes the key's TTL; keys name a single window, so
// the refresh never extends a counter into the next window.
func (s *Store) IncrementBatch(ctx context.Context, keys []string, ttl time.Duration) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.client.TxPipeline()
	counters := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		counters[i] = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("increment pipeline: %w", err)
	}

	counts := make([]int64, len(keys))
	for i, c := range counters {
		counts[i] = c.Val()
	}
	return counts, nil
}

// Counts reads current values with MGET. Missing keys read as 0.
func (s *Store) Counts(ctx context.Context, keys []string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}

	counts := make([]int64, len(keys))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // nil for missing or expired keys
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %q holds non-integer %q", keys[i], raw)
		}
		counts[i] = n
	}
	return counts, nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (s *Store) Close() error {
	return s.client.Close()
}
