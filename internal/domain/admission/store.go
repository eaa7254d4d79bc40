package admission

import (
	"context"
	"time"
)

// CounterStore is the shared atomic counter backend for the fixed
// window. Interface owned by domain per hexagonal architecture.
//
// Correctness depends on increments being atomic per key: concurrent
// callers incrementing the same key must each observe a distinct
// post-increment value. Atomicity across keys is not required.
type CounterStore interface {
	// IncrementBatch atomically increments each key by one and arranges
	// for it to expire after ttl, returning the post-increment values in
	// key order. A key created by the increment starts at 1. Partial
	// results are not returned: any failure fails the whole batch.
	IncrementBatch(ctx context.Context, keys []string, ttl time.Duration) ([]int64, error)

	// Counts returns the current values in key order without modifying
	// anything. Missing or expired keys read as 0.
	Counts(ctx context.Context, keys []string) ([]int64, error)

	// Ping reports whether the store is reachable. Used by health checks.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
