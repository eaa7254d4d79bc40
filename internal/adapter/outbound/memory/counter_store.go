package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Admission-Gate/Admissiongate/internal/domain/admission"
)

// counterCell is one key's count and expiry.
type counterCell struct {
	count     int64
	expiresAt time.Time
}

// CounterStore implements admission.CounterStore in process memory.
// Thread-safe. Counters are shared only within one process, so it suits
// tests and single-instance deployments; multi-instance deployments
// need the Redis store. Includes background cleanup to prevent
// unbounded growth from expired windows.
type CounterStore struct {
	cells           map[string]*counterCell
	mu              sync.Mutex
	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
	cleanupInterval time.Duration
}

// NewCounterStore creates an in-memory counter store with the default
// cleanup interval of one minute.
func NewCounterStore() *CounterStore {
	return NewCounterStoreWithConfig(time.Minute)
}

// NewCounterStoreWithConfig creates an in-memory counter store with a
// custom cleanup interval.
func NewCounterStoreWithConfig(cleanupInterval time.Duration) *CounterStore {
	return &CounterStore{
		cells:           make(map[string]*counterCell),
		stopChan:        make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}
}

// IncrementBatch increments every key under one lock acquisition, which
// makes each per-key increment atomic with respect to concurrent calls.
// Expired cells are reset before incrementing, mirroring how an expired
// Redis key would restart at 1.
func (s *CounterStore) IncrementBatch(ctx context.Context, keys []string, ttl time.Duration) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	counts := make([]int64, len(keys))
	for i, key := range keys {
		c, ok := s.cells[key]
		if !ok || now.After(c.expiresAt) {
			c = &counterCell{}
			s.cells[key] = c
		}
		c.count++
		c.expiresAt = now.Add(ttl)
		counts[i] = c.count
	}
	return counts, nil
}

// Counts reads current values without side effects. Missing or expired
// keys read as 0.
func (s *CounterStore) Counts(ctx context.Context, keys []string) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	counts := make([]int64, len(keys))
	for i, key := range keys {
		if c, ok := s.cells[key]; ok && !now.After(c.expiresAt) {
			counts[i] = c.count
		}
	}
	return counts, nil
}

// Ping always succeeds; the store lives in this process.
func (s *CounterStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// StartCleanup starts the background goroutine removing expired cells.
// It stops when ctx is cancelled or Close is called.
func (s *CounterStore) StartCleanup(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

// cleanup removes expired cells. Only called by the cleanup goroutine.
func (s *CounterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for key, c := range s.cells {
		if now.After(c.expiresAt) {
			delete(s.cells, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		slog.Debug("counter store cleanup completed",
			"cleaned_keys", cleaned,
			"remaining_keys", len(s.cells))
	}
}

// Close stops the cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (s *CounterStore) Close() error {
	s.once.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// Size returns the current number of tracked keys.
// Useful for testing and monitoring memory usage.
func (s *CounterStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cells)
}

// Compile-time interface verification.
var _ admission.CounterStore = (*CounterStore)(nil)
