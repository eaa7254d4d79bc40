package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Admission-Gate/Admissiongate/internal/adapter/outbound/memory"
	"github.com/Admission-Gate/Admissiongate/internal/domain/admission"
)

// discardLogger returns a logger that discards all output (for tests)
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// downStore is a counter store whose ping always fails.
type downStore struct{}

func (downStore) IncrementBatch(ctx context.Context, keys []string, ttl time.Duration) ([]int64, error) {
	return nil, errors.New("store down")
}

func (downStore) Counts(ctx context.Context, keys []string) ([]int64, error) {
	return nil, errors.New("store down")
}

func (downStore) Ping(ctx context.Context) error { return errors.New("store down") }
func (downStore) Close() error                   { return nil }

var _ admission.CounterStore = downStore{}

func TestHealthChecker_Healthy(t *testing.T) {
	store := memory.NewCounterStore()
	defer store.Close()
	violations := admission.NewViolationLog(16)

	hc := NewHealthChecker(store, violations, "test-version")
	health := hc.Check(context.Background())

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want test-version", health.Version)
	}
	if health.Checks["counter_store"] != "ok" {
		t.Errorf("counter_store check = %q, want ok", health.Checks["counter_store"])
	}
	if health.Checks["violation_log"] != "0/16" {
		t.Errorf("violation_log check = %q, want 0/16", health.Checks["violation_log"])
	}
}

func TestHealthChecker_NilComponents(t *testing.T) {
	hc := NewHealthChecker(nil, nil, "")
	health := hc.Check(context.Background())

	// Still healthy with nothing configured
	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.Checks["counter_store"] != "not configured" {
		t.Errorf("counter_store = %q, want 'not configured'", health.Checks["counter_store"])
	}
	if health.Checks["violation_log"] != "not configured" {
		t.Errorf("violation_log = %q, want 'not configured'", health.Checks["violation_log"])
	}
}

func TestHealthChecker_StoreOutageDegrades(t *testing.T) {
	hc := NewHealthChecker(downStore{}, nil, "")
	health := hc.Check(context.Background())

	if health.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", health.Status)
	}
	if !strings.Contains(health.Checks["counter_store"], "unreachable") {
		t.Errorf("counter_store = %q, want unreachable", health.Checks["counter_store"])
	}
}

func TestHealthChecker_Handler_HTTP(t *testing.T) {
	store := memory.NewCounterStore()
	defer store.Close()
	hc := NewHealthChecker(store, nil, "1.0.0")

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	hc.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", contentType)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Response status = %q, want healthy", resp.Status)
	}
	if resp.Version != "1.0.0" {
		t.Errorf("Response version = %q, want 1.0.0", resp.Version)
	}
}

func TestHealthChecker_Handler_DegradedStill200(t *testing.T) {
	// The gate admits fail-open during a store outage, so the health
	// endpoint must keep reporting 200 or orchestrators would restart a
	// working process.
	hc := NewHealthChecker(downStore{}, nil, "")

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	hc.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Response status = %q, want degraded", resp.Status)
	}
}

func TestHealthChecker_GoroutineCount(t *testing.T) {
	hc := NewHealthChecker(nil, nil, "")
	health := hc.Check(context.Background())

	// Goroutines should be a positive number string
	if health.Checks["goroutines"] == "" {
		t.Error("goroutines check should be present")
	}
	if health.Checks["goroutines"] == "0" {
		t.Error("goroutines count should be > 0")
	}
}
