package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Admission-Gate/Admissiongate/internal/domain/admission"
)

// pingTimeout bounds the counter store probe so a hung store cannot
// hang the health endpoint.
const pingTimeout = 500 * time.Millisecond

// HealthResponse is the JSON response from the /healthz endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "degraded"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker verifies component health.
type HealthChecker struct {
	store      admission.CounterStore
	violations *admission.ViolationLog
	version    string
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil for components that aren't available.
func NewHealthChecker(
	store admission.CounterStore,
	violations *admission.ViolationLog,
	version string,
) *HealthChecker {
	return &HealthChecker{
		store:      store,
		violations: violations,
		version:    version,
	}
}

// Check performs health checks on all components.
// An unreachable counter store degrades the status but never fails it:
// admission fails open, so the gate keeps serving without the store.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]string)
	degraded := false

	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		if err := h.store.Ping(pingCtx); err != nil {
			checks["counter_store"] = fmt.Sprintf("unreachable: %v (admitting fail-open)", err)
			degraded = true
		} else {
			checks["counter_store"] = "ok"
		}
		cancel()
	} else {
		checks["counter_store"] = "not configured"
	}

	if h.violations != nil {
		checks["violation_log"] = fmt.Sprintf("%d/%d", h.violations.Len(), h.violations.Cap())
	} else {
		checks["violation_log"] = "not configured"
	}

	// Add Go runtime info
	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if degraded {
		status = "degraded"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
// The response is always 200: a degraded gate still admits requests.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(health)
	})
}
