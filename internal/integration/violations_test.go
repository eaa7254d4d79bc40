package integration

import (
	"net/http"
	"strconv"
	"testing"
)

// TestViolationLogBounded verifies the ring buffer: old denials fall off
// once capacity is reached, newest first in the feed.
func TestViolationLogBounded(t *testing.T) {
	stack := newGateStack(t, stackConfig{routeLimit: 1, violationCap: 4})

	// First request consumes the route budget; the next six all violate,
	// each from a distinct client address.
	if rec := stack.clientGet("/auth/login", "203.0.113.1"); rec.Code != http.StatusOK {
		t.Fatalf("seed request status = %d, want %d", rec.Code, http.StatusOK)
	}
	for i := 1; i <= 6; i++ {
		addr := "203.0.113." + strconv.Itoa(i)
		if rec := stack.clientGet("/auth/login", addr); rec.Code != http.StatusTooManyRequests {
			t.Fatalf("violation %d: status = %d, want %d", i, rec.Code, http.StatusTooManyRequests)
		}
	}

	rec := stack.adminReq(http.MethodGet, "/admin/api/v1/violations", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("violations status = %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decodeJSON(t, rec)
	if resp["count"] != float64(4) {
		t.Errorf("count = %v, want 4 (ring capacity)", resp["count"])
	}
	if resp["capacity"] != float64(4) {
		t.Errorf("capacity = %v, want 4", resp["capacity"])
	}

	violations := resp["violations"].([]any)
	if len(violations) != 4 {
		t.Fatalf("len(violations) = %d, want 4", len(violations))
	}
	// Newest first: clients 6, 5, 4, 3. Clients 1 and 2 fell off.
	for i, wantClient := range []string{"203.0.113.6", "203.0.113.5", "203.0.113.4", "203.0.113.3"} {
		v := violations[i].(map[string]any)
		if v["identity"] != wantClient {
			t.Errorf("violations[%d].identity = %v, want %s", i, v["identity"], wantClient)
		}
	}
}

// TestViolationsLimitParameter trims the feed without touching the log.
func TestViolationsLimitParameter(t *testing.T) {
	stack := newGateStack(t, stackConfig{routeLimit: 1, violationCap: 8})

	stack.clientGet("/auth/login", "203.0.113.20")
	for i := 0; i < 5; i++ {
		stack.clientGet("/auth/login", "203.0.113.20")
	}

	rec := stack.adminReq(http.MethodGet, "/admin/api/v1/violations?limit=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decodeJSON(t, rec)
	if resp["count"] != float64(2) {
		t.Errorf("count = %v, want 2", resp["count"])
	}

	rec = stack.adminReq(http.MethodGet, "/admin/api/v1/violations", "", "")
	if resp := decodeJSON(t, rec); resp["count"] != float64(5) {
		t.Errorf("full count = %v, want 5: limited reads must not drain the log", resp["count"])
	}
}

// TestStatusQueryIsReadOnly hammers the status endpoint and expects the
// usage counters to stay put.
func TestStatusQueryIsReadOnly(t *testing.T) {
	stack := newGateStack(t, stackConfig{routeLimit: 5})

	for i := 0; i < 3; i++ {
		if rec := stack.clientGet("/auth/login", "203.0.113.30"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	for i := 0; i < 10; i++ {
		rec := stack.adminReq(http.MethodGet, "/admin/api/v1/ratelimit/status?route=/auth/login", "", "203.0.113.30")
		if rec.Code != http.StatusOK {
			t.Fatalf("status query %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
		resp := decodeJSON(t, rec)
		if resp["used"] != float64(3) {
			t.Fatalf("used = %v after %d status queries, want 3: status must not consume budget", resp["used"], i+1)
		}
	}

	// The client still has its remaining budget.
	if rec := stack.clientGet("/auth/login", "203.0.113.30"); rec.Code != http.StatusOK {
		t.Errorf("request after status queries: status = %d, want %d", rec.Code, http.StatusOK)
	}
}
