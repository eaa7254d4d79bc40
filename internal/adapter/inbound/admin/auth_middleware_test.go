package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
)

// dummyHandler returns a 200 OK with a fixed body for middleware testing.
func dummyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestIsLocalhost(t *testing.T) {
	cases := []struct {
		remoteAddr string
		want       bool
	}{
		{"127.0.0.1:54321", true},
		{"[::1]:54321", true},
		{"localhost:8080", true},
		{"192.168.1.10:443", false},
		{"203.0.113.7:1234", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/violations", nil)
		req.RemoteAddr = tc.remoteAddr
		if got := isLocalhost(req); got != tc.want {
			t.Errorf("isLocalhost(%q) = %v, want %v", tc.remoteAddr, got, tc.want)
		}
	}
}

func TestAuth_LocalhostBypass(t *testing.T) {
	h := NewAdminAPIHandler() // no key hash configured
	handler := h.authMiddleware(dummyHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/violations", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("localhost request: status = %d, want 200", rec.Code)
	}
}

func TestAuth_RemoteWithoutKeyHash_Forbidden(t *testing.T) {
	h := NewAdminAPIHandler()
	handler := h.authMiddleware(dummyHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/violations", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote request without configured key: status = %d, want 403", rec.Code)
	}
}

func TestAuth_RemoteWithValidKey_Succeeds(t *testing.T) {
	h := NewAdminAPIHandler(WithAPIKeyHash(identity.HashKey("admin-secret")))
	handler := h.authMiddleware(dummyHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/violations", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	req.Header.Set("Authorization", "Bearer admin-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("valid key: status = %d, want 200", rec.Code)
	}
}

func TestAuth_RemoteWithWrongKey_Unauthorized(t *testing.T) {
	h := NewAdminAPIHandler(WithAPIKeyHash(identity.HashKey("admin-secret")))
	handler := h.authMiddleware(dummyHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/violations", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d, want 401", rec.Code)
	}
}

func TestAuth_RemoteWithoutToken_Unauthorized(t *testing.T) {
	h := NewAdminAPIHandler(WithAPIKeyHash(identity.HashKey("admin-secret")))
	handler := h.authMiddleware(dummyHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/violations", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"bearer abc123", "abc123", true},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		got, ok := bearerToken(req)
		if got != tc.want || ok != tc.ok {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
