// Package admin provides the JSON operator API for Admission Gate.
//
// The API is mounted at /admin/api/v1/ and lets operators mutate the
// egress allow-list, read recent rate-limit violations, and query a
// client's remaining budget. It carries its own auth (localhost bypass
// or a hashed API key) and its own per-IP rate limiter; admission-chain
// middleware never runs on admin routes.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
	"github.com/Admission-Gate/Admissiongate/internal/service"
)

// Default admin rate limits when no option overrides them.
const (
	defaultRatePerMinute = 60
	defaultBurst         = 10
)

// AdminAPIHandler provides the JSON endpoints for the admin interface.
type AdminAPIHandler struct {
	admission   *service.AdmissionService
	egressAdmin *service.EgressAdminService
	resolver    *identity.Resolver
	apiKeyHash  string // empty means localhost-only access
	ratePerMin  int
	burst       int
	logger      *slog.Logger
}

// AdminAPIOption configures an AdminAPIHandler dependency.
type AdminAPIOption func(*AdminAPIHandler)

// WithAdmissionService sets the admission service for status and
// violation queries.
func WithAdmissionService(s *service.AdmissionService) AdminAPIOption {
	return func(h *AdminAPIHandler) { h.admission = s }
}

// WithEgressAdminService sets the allow-list mutation service.
func WithEgressAdminService(s *service.EgressAdminService) AdminAPIOption {
	return func(h *AdminAPIHandler) { h.egressAdmin = s }
}

// WithResolver sets the identity resolver used to key status queries.
func WithResolver(r *identity.Resolver) AdminAPIOption {
	return func(h *AdminAPIHandler) { h.resolver = r }
}

// WithAPIKeyHash sets the "sha256:"-prefixed hash remote callers must
// present a key for. Empty restricts the API to localhost.
func WithAPIKeyHash(hash string) AdminAPIOption {
	return func(h *AdminAPIHandler) { h.apiKeyHash = hash }
}

// WithRateLimit sets the per-IP request budget (requests per minute and
// burst) for remote admin callers.
func WithRateLimit(perMinute, burst int) AdminAPIOption {
	return func(h *AdminAPIHandler) {
		if perMinute > 0 {
			h.ratePerMin = perMinute
		}
		if burst > 0 {
			h.burst = burst
		}
	}
}

// WithAPILogger sets the logger.
func WithAPILogger(l *slog.Logger) AdminAPIOption {
	return func(h *AdminAPIHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewAdminAPIHandler creates a new AdminAPIHandler with the given options.
func NewAdminAPIHandler(opts ...AdminAPIOption) *AdminAPIHandler {
	h := &AdminAPIHandler{
		ratePerMin: defaultRatePerMinute,
		burst:      defaultBurst,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns an http.Handler with all admin API routes registered.
// Patterns carry the full /admin/api/v1 prefix: the transport mounts
// this handler without rewriting r.URL.Path, and net/http matches on
// the unmodified path.
func (h *AdminAPIHandler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Egress allow-list.
	mux.HandleFunc("GET /admin/api/v1/egress/domains", h.handleListDomains)
	mux.HandleFunc("PUT /admin/api/v1/egress/domains", h.handleReplaceDomains)
	mux.HandleFunc("POST /admin/api/v1/egress/domains", h.handleAddDomain)
	mux.HandleFunc("DELETE /admin/api/v1/egress/domains/{domain}", h.handleDeleteDomain)

	// Rate-limit observability.
	mux.HandleFunc("GET /admin/api/v1/violations", h.handleListViolations)
	mux.HandleFunc("GET /admin/api/v1/ratelimit/status", h.handleRateLimitStatus)

	// Auth innermost so the rate limiter also covers failed auth
	// attempts, security headers outermost so every response carries
	// them.
	protected := h.authMiddleware(mux)
	limited := apiRateLimitMiddleware(h.ratePerMin, h.burst, protected)
	return cspMiddleware(limited)
}

// --- JSON helper methods ---

// respondJSON writes a JSON response with the given status code and data.
func (h *AdminAPIHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a JSON error response with the given status code and message.
func (h *AdminAPIHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes the request body into the given value.
func (h *AdminAPIHandler) readJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// pathParam extracts a named path parameter from the request URL.
func (h *AdminAPIHandler) pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
