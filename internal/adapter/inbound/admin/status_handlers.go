package admin

import (
	"net/http"
	"strings"
)

// handleRateLimitStatus reports the calling client's remaining budget
// on a route without consuming any of it. The client is resolved from
// the request the same way the admission chain resolves it.
// GET /admin/api/v1/ratelimit/status?route=/api/orders
func (h *AdminAPIHandler) handleRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("route")
	if route == "" {
		h.respondError(w, http.StatusBadRequest, "route query parameter is required")
		return
	}
	if !strings.HasPrefix(route, "/") {
		h.respondError(w, http.StatusBadRequest, "route must start with /")
		return
	}

	id := h.resolver.Resolve(r)
	status, err := h.admission.Status(r.Context(), id, route)
	if err != nil {
		h.logger.Error("rate limit status query failed", "route", route, "error", err)
		h.respondError(w, http.StatusServiceUnavailable, "counter store unavailable")
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}
