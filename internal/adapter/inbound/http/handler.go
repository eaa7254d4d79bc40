package http

import (
	"net/http"

	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
)

// EchoHandler returns the demo application handler served in dev mode.
// It reports what the chain resolved for the request, which makes it
// handy for poking at limits and the guard with curl.
func EchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"message": "request admitted",
			"method":  r.Method,
			"path":    r.URL.Path,
		}
		if id, ok := identity.FromContext(r.Context()); ok {
			resp["client"] = id.Addr
			if id.Subject != nil {
				resp["subject"] = *id.Subject
			}
		}
		if reqID := RequestIDFromContext(r.Context()); reqID != "" {
			resp["request_id"] = reqID
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// NotFoundHandler is the default application handler when none is
// configured: requests clear the chain and then 404. Embedders replace
// it via WithAppHandler.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
}
