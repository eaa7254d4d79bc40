package admin

import (
	"net"
	"net/http"
	"strings"

	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
)

// isLocalhost checks if the request originates from a loopback address.
// It parses the host portion from r.RemoteAddr and checks for 127.0.0.1,
// ::1, or localhost. Proxy headers are intentionally NOT trusted here:
// an attacker could spoof them, and the admin API keys trust on the
// actual peer address.
func isLocalhost(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port (unlikely with net/http, but be safe).
		host = r.RemoteAddr
	}
	return host == "127.0.0.1" || host == "::1" || host == "localhost"
}

// authMiddleware enforces admin API access control. Localhost requests
// bypass auth entirely. Remote requests must present the configured API
// key as a bearer token; when no key hash is configured, remote access
// is rejected outright.
func (h *AdminAPIHandler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isLocalhost(r) {
			next.ServeHTTP(w, r)
			return
		}

		if h.apiKeyHash == "" {
			h.respondError(w, http.StatusForbidden, "admin API requires localhost access")
			return
		}

		key, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			h.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		match, err := identity.VerifyKey(key, h.apiKeyHash)
		if err != nil {
			h.logger.Error("admin key hash unusable", "error", err)
			h.respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !match {
			h.logger.Warn("admin auth failed", "remote_addr", r.RemoteAddr)
			h.respondError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an "Authorization: Bearer ..."
// header. The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}
