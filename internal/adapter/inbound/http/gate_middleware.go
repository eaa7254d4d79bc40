package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
	"github.com/Admission-Gate/Admissiongate/internal/service"
)

// errMalformedJSON marks a request body that claims to be JSON but does
// not parse. Such requests are rejected rather than silently passed.
var errMalformedJSON = errors.New("malformed json body")

// GuardMiddleware scans the query string (and the JSON object body, when
// present) for outbound URLs and rejects the request with a generic 400
// if any candidate is unsafe. The body is restored for downstream
// handlers.
//
// The response reveals neither which field failed nor why: an allow-list
// miss and a private resolved address look identical to the caller.
func GuardMiddleware(guard *service.EgressGuardService, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := jsonObjectBody(r)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
						"error": "request too large",
					})
					return
				}
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "invalid URL parameter",
				})
				return
			}

			unsafe := false
			for _, v := range guard.Scan(r.Context(), r.URL.Query(), body) {
				if metrics != nil {
					metrics.GuardVerdicts.WithLabelValues(strconv.FormatBool(v.Safe)).Inc()
				}
				if !v.Safe {
					unsafe = true
				}
			}
			if unsafe {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "invalid URL parameter",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// jsonObjectBody reads and restores the request body, returning the
// top-level JSON object when there is one to scan.
//
// Returns (nil, nil) for non-JSON content types, empty bodies, and
// valid JSON that is not an object (arrays and scalars carry no named
// fields to scan). Returns errMalformedJSON when the content type says
// JSON but the body does not parse, and passes through the
// http.MaxBytesError when reading trips the body cap.
func jsonObjectBody(r *http.Request) (map[string]any, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, nil
	}
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	// Restore whatever was read so downstream handlers see the body even
	// when parsing fails.
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errMalformedJSON
	}
	if obj, ok := parsed.(map[string]any); ok {
		return obj, nil
	}
	return nil, nil
}

// AdmissionMiddleware checks the request against the fixed-window
// budgets and rejects exhausted clients with 429 and a Retry-After
// header. Fail-open admissions pass through like normal allows; only
// telemetry can tell them apart.
func AdmissionMiddleware(svc *service.AdmissionService, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				// Identity middleware not mounted; every such request
				// shares the unknown bucket rather than bypassing limits.
				id = identity.ClientIdentity{Addr: identity.UnknownAddress}
			}

			decision := svc.Admit(r.Context(), id, r.URL.Path)

			if metrics != nil {
				dim := string(decision.Dimension)
				if dim == "" {
					dim = "none"
				}
				metrics.AdmissionDecisions.WithLabelValues(dim, strconv.FormatBool(decision.Allowed)).Inc()
				if decision.FailOpen {
					metrics.AdmissionFailOpen.Inc()
				}
				metrics.ViolationLogSize.Set(float64(svc.Violations().Len()))
			}

			if !decision.Allowed {
				retryAfter := int(decision.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":       "rate limit exceeded",
					"message":     "too many requests, retry later",
					"retry_after": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
