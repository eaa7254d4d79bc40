package admin

import (
	"net/http"
	"strconv"

	"github.com/Admission-Gate/Admissiongate/internal/domain/admission"
)

// defaultViolationLimit is how many records a query without an explicit
// limit returns.
const defaultViolationLimit = 100

// violationsResponse wraps the violation records returned by the API.
type violationsResponse struct {
	Violations []admission.ViolationRecord `json:"violations"`
	Count      int                         `json:"count"`
	Capacity   int                         `json:"capacity"`
}

// handleListViolations returns recent rate-limit denials, newest first.
// GET /admin/api/v1/violations?limit=N
func (h *AdminAPIHandler) handleListViolations(w http.ResponseWriter, r *http.Request) {
	limit := defaultViolationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	log := h.admission.Violations()
	records := log.Recent(limit)
	if records == nil {
		records = []admission.ViolationRecord{}
	}

	h.respondJSON(w, http.StatusOK, violationsResponse{
		Violations: records,
		Count:      len(records),
		Capacity:   log.Cap(),
	})
}
