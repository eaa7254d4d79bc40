package admin

import (
	"errors"
	"net/http"

	"github.com/Admission-Gate/Admissiongate/internal/service"
)

// domainsRequest is the JSON body for the replace and add endpoints.
// Replace reads Domains; add reads Domain.
type domainsRequest struct {
	Domain  string   `json:"domain,omitempty"`
	Domains []string `json:"domains,omitempty"`
}

// domainsResponse is the JSON representation of the allow-list.
type domainsResponse struct {
	Domains    []string `json:"domains"`
	Count      int      `json:"count"`
	Persistent bool     `json:"persistent"`
}

// handleListDomains returns the current egress allow-list.
// GET /admin/api/v1/egress/domains
func (h *AdminAPIHandler) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains := h.egressAdmin.List()
	h.respondJSON(w, http.StatusOK, domainsResponse{
		Domains:    domains,
		Count:      len(domains),
		Persistent: h.egressAdmin.Persistent(),
	})
}

// handleReplaceDomains swaps the entire allow-list.
// PUT /admin/api/v1/egress/domains
func (h *AdminAPIHandler) handleReplaceDomains(w http.ResponseWriter, r *http.Request) {
	var req domainsRequest
	if err := h.readJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	applied, err := h.egressAdmin.Replace(req.Domains)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDomain) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to replace allow-list", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to persist allow-list")
		return
	}

	h.respondJSON(w, http.StatusOK, domainsResponse{
		Domains:    applied,
		Count:      len(applied),
		Persistent: h.egressAdmin.Persistent(),
	})
}

// handleAddDomain adds one hostname to the allow-list.
// POST /admin/api/v1/egress/domains
func (h *AdminAPIHandler) handleAddDomain(w http.ResponseWriter, r *http.Request) {
	var req domainsRequest
	if err := h.readJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Domain == "" {
		h.respondError(w, http.StatusBadRequest, "domain is required")
		return
	}

	added, err := h.egressAdmin.Add(req.Domain)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDomain) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to add domain", "domain", req.Domain, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to persist allow-list")
		return
	}
	if !added {
		h.respondError(w, http.StatusConflict, "domain already on the allow-list")
		return
	}

	domains := h.egressAdmin.List()
	h.respondJSON(w, http.StatusCreated, domainsResponse{
		Domains:    domains,
		Count:      len(domains),
		Persistent: h.egressAdmin.Persistent(),
	})
}

// handleDeleteDomain removes one hostname from the allow-list.
// DELETE /admin/api/v1/egress/domains/{domain}
func (h *AdminAPIHandler) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	domain := h.pathParam(r, "domain")

	removed, err := h.egressAdmin.Remove(domain)
	if err != nil {
		h.logger.Error("failed to remove domain", "domain", domain, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to persist allow-list")
		return
	}
	if !removed {
		h.respondError(w, http.StatusNotFound, "domain not on the allow-list")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
