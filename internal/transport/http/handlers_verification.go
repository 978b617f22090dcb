package httptransport

import (
	"fmt"
	"net/http"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"

	"github.com/go-chi/chi/v5"
)

type DecisionRequest struct {
	Remarks string `json:"remarks"`
}

type RegenerateRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) decision(action models.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.actor(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		var req DecisionRequest
		if err := decodeBody(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}

		res, err := h.service.Decide(r.Context(), chi.URLParam(r, "id"), actor, action, req.Remarks)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.service.GetPendingApplications(r.Context(), actor, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.service.GetMetrics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// visibleApplication loads an application for a verifier or for the citizen
// who owns it. Anyone else gets NOT_FOUND.
func (h *Handler) visibleApplication(r *http.Request, id string) (*models.Application, error) {
	app, err := h.service.GetApplication(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID == subject(r) {
		return app, nil
	}
	if _, err := h.actor(r); err != nil {
		return nil, apperrors.NewNotFoundError("application", id)
	}
	return app, nil
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.visibleApplication(r, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) DownloadCertificate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.visibleApplication(r, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	blob, app, err := h.service.DownloadCertificate(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-certificate-%s.pdf"`, app.DocumentType.String(), app.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (h *Handler) RegenerateCertificate(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req RegenerateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	app, err := h.service.RegenerateCertificate(r.Context(), chi.URLParam(r, "id"), actor, req.Force)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) GetApplicationAudit(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	records, err := h.service.ListAuditRecordsForApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) GetApprovedBy(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.GetApprovedByVerifier(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
