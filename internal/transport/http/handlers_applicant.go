package httptransport

import (
	"encoding/json"
	"net/http"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"

	"github.com/go-chi/chi/v5"
)

type SubmitRequest struct {
	DocumentType string          `json:"documentType"`
	FormData     json.RawMessage `json:"formData"`
}

type ResubmitRequest struct {
	FormData json.RawMessage `json:"formData"`
}

func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	docType, err := models.ParseDocumentType(req.DocumentType)
	if err != nil {
		h.writeError(w, r, apperrors.NewUnsupportedDocumentTypeError(req.DocumentType))
		return
	}

	app, err := h.service.Submit(r.Context(), subject(r), docType, req.FormData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) ResubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req ResubmitRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	app, err := h.service.Resubmit(r.Context(), subject(r), chi.URLParam(r, "id"), req.FormData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.ListByApplicant(r.Context(), subject(r), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
