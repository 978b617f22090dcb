package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.ListAuditRecords(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListAuditLogsByUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.ListAuditRecordsByActor(r.Context(), chi.URLParam(r, "userId"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SearchAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.SearchAuditRecords(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
