package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	body := ErrorBody{Code: string(stdErr.Code), Message: stdErr.Message}
	if status < http.StatusInternalServerError {
		if stdErr.Details != "" {
			body.Message = stdErr.Message + ": " + stdErr.Details
		}
		if fields, ok := stdErr.Metadata["fields"]; ok {
			body.Details = fields
		}
	}

	log := logger.FromContext(r.Context(), h.logger)
	fields := map[string]interface{}{
		"code":   string(stdErr.Code),
		"status": status,
		"error":  stdErr.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields)
	} else {
		log.Warn("request rejected", fields)
	}

	writeJSON(w, status, body)
}

// decodeBody decodes an optional JSON body into dst. An empty body is fine.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperrors.NewValidationError("malformed JSON body: " + err.Error())
}

func pageRequest(r *http.Request) (models.PageRequest, error) {
	q := r.URL.Query()
	page, size := 0, 0
	var err error
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return models.PageRequest{}, apperrors.NewValidationError("page must be an integer")
		}
		if page > models.MaxPage {
			return models.PageRequest{}, apperrors.NewValidationError(fmt.Sprintf("page must not exceed %d", models.MaxPage))
		}
	}
	if v := q.Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			return models.PageRequest{}, apperrors.NewValidationError("size must be an integer")
		}
	}
	return models.NewPageRequest(page, size), nil
}
