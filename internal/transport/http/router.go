// Package httptransport exposes the verification workflow over HTTP.
package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"verification-workflow/internal/common/auth"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the part of the workflow service the HTTP layer calls.
type Service interface {
	ResolveActor(ctx context.Context, id string) (models.Actor, error)
	Decide(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (*workflow.Result, error)
	GetPendingApplications(ctx context.Context, actor models.Actor, page models.PageRequest) (models.Page[models.Application], error)
	GetStats(ctx context.Context) (*models.Stats, error)
	GetMetrics(ctx context.Context) (*models.VerificationMetrics, error)

	GetApplication(ctx context.Context, id string) (*models.Application, error)
	DownloadCertificate(ctx context.Context, id string) ([]byte, *models.Application, error)
	RegenerateCertificate(ctx context.Context, id string, actor models.Actor, force bool) (*models.Application, error)
	GetApprovedByVerifier(ctx context.Context, verifierID string, page models.PageRequest) (models.Page[models.Application], error)

	ListAuditRecords(ctx context.Context, page models.PageRequest) (models.Page[models.AuditRecord], error)
	ListAuditRecordsByActor(ctx context.Context, actorID string, page models.PageRequest) (models.Page[models.AuditRecord], error)
	ListAuditRecordsForApplication(ctx context.Context, applicationID string) ([]models.AuditRecord, error)
	SearchAuditRecords(ctx context.Context, query string, page models.PageRequest) (models.Page[models.AuditRecord], error)

	Submit(ctx context.Context, applicantID string, documentType models.DocumentType, formData json.RawMessage) (*models.Application, error)
	Resubmit(ctx context.Context, applicantID, previousID string, formData json.RawMessage) (*models.Application, error)
	ListByApplicant(ctx context.Context, applicantID string, page models.PageRequest) (models.Page[models.Application], error)
}

type Handler struct {
	service        Service
	auth           auth.Authenticator
	logger         logger.Logger
	requestTimeout time.Duration
}

func NewHandler(service Service, authenticator auth.Authenticator, log logger.Logger, requestTimeout time.Duration) *Handler {
	return &Handler{
		service:        service,
		auth:           authenticator,
		logger:         log.WithFields(map[string]interface{}{"component": "http"}),
		requestTimeout: requestTimeout,
	}
}

// Router builds the API routes. ops are mounted at the root without
// authentication (health, readiness, metrics).
func (h *Handler) Router(ops func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	if ops != nil {
		ops(r)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if h.requestTimeout > 0 {
			r.Use(middleware.Timeout(h.requestTimeout))
		}
		r.Use(h.authenticate)

		r.Route("/applications", func(r chi.Router) {
			// citizen
			r.Post("/", h.SubmitApplication)
			r.Get("/mine", h.ListMine)
			r.Post("/{id}/resubmit", h.ResubmitApplication)

			// verifier
			r.Get("/pending", h.GetPending)
			r.Post("/{id}/approve", h.decision(models.ActionApprove))
			r.Post("/{id}/reject", h.decision(models.ActionReject))
			r.Post("/{id}/request-change", h.decision(models.ActionRequestChanges))
			r.Post("/{id}/certificate/regenerate", h.RegenerateCertificate)
			r.Get("/{id}/audit", h.GetApplicationAudit)

			// either party
			r.Get("/{id}", h.GetApplication)
			r.Get("/{id}/certificate", h.DownloadCertificate)
		})

		r.Get("/verification/stats", h.GetStats)
		r.Get("/verification/metrics", h.GetMetrics)
		r.Get("/verifiers/{id}/approved", h.GetApprovedBy)

		r.Route("/audit-logs", func(r chi.Router) {
			r.Get("/", h.ListAuditLogs)
			r.Get("/search", h.SearchAuditLogs)
			r.Get("/user/{userId}", h.ListAuditLogsByUser)
		})
	})

	return r
}

// Health writes a static liveness response.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready runs every check and reports 503 when any of them fails.
func Ready(checks map[string]func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		body := map[string]interface{}{"status": "ready", "checks": results}
		if status != http.StatusOK {
			body["status"] = "not_ready"
		}
		writeJSON(w, status, body)
	}
}
