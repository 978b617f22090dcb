package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/metrics"
	"verification-workflow/internal/common/observability"
	"verification-workflow/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Dependencies wires the desk router to its collaborators. Store, Tx, Audit,
// Directory and Trigger are required.
type Dependencies struct {
	Store         ApplicationStore
	Tx            TxRunner
	Directory     VerifierDirectory
	Audit         AuditSink
	AuditLog      AuditLog
	AuditSearch   AuditSearcher
	Trigger       CertificateTrigger
	Forms         FormValidator
	Stats         StatsProvider
	Hooks         []CommitHook
	Observability *observability.Observability
	Now           func() time.Time
	NewID         func() string
}

// Service is the desk router. Every operation takes the acting identity
// explicitly; nothing is looked up from ambient state.
type Service struct {
	deps   Dependencies
	logger logger.Logger
}

// Result is the application state after a verifier action. Warnings carry
// non-fatal problems such as a failed certificate render.
type Result struct {
	Application *models.Application `json:"application"`
	Warnings    []string            `json:"warnings,omitempty"`
}

func NewService(deps Dependencies, log logger.Logger) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, apperrors.NewConfigurationError("workflow: application store is required")
	case deps.Tx == nil:
		return nil, apperrors.NewConfigurationError("workflow: transaction runner is required")
	case deps.Audit == nil:
		return nil, apperrors.NewConfigurationError("workflow: audit sink is required")
	case deps.Directory == nil:
		return nil, apperrors.NewConfigurationError("workflow: verifier directory is required")
	case deps.Trigger == nil:
		return nil, apperrors.NewConfigurationError("workflow: certificate trigger is required")
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.NewString() }
	}
	return &Service{
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "desk-router"}),
	}, nil
}

// ResolveActor loads a verifier from the directory and checks it may act.
func (s *Service) ResolveActor(ctx context.Context, id string) (models.Actor, error) {
	user, err := s.deps.Directory.GetVerifier(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeNotFound) {
			return models.Actor{}, apperrors.NewUnauthorizedError("actor is not a verifier")
		}
		return models.Actor{}, err
	}
	actor := user.Actor()
	if err := checkActor(actor); err != nil {
		return models.Actor{}, err
	}
	return actor, nil
}

func checkActor(actor models.Actor) error {
	if err := checkAccount(actor); err != nil {
		return err
	}
	if !actor.Designation.Valid() {
		return apperrors.NewUnauthorizedError("verifier has no designation")
	}
	return nil
}

func checkAccount(actor models.Actor) error {
	switch {
	case actor.ID == "":
		return apperrors.NewUnauthorizedError("no acting verifier")
	case !actor.Enabled:
		return apperrors.NewUnauthorizedError("verifier account is disabled")
	case actor.Blocked:
		return apperrors.NewUnauthorizedError("verifier account is blocked")
	}
	return nil
}

// Approve advances the application one desk. A senior approval at DESK_2 is
// terminal and renders the certificate in the same transaction.
func (s *Service) Approve(ctx context.Context, applicationID string, actor models.Actor, remarks string) (*Result, error) {
	return s.decide(ctx, applicationID, actor, models.ActionApprove, remarks)
}

// Reject closes the application. Remarks become the rejection reason.
func (s *Service) Reject(ctx context.Context, applicationID string, actor models.Actor, remarks string) (*Result, error) {
	return s.decide(ctx, applicationID, actor, models.ActionReject, remarks)
}

// RequestChanges returns the application to the applicant.
func (s *Service) RequestChanges(ctx context.Context, applicationID string, actor models.Actor, remarks string) (*Result, error) {
	return s.decide(ctx, applicationID, actor, models.ActionRequestChanges, remarks)
}

// Decide dispatches on action. Used by the Zeebe decision worker.
func (s *Service) Decide(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (*Result, error) {
	return s.decide(ctx, applicationID, actor, action, remarks)
}

func (s *Service) decide(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (res *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "workflow."+strings.ToLower(action.String()),
		attribute.String("application.id", applicationID),
		attribute.String("actor.id", actor.ID),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(apperrors.CodeOf(err))
		}
		metrics.ObserveTransition(action.String(), outcome, time.Since(start).Seconds())
		s.deps.Observability.RecordTransition(ctx, action.String(), outcome, time.Since(start))
		observability.EndSpan(span, err)
	}()

	log := logger.FromContext(ctx, s.logger).WithFields(map[string]interface{}{
		"applicationId": applicationID,
		"actorId":       actor.ID,
		"action":        action.String(),
	})

	if err := checkActor(actor); err != nil {
		return nil, err
	}
	remarks = strings.TrimSpace(remarks)
	if remarks == "" && action != models.ActionApprove {
		return nil, apperrors.NewValidationError("remarks are required to " + strings.ToLower(action.String()))
	}

	var (
		updated  *models.Application
		records  []models.AuditRecord
		warnings []string
	)

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, records, warnings = nil, nil, nil

		current, err := s.deps.Store.Get(ctx, applicationID)
		if err != nil {
			return err
		}

		next, err := Next(actor.Designation, current.CurrentDesk, current.Status, action)
		if err != nil {
			return err
		}

		app := current.Clone()
		now := s.deps.Now()
		app.CurrentDesk = next.Desk
		app.Status = next.Status
		switch action {
		case models.ActionApprove:
			if next.Terminal {
				app.ResolvedDate = models.TimePtr(now)
				app.ApprovedByUserID = models.StringPtr(actor.ID)
			}
		case models.ActionReject:
			app.ResolvedDate = models.TimePtr(now)
			app.RejectionReason = models.StringPtr(remarks)
		case models.ActionRequestChanges:
			app.ChangeRemarks = models.StringPtr(remarks)
		}

		if err := s.deps.Store.Update(ctx, app); err != nil {
			return err
		}

		rec, err := s.appendAudit(ctx, app.ID, actor.ID, next.Audit, transitionDetails(current, app, remarks))
		if err != nil {
			return err
		}
		records = append(records, *rec)

		if next.GenerateCertificate {
			blob, genErr := s.deps.Trigger.Generate(ctx, app)
			if genErr != nil {
				if !isRenderError(genErr) {
					return genErr
				}
				log.Warn("Certificate generation failed; approval stands", map[string]interface{}{"error": genErr})
				failed, err := s.appendAudit(ctx, app.ID, actor.ID, models.AuditPDFGenerationFailed, genErr.Error())
				if err != nil {
					return err
				}
				records = append(records, *failed)
				warnings = append(warnings, "certificate generation failed: "+genErr.Error())
			} else {
				app.CertificateBlob = blob
			}
		}

		updated = app
		return nil
	})
	if err != nil {
		log.Info("Verifier action rejected", map[string]interface{}{"code": string(apperrors.CodeOf(err))})
		return nil, err
	}

	log.Info("Verifier action committed", map[string]interface{}{
		"desk":   updated.CurrentDesk.String(),
		"status": updated.Status.String(),
	})
	s.afterCommit(ctx, Event{Action: action, Application: updated, Records: records})

	return &Result{Application: updated, Warnings: warnings}, nil
}

func transitionDetails(before, after *models.Application, remarks string) string {
	details := fmt.Sprintf("%s/%s -> %s/%s", before.CurrentDesk, before.Status, after.CurrentDesk, after.Status)
	if remarks != "" {
		details += ": " + remarks
	}
	return details
}

func isRenderError(err error) bool {
	code := apperrors.CodeOf(err)
	return code == apperrors.ErrCodeRenderFailure || code == apperrors.ErrCodeUnsupportedDocumentType
}

func (s *Service) appendAudit(ctx context.Context, applicationID, actorID string, action models.AuditAction, details string) (*models.AuditRecord, error) {
	rec := &models.AuditRecord{
		ID:            s.deps.NewID(),
		ApplicationID: applicationID,
		ActorID:       actorID,
		ActionType:    action,
		Details:       details,
		Timestamp:     s.deps.Now(),
	}
	if err := s.deps.Audit.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) afterCommit(ctx context.Context, event Event) {
	for _, hook := range s.deps.Hooks {
		if err := hook.AfterCommit(ctx, event); err != nil {
			s.logger.Warn("Post-commit hook failed", map[string]interface{}{
				"hook":          hook.Name(),
				"applicationId": event.Application.ID,
				"error":         err,
			})
		}
	}
}

// GetPendingApplications lists the applications waiting on the actor's desk.
// A designation with no desk is a CONFIGURATION_ERROR.
func (s *Service) GetPendingApplications(ctx context.Context, actor models.Actor, page models.PageRequest) (models.Page[models.Application], error) {
	if err := checkAccount(actor); err != nil {
		return models.Page[models.Application]{}, err
	}
	desk, err := DeskFor(actor.Designation)
	if err != nil {
		return models.Page[models.Application]{}, err
	}
	return s.deps.Store.ListByDesk(ctx, desk, models.NewPageRequest(page.Page, page.Size))
}

// GetStats returns counts per status and desk.
func (s *Service) GetStats(ctx context.Context) (*models.Stats, error) {
	if s.deps.Stats == nil {
		return nil, apperrors.NewConfigurationError("stats provider is not configured")
	}
	return s.deps.Stats.Stats(ctx)
}

// GetMetrics returns processing-time and status-distribution metrics.
func (s *Service) GetMetrics(ctx context.Context) (*models.VerificationMetrics, error) {
	if s.deps.Stats == nil {
		return nil, apperrors.NewConfigurationError("stats provider is not configured")
	}
	return s.deps.Stats.Metrics(ctx)
}
