package workflow

import (
	"context"
	"encoding/json"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
)

// Submit creates a new application at DESK_1/PENDING. Creation is not a
// transition, so no audit record is written.
func (s *Service) Submit(ctx context.Context, applicantID string, documentType models.DocumentType, formData json.RawMessage) (*models.Application, error) {
	if applicantID == "" {
		return nil, apperrors.NewValidationError("applicantId is required")
	}
	if err := s.validateForm(documentType, formData); err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:             s.deps.NewID(),
		ApplicantID:    applicantID,
		DocumentType:   documentType,
		FormData:       append(json.RawMessage(nil), formData...),
		Status:         models.StatusPending,
		CurrentDesk:    models.Desk1,
		SubmissionDate: s.deps.Now(),
		Version:        1,
	}
	if err := s.deps.Store.Create(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("Application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"documentType":  documentType.String(),
	})
	s.afterCommit(ctx, Event{Application: app})
	return app, nil
}

// Resubmit supersedes an application that was returned for changes. The old
// row becomes APPLICANT/REAPPLIED and a new DESK_1/PENDING row links back to it.
func (s *Service) Resubmit(ctx context.Context, applicantID, previousID string, formData json.RawMessage) (*models.Application, error) {
	var created *models.Application
	var records []models.AuditRecord

	err := s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		created, records = nil, nil

		prev, err := s.deps.Store.Get(ctx, previousID)
		if err != nil {
			return err
		}
		if prev.ApplicantID != applicantID {
			// Same answer as an unknown id so ownership is not revealed.
			return apperrors.NewNotFoundError("application", previousID)
		}
		if prev.CurrentDesk != models.DeskApplicant || prev.Status != models.StatusChangesRequested {
			return apperrors.NewInvalidTransitionError("only applications returned for changes can be resubmitted")
		}
		if err := s.validateForm(prev.DocumentType, formData); err != nil {
			return err
		}

		old := prev.Clone()
		old.Status = models.StatusReapplied
		if err := s.deps.Store.Update(ctx, old); err != nil {
			return err
		}

		app := &models.Application{
			ID:                    s.deps.NewID(),
			ApplicantID:           applicantID,
			DocumentType:          prev.DocumentType,
			FormData:              append(json.RawMessage(nil), formData...),
			Status:                models.StatusPending,
			CurrentDesk:           models.Desk1,
			SubmissionDate:        s.deps.Now(),
			PreviousApplicationID: models.StringPtr(prev.ID),
			Version:               1,
		}
		if err := s.deps.Store.Create(ctx, app); err != nil {
			return err
		}

		rec, err := s.appendAudit(ctx, prev.ID, applicantID, models.AuditApplicationResubmitted,
			"superseded by "+app.ID)
		if err != nil {
			return err
		}
		records = append(records, *rec)
		created = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, Event{Application: created, Records: records})
	return created, nil
}

func (s *Service) validateForm(documentType models.DocumentType, formData json.RawMessage) error {
	if !documentType.Valid() {
		return apperrors.NewUnsupportedDocumentTypeError(documentType.String())
	}
	if len(formData) == 0 {
		return apperrors.NewValidationError("formData is required")
	}
	if s.deps.Forms == nil {
		if !json.Valid(formData) {
			return apperrors.NewValidationError("formData is not valid JSON")
		}
		return nil
	}
	return s.deps.Forms.Validate(documentType, formData)
}

// GetApplication loads one application.
func (s *Service) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return s.deps.Store.Get(ctx, id)
}

// GetApprovedByVerifier lists applications the verifier gave final approval to.
func (s *Service) GetApprovedByVerifier(ctx context.Context, verifierID string, page models.PageRequest) (models.Page[models.Application], error) {
	return s.deps.Store.ListApprovedBy(ctx, verifierID, models.NewPageRequest(page.Page, page.Size))
}

// ListByApplicant lists a citizen's own applications.
func (s *Service) ListByApplicant(ctx context.Context, applicantID string, page models.PageRequest) (models.Page[models.Application], error) {
	return s.deps.Store.ListByApplicant(ctx, applicantID, models.NewPageRequest(page.Page, page.Size))
}

// DownloadCertificate returns the stored certificate of an approved application.
func (s *Service) DownloadCertificate(ctx context.Context, id string) ([]byte, *models.Application, error) {
	app, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != models.StatusApproved {
		return nil, nil, apperrors.NewInvalidTransitionError("certificate is only available for approved applications")
	}
	if !app.HasCertificate() {
		return nil, nil, apperrors.NewNotFoundError("certificate", id)
	}
	return app.CertificateBlob, app, nil
}

// RegenerateCertificate retries rendering for an approved application. An
// existing certificate is only replaced when a senior verifier forces it.
func (s *Service) RegenerateCertificate(ctx context.Context, id string, actor models.Actor, force bool) (*models.Application, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var (
		updated *models.Application
		rec     *models.AuditRecord
		genErr  error
	)
	err := s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, rec, genErr = nil, nil, nil

		app, err := s.deps.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if app.CurrentDesk != models.DeskCertificateGeneration || app.Status != models.StatusApproved {
			return apperrors.NewInvalidTransitionError("application is not approved")
		}
		if app.HasCertificate() {
			if !force {
				return apperrors.NewInvalidTransitionError("certificate already generated")
			}
			if actor.Designation != models.DesignationSenior {
				return apperrors.NewUnauthorizedError("only a senior verifier may replace a certificate")
			}
		}

		blob, err := s.deps.Trigger.Generate(ctx, app)
		if err != nil {
			if !isRenderError(err) {
				return err
			}
			genErr = err
			rec, err = s.appendAudit(ctx, app.ID, actor.ID, models.AuditPDFGenerationFailed, genErr.Error())
			updated = app
			return err
		}

		app.CertificateBlob = blob
		rec, err = s.appendAudit(ctx, app.ID, actor.ID, models.AuditCertificateGenerated, "certificate regenerated")
		updated = app
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, Event{Application: updated, Records: []models.AuditRecord{*rec}})
	if genErr != nil {
		return nil, genErr
	}
	return updated, nil
}

// ListAuditRecords pages through the whole audit trail, newest first.
func (s *Service) ListAuditRecords(ctx context.Context, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	if s.deps.AuditLog == nil {
		return models.Page[models.AuditRecord]{}, apperrors.NewConfigurationError("audit log reader is not configured")
	}
	return s.deps.AuditLog.List(ctx, models.NewPageRequest(page.Page, page.Size))
}

// ListAuditRecordsByActor pages through the records written by one user.
func (s *Service) ListAuditRecordsByActor(ctx context.Context, actorID string, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	if s.deps.AuditLog == nil {
		return models.Page[models.AuditRecord]{}, apperrors.NewConfigurationError("audit log reader is not configured")
	}
	return s.deps.AuditLog.ListByActor(ctx, actorID, models.NewPageRequest(page.Page, page.Size))
}

// ListAuditRecordsForApplication returns an application's trail, newest first.
func (s *Service) ListAuditRecordsForApplication(ctx context.Context, applicationID string) ([]models.AuditRecord, error) {
	if s.deps.AuditLog == nil {
		return nil, apperrors.NewConfigurationError("audit log reader is not configured")
	}
	if _, err := s.deps.Store.Get(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.deps.AuditLog.ListForApplication(ctx, applicationID)
}

// SearchAuditRecords runs a full-text query against the audit mirror.
func (s *Service) SearchAuditRecords(ctx context.Context, query string, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	if s.deps.AuditSearch == nil {
		return models.Page[models.AuditRecord]{}, apperrors.NewConfigurationError("audit search is not enabled")
	}
	if query == "" {
		return models.Page[models.AuditRecord]{}, apperrors.NewValidationError("q is required")
	}
	return s.deps.AuditSearch.Search(ctx, query, models.NewPageRequest(page.Page, page.Size))
}
