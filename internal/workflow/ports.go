package workflow

import (
	"context"

	"verification-workflow/internal/models"
)

// ApplicationStore persists applications. Update is an optimistic write: it
// succeeds only when the stored version equals app.Version, then bumps
// app.Version; otherwise it returns a CONFLICT error.
type ApplicationStore interface {
	Get(ctx context.Context, id string) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	SaveCertificate(ctx context.Context, id string, blob []byte) error
	ListByDesk(ctx context.Context, desk models.Desk, page models.PageRequest) (models.Page[models.Application], error)
	ListApprovedBy(ctx context.Context, verifierID string, page models.PageRequest) (models.Page[models.Application], error)
	ListByApplicant(ctx context.Context, applicantID string, page models.PageRequest) (models.Page[models.Application], error)
}

// TxRunner runs fn in a single transaction carried by the ctx passed to fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// VerifierDirectory is a read-only view over VERIFIER accounts.
type VerifierDirectory interface {
	GetVerifier(ctx context.Context, id string) (*models.User, error)
}

// AuditSink is the write-only side of the audit trail.
type AuditSink interface {
	Append(ctx context.Context, record *models.AuditRecord) error
}

// AuditLog is the read side of the audit trail.
type AuditLog interface {
	List(ctx context.Context, page models.PageRequest) (models.Page[models.AuditRecord], error)
	ListByActor(ctx context.Context, actorID string, page models.PageRequest) (models.Page[models.AuditRecord], error)
	ListForApplication(ctx context.Context, applicationID string) ([]models.AuditRecord, error)
}

// AuditSearcher performs full-text search over mirrored audit records.
type AuditSearcher interface {
	Search(ctx context.Context, query string, page models.PageRequest) (models.Page[models.AuditRecord], error)
}

// CertificateTrigger renders the certificate for an approved application and
// stores the blob. Errors coded RENDER_FAILURE or UNSUPPORTED_DOCUMENT_TYPE
// mean nothing was stored.
type CertificateTrigger interface {
	Generate(ctx context.Context, app *models.Application) ([]byte, error)
}

// FormValidator checks form data against the document type's schema.
type FormValidator interface {
	Validate(documentType models.DocumentType, formData []byte) error
}

// StatsProvider serves the dashboard aggregates.
type StatsProvider interface {
	Stats(ctx context.Context) (*models.Stats, error)
	Metrics(ctx context.Context) (*models.VerificationMetrics, error)
}

// Event describes one committed change.
type Event struct {
	Action      models.Action
	Application *models.Application
	Records     []models.AuditRecord
}

// CommitHook runs after a transaction commits. Hook errors are logged and
// never change the outcome returned to the caller.
type CommitHook interface {
	Name() string
	AfterCommit(ctx context.Context, event Event) error
}
