// internal/models/audit.go
package models

import "time"

// AuditAction is the actionType stored on an audit record.
type AuditAction string

const (
	AuditApplicationResubmitted AuditAction = "APPLICATION_RESUBMITTED"
	AuditDocumentApproved       AuditAction = "DOCUMENT_APPROVED"
	AuditDocumentRejected       AuditAction = "DOCUMENT_REJECTED"
	AuditChangesRequested       AuditAction = "CHANGES_REQUESTED"
	AuditCertificateGenerated   AuditAction = "CERTIFICATE_GENERATED"
	AuditPDFGenerationFailed    AuditAction = "PDF_GENERATION_FAILED"
)

// AuditRecord is an immutable entry appended for every committed transition.
type AuditRecord struct {
	ID            string      `json:"id"`
	ApplicationID string      `json:"applicationId"`
	ActorID       string      `json:"actorId"`
	ActionType    AuditAction `json:"actionType"`
	Details       string      `json:"details"`
	Timestamp     time.Time   `json:"timestamp"`
}
