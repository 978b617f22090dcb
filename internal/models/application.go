// internal/models/application.go
package models

import (
	"encoding/json"
	"time"
)

// Application is one citizen submission moving through the verification desks.
type Application struct {
	ID                    string          `json:"id"`
	ApplicantID           string          `json:"applicantId"`
	DocumentType          DocumentType    `json:"documentType"`
	FormData              json.RawMessage `json:"formData"`
	Status                Status          `json:"status"`
	CurrentDesk           Desk            `json:"currentDesk"`
	ApprovedByUserID      *string         `json:"approvedByUserId"`
	RejectionReason       *string         `json:"rejectionReason"`
	ChangeRemarks         *string         `json:"changeRemarks"`
	SubmissionDate        time.Time       `json:"submissionDate"`
	ResolvedDate          *time.Time      `json:"resolvedDate"`
	PreviousApplicationID *string         `json:"previousApplicationId,omitempty"`
	CertificateBlob       []byte          `json:"-"`
	Version               int64           `json:"version"`
}

// HasCertificate reports whether a rendered certificate is stored.
func (a *Application) HasCertificate() bool {
	return len(a.CertificateBlob) > 0
}

// Clone returns a deep copy so callers can mutate without sharing state.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	c.FormData = append(json.RawMessage(nil), a.FormData...)
	c.CertificateBlob = append([]byte(nil), a.CertificateBlob...)
	c.ApprovedByUserID = cloneString(a.ApprovedByUserID)
	c.RejectionReason = cloneString(a.RejectionReason)
	c.ChangeRemarks = cloneString(a.ChangeRemarks)
	c.PreviousApplicationID = cloneString(a.PreviousApplicationID)
	if a.ResolvedDate != nil {
		t := *a.ResolvedDate
		c.ResolvedDate = &t
	}
	return &c
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
