// internal/workers/application/submit-application/models.go
package submitapplication

import "encoding/json"

// Input is read from the process variables. A non-empty
// PreviousApplicationID turns the job into a resubmission.
type Input struct {
	ApplicantID           string          `json:"applicantId"`
	DocumentType          string          `json:"documentType"`
	FormData              json.RawMessage `json:"formData"`
	PreviousApplicationID string          `json:"previousApplicationId,omitempty"`
}

type Output struct {
	ApplicationID  string `json:"applicationId"`
	Status         string `json:"applicationStatus"`
	CurrentDesk    string `json:"currentDesk"`
	SubmissionDate string `json:"submissionDate"` // ISO 8601
}
