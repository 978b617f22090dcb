// internal/workers/verification/record-verifier-decision/models.go
package recordverifierdecision

type Input struct {
	ApplicationID string `json:"applicationId"`
	VerifierID    string `json:"verifierId"`
	Action        string `json:"action"` // APPROVE, REJECT, REQUEST_CHANGES
	Remarks       string `json:"remarks"`
}

type Output struct {
	ApplicationID        string   `json:"applicationId"`
	ApplicationStatus    string   `json:"applicationStatus"`
	CurrentDesk          string   `json:"currentDesk"`
	CertificateGenerated bool     `json:"certificateGenerated"`
	Warnings             []string `json:"warnings"`
}
