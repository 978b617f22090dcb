// internal/workers/verification/regenerate-certificate/models.go
package regeneratecertificate

type Input struct {
	ApplicationID string `json:"applicationId"`
	VerifierID    string `json:"verifierId"`
	Force         bool   `json:"force"`
}

type Output struct {
	ApplicationID        string `json:"applicationId"`
	CertificateGenerated bool   `json:"certificateGenerated"`
	GeneratedAt          string `json:"generatedAt"` // ISO 8601
}
