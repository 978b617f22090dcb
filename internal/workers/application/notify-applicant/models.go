// internal/workers/application/notify-applicant/models.go
package notifyapplicant

type Input struct {
	ApplicationID string `json:"applicationId"`
	// Status, when set, must match the stored application status. A mismatch
	// means the process is acting on a stale decision.
	Status string `json:"status,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"notificationStatus"` // "sent", "failed", "disabled"
	Channel        string `json:"channel,omitempty"`
	SentAt         string `json:"sentAt"`
}
