// internal/models/stats.go
package models

// Stats is the dashboard projection over applications.
type Stats struct {
	TotalApplied     int64 `json:"totalApplied"`
	Pending          int64 `json:"pending"`
	Approved         int64 `json:"approved"`
	Rejected         int64 `json:"rejected"`
	UnderReview      int64 `json:"underReview"`
	ChangesRequested int64 `json:"changesRequested"`
	Reapplied        int64 `json:"reapplied"`
	CountOnDesk1     int64 `json:"countOnDesk1"`
	CountOnDesk2     int64 `json:"countOnDesk2"`
}

// Add counts one application in its status and desk buckets.
func (s *Stats) Add(status Status, desk Desk, n int64) {
	s.TotalApplied += n
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusApproved:
		s.Approved += n
	case StatusRejected:
		s.Rejected += n
	case StatusUnderReview:
		s.UnderReview += n
	case StatusChangesRequested:
		s.ChangesRequested += n
	case StatusReapplied:
		s.Reapplied += n
	}
	switch desk {
	case Desk1:
		s.CountOnDesk1 += n
	case Desk2:
		s.CountOnDesk2 += n
	}
}

// VerificationMetrics summarises throughput of resolved applications.
type VerificationMetrics struct {
	TotalApplications        int64            `json:"totalApplications"`
	AvgProcessingTimeMinutes float64          `json:"avgProcessingTimeMinutes"`
	StatusDistribution       map[string]int64 `json:"statusDistribution"`
}
