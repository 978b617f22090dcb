// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_transitions_total",
			Help: "Verifier actions by action and outcome (ok or error code)",
		},
		[]string{"action", "outcome"},
	)

	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "verification_transition_duration_seconds",
			Help:    "Duration of a desk transition including certificate rendering",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	CertificateRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificate_render_total",
			Help: "Certificate render attempts by document type and outcome",
		},
		[]string{"document_type", "outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sent_total",
			Help: "Applicant notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	StatsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_lookups_total",
			Help: "Stats cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// ObserveTransition records one verifier action.
func ObserveTransition(action, outcome string, seconds float64) {
	TransitionsTotal.WithLabelValues(action, outcome).Inc()
	TransitionDuration.WithLabelValues(action).Observe(seconds)
}
