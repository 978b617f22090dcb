package postgres

import (
	"context"
	"database/sql"

	"verification-workflow/internal/models"
)

// Stats groups by (status, desk) in one pass so every application lands in
// exactly one status bucket.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT status, current_desk, COUNT(*) FROM applications GROUP BY status, current_desk`)
	if err != nil {
		return nil, queryError("application stats", err)
	}
	defer rows.Close()

	stats := &models.Stats{}
	for rows.Next() {
		var (
			status models.Status
			desk   models.Desk
			n      int64
		)
		if err := rows.Scan(&status, &desk, &n); err != nil {
			return nil, queryError("scan stats", err)
		}
		stats.Add(status, desk, n)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("application stats", err)
	}
	return stats, nil
}

func (s *Store) Metrics(ctx context.Context) (*models.VerificationMetrics, error) {
	m := &models.VerificationMetrics{StatusDistribution: map[string]int64{}}

	var avg sql.NullFloat64
	err := s.exec(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*),
			AVG(EXTRACT(EPOCH FROM (resolved_date - submission_date)) / 60)
				FILTER (WHERE resolved_date IS NOT NULL)
		FROM applications`).Scan(&m.TotalApplications, &avg)
	if err != nil {
		return nil, queryError("application metrics", err)
	}
	if avg.Valid {
		m.AvgProcessingTimeMinutes = avg.Float64
	}

	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, queryError("status distribution", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, queryError("scan status distribution", err)
		}
		m.StatusDistribution[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("status distribution", err)
	}
	return m, nil
}
