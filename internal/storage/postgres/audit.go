package postgres

import (
	"context"
	"fmt"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
)

const auditColumns = `id, application_id, actor_id, action_type, details, created_at`

// Append inserts one audit record. The table is never updated or deleted from.
func (s *Store) Append(ctx context.Context, record *models.AuditRecord) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO audit_log (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.ApplicationID, record.ActorID, string(record.ActionType), record.Details, record.Timestamp,
	)
	if err != nil {
		return queryError("append audit record", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	return s.auditPage(ctx, "", nil, page)
}

func (s *Store) ListByActor(ctx context.Context, actorID string, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	return s.auditPage(ctx, "WHERE actor_id = $1", []interface{}{actorID}, page)
}

func (s *Store) ListForApplication(ctx context.Context, applicationID string) ([]models.AuditRecord, error) {
	if !isUUID(applicationID) {
		return nil, apperrors.NewNotFoundError("application", applicationID)
	}
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE application_id = $1 ORDER BY created_at DESC, id`,
		applicationID)
	if err != nil {
		return nil, queryError("list audit records", err)
	}
	defer rows.Close()
	return scanAudit(rows)
}

func (s *Store) auditPage(ctx context.Context, where string, args []interface{}, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	var total int64
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log `+where, args...).Scan(&total); err != nil {
		return models.Page[models.AuditRecord]{}, queryError("count audit records", err)
	}

	n := len(args)
	query := `SELECT ` + auditColumns + ` FROM audit_log ` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := s.exec(ctx).QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return models.Page[models.AuditRecord]{}, queryError("list audit records", err)
	}
	defer rows.Close()

	items, err := scanAudit(rows)
	if err != nil {
		return models.Page[models.AuditRecord]{}, err
	}
	return models.NewPage(items, page, total), nil
}

type auditRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanAudit(rows auditRows) ([]models.AuditRecord, error) {
	out := []models.AuditRecord{}
	for rows.Next() {
		var rec models.AuditRecord
		var action string
		if err := rows.Scan(&rec.ID, &rec.ApplicationID, &rec.ActorID, &action, &rec.Details, &rec.Timestamp); err != nil {
			return nil, queryError("scan audit record", err)
		}
		rec.ActionType = models.AuditAction(action)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list audit records", err)
	}
	return out, nil
}
