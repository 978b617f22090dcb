package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
)

const applicationColumns = `id, applicant_id, document_type, form_data, status, current_desk,
	approved_by_user_id, rejection_reason, change_remarks, submission_date, resolved_date,
	previous_application_id, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner, withBlob bool) (*models.Application, error) {
	var (
		app        models.Application
		formData   []byte
		approvedBy sql.NullString
		rejection  sql.NullString
		remarks    sql.NullString
		resolved   sql.NullTime
		previous   sql.NullString
		blob       []byte
	)
	dest := []interface{}{
		&app.ID, &app.ApplicantID, &app.DocumentType, &formData, &app.Status, &app.CurrentDesk,
		&approvedBy, &rejection, &remarks, &app.SubmissionDate, &resolved,
		&previous, &app.Version,
	}
	if withBlob {
		dest = append(dest, &blob)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	app.FormData = formData
	app.ApprovedByUserID = stringPtr(approvedBy)
	app.RejectionReason = stringPtr(rejection)
	app.ChangeRemarks = stringPtr(remarks)
	app.PreviousApplicationID = stringPtr(previous)
	if resolved.Valid {
		t := resolved.Time
		app.ResolvedDate = &t
	}
	app.CertificateBlob = blob
	return &app, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Application, error) {
	if !isUUID(id) {
		return nil, apperrors.NewNotFoundError("application", id)
	}
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT `+applicationColumns+`, certificate_blob FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("application", id)
	}
	if err != nil {
		return nil, queryError("get application", err)
	}
	return app, nil
}

func (s *Store) Create(ctx context.Context, app *models.Application) error {
	if app.Version == 0 {
		app.Version = 1
	}
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		app.ID, app.ApplicantID, app.DocumentType, []byte(app.FormData), app.Status, app.CurrentDesk,
		nullString(app.ApprovedByUserID), nullString(app.RejectionReason), nullString(app.ChangeRemarks),
		app.SubmissionDate, nullTime(app.ResolvedDate), nullString(app.PreviousApplicationID), app.Version,
	)
	if err != nil {
		return queryError("create application", err)
	}
	return nil
}

// Update writes the mutable workflow columns when the stored version still
// matches app.Version. Under read-committed a concurrent writer blocks on the
// row lock, then re-checks the version and matches zero rows.
func (s *Store) Update(ctx context.Context, app *models.Application) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE applications
		SET status = $3, current_desk = $4, approved_by_user_id = $5, rejection_reason = $6,
			change_remarks = $7, resolved_date = $8, version = version + 1
		WHERE id = $1 AND version = $2`,
		app.ID, app.Version, app.Status, app.CurrentDesk,
		nullString(app.ApprovedByUserID), nullString(app.RejectionReason), nullString(app.ChangeRemarks),
		nullTime(app.ResolvedDate),
	)
	if err != nil {
		return queryError("update application", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return queryError("update application", err)
	}
	if n == 0 {
		return apperrors.NewConflictError("application", app.ID)
	}
	app.Version++
	return nil
}

func (s *Store) SaveCertificate(ctx context.Context, id string, blob []byte) error {
	if !isUUID(id) {
		return apperrors.NewNotFoundError("application", id)
	}
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE applications SET certificate_blob = $2 WHERE id = $1`, id, blob)
	if err != nil {
		return queryError("save certificate", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("application", id)
	}
	return nil
}

func (s *Store) ListByDesk(ctx context.Context, desk models.Desk, page models.PageRequest) (models.Page[models.Application], error) {
	return s.listApplications(ctx, "current_desk = $1", "submission_date ASC", desk.String(), page)
}

func (s *Store) ListApprovedBy(ctx context.Context, verifierID string, page models.PageRequest) (models.Page[models.Application], error) {
	return s.listApplications(ctx, "approved_by_user_id = $1", "resolved_date DESC", verifierID, page)
}

func (s *Store) ListByApplicant(ctx context.Context, applicantID string, page models.PageRequest) (models.Page[models.Application], error) {
	return s.listApplications(ctx, "applicant_id = $1", "submission_date DESC", applicantID, page)
}

func (s *Store) listApplications(ctx context.Context, where, order string, arg interface{}, page models.PageRequest) (models.Page[models.Application], error) {
	var total int64
	if err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE `+where, arg).Scan(&total); err != nil {
		return models.Page[models.Application]{}, queryError("count applications", err)
	}

	rows, err := s.exec(ctx).QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM applications WHERE %s ORDER BY %s, id LIMIT $2 OFFSET $3`,
		applicationColumns, where, order), arg, page.Size, page.Offset())
	if err != nil {
		return models.Page[models.Application]{}, queryError("list applications", err)
	}
	defer rows.Close()

	var items []models.Application
	for rows.Next() {
		app, err := scanApplication(rows, false)
		if err != nil {
			return models.Page[models.Application]{}, queryError("scan application", err)
		}
		items = append(items, *app)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Application]{}, queryError("list applications", err)
	}
	return models.NewPage(items, page, total), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
