package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
)

const userColumns = `id, full_name, email, phone, role, designation, enabled, blocked`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u           models.User
		role        string
		designation string
	)
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &role, &designation, &u.Enabled, &u.Blocked); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	d, err := models.ParseDesignation(designation)
	if err != nil {
		return nil, err
	}
	u.Designation = d
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, queryError("get user", err)
	}
	return u, nil
}

// GetVerifier reads only VERIFIER accounts.
func (s *Store) GetVerifier(ctx context.Context, id string) (*models.User, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND role = $2`, id, string(models.RoleVerifier))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("verifier", id)
	}
	if err != nil {
		return nil, queryError("get verifier", err)
	}
	return u, nil
}
