// Package postgres implements the application, user and audit stores on
// PostgreSQL. Every method resolves its executor from ctx, so calls made
// inside PostgresClient.RunInTx join that transaction.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"verification-workflow/internal/common/database"
	apperrors "verification-workflow/internal/common/errors"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schema string

type Store struct {
	client *database.PostgresClient
}

func New(client *database.PostgresClient) *Store {
	return &Store{client: client}
}

// Migrate creates the tables when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return apperrors.NewQueryExecutionFailedError("migrate", err)
	}
	return nil
}

// RunInTx delegates to the client so the store satisfies the workflow's
// transaction runner.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.client.RunInTx(ctx, fn)
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError("postgres", err)
	}
	return apperrors.NewDatabaseConnectionFailedError(err)
}

func (s *Store) exec(ctx context.Context) database.Executor {
	return s.client.Executor(ctx)
}

// isUUID reports whether id can be compared with a UUID column. Anything
// else cannot match a row and would make postgres fail with 22P02.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func queryError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("postgres", err)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
