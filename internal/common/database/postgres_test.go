package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTx_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewPostgresFromDB(db, time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applications`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = client.RunInTx(context.Background(), func(ctx context.Context) error {
		_, ok := TxFrom(ctx)
		assert.True(t, ok)
		_, err := client.Executor(ctx).ExecContext(ctx, `UPDATE applications SET status = 'X'`)
		return err
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewPostgresFromDB(db, time.Second)
	boom := errors.New("audit insert failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = client.RunInTx(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_NestedReusesOuter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewPostgresFromDB(db, time.Second)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = client.RunInTx(context.Background(), func(ctx context.Context) error {
		outer, _ := TxFrom(ctx)
		return client.RunInTx(ctx, func(inner context.Context) error {
			tx, _ := TxFrom(inner)
			assert.Same(t, outer, tx)
			return nil
		})
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_CancelledContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewPostgresFromDB(db, time.Second).RunInTx(ctx, func(context.Context) error {
		t.Fatal("fn must not run")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_WithoutTx(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewPostgresFromDB(db, 0)
	assert.Same(t, db, client.Executor(context.Background()))
}
