package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	GetVerifierFunc func(ctx context.Context, id string) (*models.User, error)
	calls           int
}

func (m *mockSource) GetUser(ctx context.Context, id string) (*models.User, error) {
	return m.GetVerifierFunc(ctx, id)
}

func (m *mockSource) GetVerifier(ctx context.Context, id string) (*models.User, error) {
	m.calls++
	return m.GetVerifierFunc(ctx, id)
}

func TestGetVerifier_CacheMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	verifier := &models.User{ID: "v1", Role: models.RoleVerifier, Designation: models.DesignationSenior, Enabled: true}
	source := &mockSource{GetVerifierFunc: func(context.Context, string) (*models.User, error) { return verifier, nil }}
	dir := NewDirectory(source, rdb, 5*time.Minute, logger.NewTestLogger(t))

	data, _ := json.Marshal(verifier)
	mock.ExpectGet("verifier:v1").RedisNil()
	mock.ExpectSet("verifier:v1", data, 5*time.Minute).SetVal("OK")

	got, err := dir.GetVerifier(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, verifier, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVerifier_CacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := &mockSource{GetVerifierFunc: func(context.Context, string) (*models.User, error) {
		t.Fatal("source must not be called")
		return nil, nil
	}}
	dir := NewDirectory(source, rdb, time.Minute, logger.NewTestLogger(t))

	cached, _ := json.Marshal(models.User{ID: "v1", Designation: models.DesignationJunior, Enabled: true})
	mock.ExpectGet("verifier:v1").SetVal(string(cached))

	got, err := dir.GetVerifier(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.DesignationJunior, got.Designation)
}

func TestGetVerifier_NotFoundIsNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := &mockSource{GetVerifierFunc: func(_ context.Context, id string) (*models.User, error) {
		return nil, apperrors.NewNotFoundError("verifier", id)
	}}
	dir := NewDirectory(source, rdb, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet("verifier:ghost").RedisNil()

	_, err := dir.GetVerifier(context.Background(), "ghost")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvict(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	dir := NewDirectory(&mockSource{}, rdb, time.Minute, logger.NewNoOpLogger())

	mock.ExpectDel("verifier:v1").SetVal(1)
	assert.NoError(t, dir.Evict(context.Background(), "v1"))
}

func TestDirectory_WithoutRedis(t *testing.T) {
	verifier := &models.User{ID: "v1", Role: models.RoleVerifier, Designation: models.DesignationJunior, Enabled: true}
	source := &mockSource{GetVerifierFunc: func(context.Context, string) (*models.User, error) { return verifier, nil }}
	dir := NewDirectory(source, nil, time.Minute, logger.NewNoOpLogger())

	for i := 0; i < 2; i++ {
		got, err := dir.GetVerifier(context.Background(), "v1")
		require.NoError(t, err)
		assert.Equal(t, verifier, got)
	}
	assert.Equal(t, 2, source.calls)
	assert.NoError(t, dir.Evict(context.Background(), "v1"))
}
