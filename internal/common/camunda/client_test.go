package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig:       &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

// ==========================
// Retry and error mapping
// ==========================

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	c := testClient()
	calls := 0

	out, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return "ok", nil
	}, "publish")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	c := testClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("rpc error: code = NotFound desc = process not found")
	}, "publish")

	assert.Equal(t, 1, calls)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestExecuteWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	c := testClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("broken pipe")
	}, "publish")

	assert.Equal(t, 3, calls)
	assert.Equal(t, errors.ErrCodeExternalService, errors.CodeOf(err))
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := testClient()
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		cancel()
		return nil, stderrors.New("timeout")
	}, "publish")

	assert.Equal(t, errors.ErrCodeTimeout, errors.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"context deadline exceeded", errors.ErrCodeTimeout},
		{"process definition not found", errors.ErrCodeNotFound},
		{"message already exists", errors.ErrCodeConflict},
		{"rpc error: code = Unauthenticated", errors.ErrCodeAuthentication},
		{"connection refused", errors.ErrCodeExternalService},
		{"something odd", errors.ErrCodeExternalService},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.code, errors.CodeOf(mapZeebeError(stderrors.New(tt.msg), "op", 0)))
		})
	}
}

// ==========================
// Decision publisher
// ==========================

type mockPublisher struct {
	PublishFunc func(ctx context.Context, name, key string, vars map[string]interface{}) error
}

func (m *mockPublisher) PublishMessage(ctx context.Context, name, key string, vars map[string]interface{}) error {
	return m.PublishFunc(ctx, name, key, vars)
}

func TestDecisionPublisher(t *testing.T) {
	var got []map[string]interface{}
	p := NewDecisionPublisher(&mockPublisher{PublishFunc: func(ctx context.Context, name, key string, vars map[string]interface{}) error {
		assert.Equal(t, DecisionMessage, name)
		assert.Equal(t, "app-1", key)
		got = append(got, vars)
		return nil
	}})

	app := &models.Application{
		ID:              "app-1",
		Status:          models.StatusRejected,
		CurrentDesk:     models.DeskApplicant,
		RejectionReason: models.StringPtr("invalid document"),
	}

	require.NoError(t, p.AfterCommit(context.Background(), workflow.Event{Action: models.ActionReject, Application: app}))
	require.NoError(t, p.AfterCommit(context.Background(), workflow.Event{Application: app}), "submissions carry no action")

	require.Len(t, got, 1)
	assert.Equal(t, "REJECT", got[0]["action"])
	assert.Equal(t, "REJECTED", got[0]["status"])
	assert.Equal(t, "APPLICANT", got[0]["currentDesk"])
	assert.Equal(t, "invalid document", got[0]["rejectionReason"])
	assert.Equal(t, false, got[0]["hasCertificate"])
}
