// internal/workers/application/notify-applicant/handler_test.go
package notifyapplicant

import (
	"context"
	"errors"
	"testing"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"
	"verification-workflow/internal/notification"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type stubApplications map[string]*models.Application

func (s stubApplications) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if app, ok := s[id]; ok {
		return app, nil
	}
	return nil, apperrors.NewNotFoundError("application", id)
}

type stubUsers map[string]*models.User

func (s stubUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.NewNotFoundError("user", id)
}

func testApplications() stubApplications {
	return stubApplications{
		"app-approved": {
			ID: "app-approved", ApplicantID: "citizen-1", DocumentType: models.DocumentTypeIncome,
			Status: models.StatusApproved, CurrentDesk: models.DeskCertificateGeneration,
		},
		"app-pending": {
			ID: "app-pending", ApplicantID: "citizen-1", DocumentType: models.DocumentTypeIncome,
			Status: models.StatusPending, CurrentDesk: models.Desk1,
		},
	}
}

func newTestHandler(t *testing.T, sendErr error) (*Handler, *int) {
	sent := 0
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sent++
			return &ses.SendEmailOutput{}, sendErr
		},
	}
	users := stubUsers{"citizen-1": {ID: "citizen-1", Email: "asha@example.com", Role: models.RoleCitizen}}
	notifier := notification.NewNotifier(notification.Config{
		EmailEnabled: true,
		FromEmail:    "noreply@example.gov",
	}, users, sesMock, nil, logger.NewTestLogger(t))

	return NewHandler(LoadConfig(), testApplications(), notifier, logger.NewTestLogger(t)), &sent
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Sent(t *testing.T) {
	h, sent := newTestHandler(t, nil)

	output, err := h.Execute(context.Background(), &Input{ApplicationID: "app-approved", Status: "APPROVED"})

	require.NoError(t, err)
	assert.Equal(t, 1, *sent)
	assert.NotEmpty(t, output.NotificationID)
	assert.Equal(t, notification.StatusSent, output.Status)
	assert.Equal(t, notification.ChannelEmail, output.Channel)
	assert.NotEmpty(t, output.SentAt)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		sendErr   error
		wantCode  apperrors.ErrorCode
		wantThrow bool
	}{
		{
			name:      "missing application id",
			input:     &Input{},
			wantCode:  apperrors.ErrCodeValidation,
			wantThrow: true,
		},
		{
			name:      "unknown application",
			input:     &Input{ApplicationID: "nope"},
			wantCode:  apperrors.ErrCodeNotFound,
			wantThrow: true,
		},
		{
			name:      "stale status",
			input:     &Input{ApplicationID: "app-approved", Status: "REJECTED"},
			wantCode:  apperrors.ErrCodeInvalidTransition,
			wantThrow: true,
		},
		{
			name:      "not yet resolved",
			input:     &Input{ApplicationID: "app-pending"},
			wantCode:  apperrors.ErrCodeInvalidTransition,
			wantThrow: true,
		},
		{
			name:      "ses rejects the message",
			input:     &Input{ApplicationID: "app-approved"},
			sendErr:   errors.New("MessageRejected"),
			wantCode:  apperrors.ErrCodeNotificationSendFailed,
			wantThrow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, tt.sendErr)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))

			throw, _ := h.errorHandler.Decision(entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 3}}, err)
			assert.Equal(t, tt.wantThrow, throw)
		})
	}
}
