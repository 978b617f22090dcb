// internal/workers/application/submit-application/handler_test.go
package submitapplication

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockService struct {
	SubmitFunc   func(ctx context.Context, applicantID string, documentType models.DocumentType, formData json.RawMessage) (*models.Application, error)
	ResubmitFunc func(ctx context.Context, applicantID, previousID string, formData json.RawMessage) (*models.Application, error)
}

func (m *mockService) Submit(ctx context.Context, applicantID string, documentType models.DocumentType, formData json.RawMessage) (*models.Application, error) {
	return m.SubmitFunc(ctx, applicantID, documentType, formData)
}

func (m *mockService) Resubmit(ctx context.Context, applicantID, previousID string, formData json.RawMessage) (*models.Application, error) {
	return m.ResubmitFunc(ctx, applicantID, previousID, formData)
}

func pendingApplication(id, applicant string) *models.Application {
	return &models.Application{
		ID:             id,
		ApplicantID:    applicant,
		DocumentType:   models.DocumentTypeIncome,
		Status:         models.StatusPending,
		CurrentDesk:    models.Desk1,
		SubmissionDate: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	return NewHandler(LoadConfig(), svc, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Submit(t *testing.T) {
	svc := &mockService{
		SubmitFunc: func(ctx context.Context, applicantID string, documentType models.DocumentType, formData json.RawMessage) (*models.Application, error) {
			assert.Equal(t, "citizen-1", applicantID)
			assert.Equal(t, models.DocumentTypeIncome, documentType)
			assert.JSONEq(t, `{"applicantFullName":"Asha"}`, string(formData))
			return pendingApplication("app-1", applicantID), nil
		},
	}

	output, err := newTestHandler(t, svc).Execute(context.Background(), &Input{
		ApplicantID:  "citizen-1",
		DocumentType: "income",
		FormData:     json.RawMessage(`{"applicantFullName":"Asha"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "app-1", output.ApplicationID)
	assert.Equal(t, "PENDING", output.Status)
	assert.Equal(t, "DESK_1", output.CurrentDesk)
	assert.Equal(t, "2026-03-01T09:30:00Z", output.SubmissionDate)
}

func TestHandler_Execute_Resubmit(t *testing.T) {
	svc := &mockService{
		SubmitFunc: func(context.Context, string, models.DocumentType, json.RawMessage) (*models.Application, error) {
			t.Fatal("submit must not be called for a resubmission")
			return nil, nil
		},
		ResubmitFunc: func(ctx context.Context, applicantID, previousID string, formData json.RawMessage) (*models.Application, error) {
			assert.Equal(t, "app-1", previousID)
			app := pendingApplication("app-2", applicantID)
			app.PreviousApplicationID = models.StringPtr(previousID)
			return app, nil
		},
	}

	output, err := newTestHandler(t, svc).Execute(context.Background(), &Input{
		ApplicantID:           "citizen-1",
		FormData:              json.RawMessage(`{}`),
		PreviousApplicationID: "app-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "app-2", output.ApplicationID)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		submitErr error
		wantCode  apperrors.ErrorCode
		wantThrow bool
	}{
		{
			name:      "missing applicant",
			input:     &Input{DocumentType: "INCOME"},
			wantCode:  apperrors.ErrCodeValidation,
			wantThrow: true,
		},
		{
			name:      "unknown document type",
			input:     &Input{ApplicantID: "citizen-1", DocumentType: "PASSPORT"},
			wantCode:  apperrors.ErrCodeUnsupportedDocumentType,
			wantThrow: true,
		},
		{
			name:      "form rejected",
			input:     &Input{ApplicantID: "citizen-1", DocumentType: "INCOME"},
			submitErr: apperrors.NewValidationError("annualIncome is required"),
			wantCode:  apperrors.ErrCodeValidation,
			wantThrow: true,
		},
		{
			name:      "database down",
			input:     &Input{ApplicantID: "citizen-1", DocumentType: "INCOME"},
			submitErr: apperrors.NewQueryExecutionFailedError("insert application", assert.AnError),
			wantCode:  apperrors.ErrCodeQueryExecutionFailed,
			wantThrow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				SubmitFunc: func(context.Context, string, models.DocumentType, json.RawMessage) (*models.Application, error) {
					return nil, tt.submitErr
				},
			}
			h := newTestHandler(t, svc)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))

			throw, bpmnErr := h.errorHandler.Decision(entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 3}}, err)
			assert.Equal(t, tt.wantThrow, throw)
			assert.Equal(t, string(tt.wantCode), bpmnErr.Code)
		})
	}
}
