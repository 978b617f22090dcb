// internal/workers/verification/record-verifier-decision/handler_test.go
package recordverifierdecision

import (
	"context"
	"testing"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockService struct {
	ResolveActorFunc func(ctx context.Context, id string) (models.Actor, error)
	DecideFunc       func(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (*workflow.Result, error)
}

func (m *mockService) ResolveActor(ctx context.Context, id string) (models.Actor, error) {
	if m.ResolveActorFunc != nil {
		return m.ResolveActorFunc(ctx, id)
	}
	return models.Actor{ID: id, Designation: models.DesignationSenior, Enabled: true}, nil
}

func (m *mockService) Decide(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (*workflow.Result, error) {
	return m.DecideFunc(ctx, applicationID, actor, action, remarks)
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	return NewHandler(LoadConfig(), svc, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SeniorApproval(t *testing.T) {
	svc := &mockService{
		DecideFunc: func(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (*workflow.Result, error) {
			assert.Equal(t, "app-1", applicationID)
			assert.Equal(t, "v-senior", actor.ID)
			assert.Equal(t, models.ActionApprove, action)
			return &workflow.Result{Application: &models.Application{
				ID:              applicationID,
				Status:          models.StatusApproved,
				CurrentDesk:     models.DeskCertificateGeneration,
				CertificateBlob: []byte("%PDF"),
			}}, nil
		},
	}

	output, err := newTestHandler(t, svc).Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		VerifierID:    "v-senior",
		Action:        "APPROVE",
	})

	require.NoError(t, err)
	assert.Equal(t, "APPROVED", output.ApplicationStatus)
	assert.Equal(t, "UNDER_CERTIFICATE_GENERATION", output.CurrentDesk)
	assert.True(t, output.CertificateGenerated)
	assert.Empty(t, output.Warnings)
	assert.NotNil(t, output.Warnings)
}

func TestHandler_Execute_RenderWarning(t *testing.T) {
	svc := &mockService{
		DecideFunc: func(context.Context, string, models.Actor, models.Action, string) (*workflow.Result, error) {
			return &workflow.Result{
				Application: &models.Application{ID: "app-1", Status: models.StatusApproved, CurrentDesk: models.DeskCertificateGeneration},
				Warnings:    []string{"certificate generation failed"},
			}, nil
		},
	}

	output, err := newTestHandler(t, svc).Execute(context.Background(), &Input{
		ApplicationID: "app-1", VerifierID: "v-senior", Action: "approve",
	})

	require.NoError(t, err)
	assert.False(t, output.CertificateGenerated)
	assert.Equal(t, []string{"certificate generation failed"}, output.Warnings)
}

func TestHandler_Execute_RequestChangeSpelling(t *testing.T) {
	var got models.Action
	svc := &mockService{
		DecideFunc: func(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (*workflow.Result, error) {
			got = action
			return &workflow.Result{Application: &models.Application{ID: applicationID, Status: models.StatusChangesRequested, CurrentDesk: models.DeskApplicant}}, nil
		},
	}

	_, err := newTestHandler(t, svc).Execute(context.Background(), &Input{
		ApplicationID: "app-1", VerifierID: "v-junior", Action: "request-change", Remarks: "blurry",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ActionRequestChanges, got)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      *Input
		resolveErr error
		decideErr  error
		wantCode   apperrors.ErrorCode
		wantThrow  bool
	}{
		{
			name:      "unknown action",
			input:     &Input{ApplicationID: "app-1", VerifierID: "v-1", Action: "ESCALATE"},
			wantCode:  apperrors.ErrCodeValidation,
			wantThrow: true,
		},
		{
			name:      "missing application",
			input:     &Input{VerifierID: "v-1", Action: "APPROVE"},
			wantCode:  apperrors.ErrCodeValidation,
			wantThrow: true,
		},
		{
			name:       "blocked verifier",
			input:      &Input{ApplicationID: "app-1", VerifierID: "v-1", Action: "APPROVE"},
			resolveErr: apperrors.NewUnauthorizedError("verifier account is blocked"),
			wantCode:   apperrors.ErrCodeUnauthorized,
			wantThrow:  true,
		},
		{
			name:      "already resolved",
			input:     &Input{ApplicationID: "app-1", VerifierID: "v-1", Action: "REJECT", Remarks: "x"},
			decideErr: apperrors.NewInvalidTransitionError("application is already resolved"),
			wantCode:  apperrors.ErrCodeInvalidTransition,
			wantThrow: true,
		},
		{
			name:      "concurrent update",
			input:     &Input{ApplicationID: "app-1", VerifierID: "v-1", Action: "APPROVE"},
			decideErr: apperrors.NewConflictError("application", "app-1"),
			wantCode:  apperrors.ErrCodeConflict,
			wantThrow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				ResolveActorFunc: func(ctx context.Context, id string) (models.Actor, error) {
					return models.Actor{ID: id, Designation: models.DesignationJunior, Enabled: true}, tt.resolveErr
				},
				DecideFunc: func(context.Context, string, models.Actor, models.Action, string) (*workflow.Result, error) {
					return nil, tt.decideErr
				},
			}
			h := newTestHandler(t, svc)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))

			throw, _ := h.errorHandler.Decision(entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 3}}, err)
			assert.Equal(t, tt.wantThrow, throw)
		})
	}
}
