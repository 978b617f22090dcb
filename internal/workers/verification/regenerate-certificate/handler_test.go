// internal/workers/verification/regenerate-certificate/handler_test.go
package regeneratecertificate

import (
	"context"
	"errors"
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

type mockService struct {
	ResolveActorFunc func(ctx context.Context, id string) (models.Actor, error)
	RegenerateFunc   func(ctx context.Context, id string, actor models.Actor, force bool) (*models.Application, error)
}

func (m *mockService) ResolveActor(ctx context.Context, id string) (models.Actor, error) {
	if m.ResolveActorFunc != nil {
		return m.ResolveActorFunc(ctx, id)
	}
	return models.Actor{ID: id, Designation: models.DesignationSenior, Enabled: true}, nil
}

func (m *mockService) RegenerateCertificate(ctx context.Context, id string, actor models.Actor, force bool) (*models.Application, error) {
	return m.RegenerateFunc(ctx, id, actor, force)
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	h := NewHandler(LoadConfig(), svc, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC) }
	return h
}

func TestHandler_Execute_Success(t *testing.T) {
	svc := &mockService{
		RegenerateFunc: func(ctx context.Context, id string, actor models.Actor, force bool) (*models.Application, error) {
			assert.Equal(t, "app-1", id)
			assert.Equal(t, "v-senior", actor.ID)
			assert.True(t, force)
			return &models.Application{ID: id, Status: models.StatusApproved, CertificateBlob: []byte("%PDF")}, nil
		},
	}

	output, err := newTestHandler(t, svc).Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		VerifierID:    "v-senior",
		Force:         true,
	})

	require.NoError(t, err)
	assert.Equal(t, &Output{
		ApplicationID:        "app-1",
		CertificateGenerated: true,
		GeneratedAt:          "2026-04-02T10:00:00Z",
	}, output)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       *Input
		resolveErr  error
		regenErr    error
		wantCode    apperrors.ErrorCode
		wantRetries int
	}{
		{
			name:     "missing application",
			input:    &Input{VerifierID: "v-1"},
			wantCode: apperrors.ErrCodeValidation,
		},
		{
			name:       "not a verifier",
			input:      &Input{ApplicationID: "app-1", VerifierID: "citizen-1"},
			resolveErr: apperrors.NewUnauthorizedError("actor is not a verifier"),
			wantCode:   apperrors.ErrCodeUnauthorized,
		},
		{
			name:     "certificate exists",
			input:    &Input{ApplicationID: "app-1", VerifierID: "v-1"},
			regenErr: apperrors.NewInvalidTransitionError("certificate already generated"),
			wantCode: apperrors.ErrCodeInvalidTransition,
		},
		{
			name:        "render failed again",
			input:       &Input{ApplicationID: "app-1", VerifierID: "v-1"},
			regenErr:    apperrors.NewRenderFailureError("INCOME", errors.New("font cache locked")),
			wantCode:    apperrors.ErrCodeRenderFailure,
			wantRetries: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				ResolveActorFunc: func(ctx context.Context, id string) (models.Actor, error) {
					return models.Actor{ID: id, Designation: models.DesignationSenior, Enabled: true}, tt.resolveErr
				},
				RegenerateFunc: func(context.Context, string, models.Actor, bool) (*models.Application, error) {
					return nil, tt.regenErr
				},
			}
			h := newTestHandler(t, svc)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))

			throw, bpmnErr := h.errorHandler.Decision(entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 3}}, err)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)
			assert.Equal(t, tt.wantRetries == 0, throw)
		})
	}
}
