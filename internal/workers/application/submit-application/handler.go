// internal/workers/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/metrics"
	"verification-workflow/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "submit-application"
)

// Service is the part of the desk router this worker drives.
type Service interface {
	Submit(ctx context.Context, applicantID string, documentType models.DocumentType, formData json.RawMessage) (*models.Application, error)
	Resubmit(ctx context.Context, applicantID, previousID string, formData json.RawMessage) (*models.Application, error)
}

type Handler struct {
	config       *Config
	service      Service
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.config.Observability.RecordJobProcessed(ctx, "completed")
	h.config.Observability.RecordJobDuration(ctx, time.Since(start), "completed")
}

// Execute creates the application, or its successor when the input names
// a previous application.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.ApplicantID) == "" {
		return nil, apperrors.NewValidationError("applicantId is required")
	}

	var (
		app *models.Application
		err error
	)
	if input.PreviousApplicationID != "" {
		app, err = h.service.Resubmit(ctx, input.ApplicantID, input.PreviousApplicationID, input.FormData)
	} else {
		docType, parseErr := models.ParseDocumentType(input.DocumentType)
		if parseErr != nil {
			return nil, apperrors.NewUnsupportedDocumentTypeError(input.DocumentType)
		}
		app, err = h.service.Submit(ctx, input.ApplicantID, docType, input.FormData)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"applicantId":   app.ApplicantID,
		"documentType":  app.DocumentType.String(),
	})

	return &Output{
		ApplicationID:  app.ID,
		Status:         app.Status.String(),
		CurrentDesk:    app.CurrentDesk.String(),
		SubmissionDate: app.SubmissionDate.UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.config.Observability.RecordJobProcessed(ctx, "failed")
	h.config.Observability.RecordJobDuration(ctx, time.Since(start), "failed")
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":        job.Key,
		"applicationId": output.ApplicationID,
	})
}
