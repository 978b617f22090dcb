// internal/workers/verification/record-verifier-decision/handler.go
package recordverifierdecision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/metrics"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-verifier-decision"
)

// Service is the part of the desk router this worker drives.
type Service interface {
	ResolveActor(ctx context.Context, id string) (models.Actor, error)
	Decide(ctx context.Context, applicationID string, actor models.Actor, action models.Action, remarks string) (*workflow.Result, error)
}

// Handler applies a verifier decision taken in a user task of the process.
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, apperrors.NewValidationError("applicationId is required")
	}
	action, err := models.ParseAction(input.Action)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	actor, err := h.service.ResolveActor(ctx, input.VerifierID)
	if err != nil {
		return nil, err
	}

	res, err := h.service.Decide(ctx, input.ApplicationID, actor, action, input.Remarks)
	if err != nil {
		return nil, err
	}

	app := res.Application
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &Output{
		ApplicationID:        app.ID,
		ApplicationStatus:    app.Status.String(),
		CurrentDesk:          app.CurrentDesk.String(),
		CertificateGenerated: app.HasCertificate(),
		Warnings:             warnings,
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
		"status":        output.ApplicationStatus,
	})
}
