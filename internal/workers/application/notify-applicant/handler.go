// internal/workers/application/notify-applicant/handler.go
package notifyapplicant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/metrics"
	"verification-workflow/internal/models"
	"verification-workflow/internal/notification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-applicant"
)

type ApplicationReader interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
}

type Notifier interface {
	Notify(ctx context.Context, app *models.Application) (*models.Notification, error)
}

type Handler struct {
	config       *Config
	applications ApplicationReader
	notifier     Notifier
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, applications ApplicationReader, notifier Notifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		applications: applications,
		notifier:     notifier,
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

// Execute sends the status template for the application. A failed send is
// returned as a retryable error so the engine retries the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, apperrors.NewValidationError("applicationId is required")
	}

	app, err := h.applications.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if input.Status != "" {
		want, err := models.ParseStatus(input.Status)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		if app.Status != want {
			return nil, apperrors.NewInvalidTransitionError(
				fmt.Sprintf("application %s is %s, not %s", app.ID, app.Status, want))
		}
	}
	if !notification.Notifiable(app) {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("application %s is %s at %s", app.ID, app.Status, app.CurrentDesk))
	}

	n, err := h.notifier.Notify(ctx, app)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if n.Status == notification.StatusFailed {
		return nil, apperrors.NewNotificationSendFailedError(n.Channel, errors.New("delivery failed"))
	}

	return &Output{
		NotificationID: n.ID,
		Status:         n.Status,
		Channel:        n.Channel,
		SentAt:         n.SentAt,
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
		"jobKey":             job.Key,
		"notificationId":     output.NotificationID,
		"notificationStatus": output.Status,
	})
}
