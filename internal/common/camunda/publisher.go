package camunda

import (
	"context"

	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"
)

// DecisionMessage is published when a verifier decision commits, so a
// running process instance waiting on the application can continue.
const DecisionMessage = "verification-decision"

// MessagePublisher is satisfied by *Client.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error
}

// DecisionPublisher forwards committed verifier decisions to Zeebe.
type DecisionPublisher struct {
	publisher MessagePublisher
}

func NewDecisionPublisher(p MessagePublisher) *DecisionPublisher {
	return &DecisionPublisher{publisher: p}
}

func (d *DecisionPublisher) Name() string { return "zeebe-decision-publisher" }

func (d *DecisionPublisher) AfterCommit(ctx context.Context, event workflow.Event) error {
	if !event.Action.Valid() || event.Application == nil {
		return nil
	}
	return d.publisher.PublishMessage(ctx, DecisionMessage, event.Application.ID, DecisionVariables(event.Application, event.Action))
}

// DecisionVariables are the process variables carried by a decision message.
func DecisionVariables(app *models.Application, action models.Action) map[string]interface{} {
	vars := map[string]interface{}{
		"applicationId":  app.ID,
		"action":         action.String(),
		"status":         app.Status.String(),
		"currentDesk":    app.CurrentDesk.String(),
		"hasCertificate": app.HasCertificate(),
	}
	if app.RejectionReason != nil {
		vars["rejectionReason"] = *app.RejectionReason
	}
	if app.ChangeRemarks != nil {
		vars["changeRemarks"] = *app.ChangeRemarks
	}
	return vars
}
