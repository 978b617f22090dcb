// Package notification tells applicants when a verifier resolves their
// application.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/metrics"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// SESService and SNSService are the slices of the AWS clients the notifier
// calls; tests substitute func-field mocks.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// UserLookup resolves applicant contact details.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	Timeout      time.Duration
}

type Notifier struct {
	config    Config
	users     UserLookup
	ses       SESService
	sns       SNSService
	templates map[models.Status]models.NotificationTemplate
	logger    logger.Logger
}

func NewNotifier(cfg Config, users UserLookup, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		users:     users,
		ses:       sesClient,
		sns:       snsClient,
		templates: defaultTemplates(),
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func defaultTemplates() map[models.Status]models.NotificationTemplate {
	return map[models.Status]models.NotificationTemplate{
		models.StatusApproved: {
			ID:      "application_approved",
			Subject: "Your {{documentType}} certificate is ready",
			Body:    "Your application {{applicationId}} is now {{status}}. The certificate can be downloaded from the portal.",
		},
		models.StatusRejected: {
			ID:      "application_rejected",
			Subject: "Update on your {{documentType}} application",
			Body:    "Your application {{applicationId}} is now {{status}}. Reason: {{remarks}}",
		},
		models.StatusChangesRequested: {
			ID:      "application_changes_requested",
			Subject: "Changes requested on your {{documentType}} application",
			Body:    "Your application {{applicationId}} is now {{status}}. Remarks: {{remarks}}",
		},
	}
}

// Notifiable reports whether app sits in a state the applicant hears about.
func Notifiable(app *models.Application) bool {
	if app == nil || app.CurrentDesk == models.DeskUnknown {
		return false
	}
	switch app.Status {
	case models.StatusApproved:
		return app.CurrentDesk == models.DeskCertificateGeneration
	case models.StatusRejected, models.StatusChangesRequested:
		return app.CurrentDesk == models.DeskApplicant
	}
	return false
}

func (n *Notifier) Name() string { return "applicant-notifier" }

// AfterCommit notifies on verifier decisions that resolve an application.
// Junior approvals, submissions and regenerations are skipped.
func (n *Notifier) AfterCommit(ctx context.Context, event workflow.Event) error {
	if !event.Action.Valid() || !Notifiable(event.Application) {
		return nil
	}
	_, err := n.Notify(ctx, event.Application)
	return err
}

// Notify sends the status template for app over every enabled channel the
// applicant has contact details for. Send failures are reported in the
// returned status rather than as an error.
func (n *Notifier) Notify(ctx context.Context, app *models.Application) (*models.Notification, error) {
	if n.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.config.Timeout)
		defer cancel()
	}

	notification := &models.Notification{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		RecipientID:   app.ApplicantID,
		Status:        StatusDisabled,
		SentAt:        time.Now().UTC().Format(time.RFC3339),
	}

	tmpl, ok := n.templates[app.Status]
	if !ok {
		return nil, fmt.Errorf("no notification template for status %s", app.Status)
	}

	user, err := n.users.GetUser(ctx, app.ApplicantID)
	if err != nil {
		n.logger.Warn("recipient not found", map[string]interface{}{
			"recipientId":   app.ApplicantID,
			"applicationId": app.ID,
		})
		return notification, nil
	}

	data := templateData(app, user)
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)
	notification.Payload = map[string]interface{}{
		"templateId": tmpl.ID,
		"subject":    subject,
		"body":       body,
	}

	var channels []string
	if n.config.EmailEnabled && n.ses != nil && user.Email != "" {
		if err := n.sendEmail(ctx, user.Email, subject, body); err != nil {
			return n.failed(notification, ChannelEmail, err), nil
		}
		metrics.NotificationsSent.WithLabelValues(ChannelEmail, StatusSent).Inc()
		channels = append(channels, ChannelEmail)
	}

	if n.config.SMSEnabled && n.sns != nil && user.Phone != "" {
		if err := n.sendSMS(ctx, user.Phone, body); err != nil {
			return n.failed(notification, ChannelSMS, err), nil
		}
		metrics.NotificationsSent.WithLabelValues(ChannelSMS, StatusSent).Inc()
		channels = append(channels, ChannelSMS)
	}

	if len(channels) > 0 {
		notification.Status = StatusSent
		notification.Channel = strings.Join(channels, ",")
	}

	n.logger.Info("applicant notified", map[string]interface{}{
		"applicationId": app.ID,
		"status":        notification.Status,
		"channels":      notification.Channel,
	})
	return notification, nil
}

func (n *Notifier) failed(notification *models.Notification, channel string, err error) *models.Notification {
	metrics.NotificationsSent.WithLabelValues(channel, StatusFailed).Inc()
	n.logger.Error("notification send failed", map[string]interface{}{
		"error":         err,
		"channel":       channel,
		"applicationId": notification.ApplicationID,
	})
	notification.Status = StatusFailed
	notification.Channel = channel
	return notification
}

func templateData(app *models.Application, user *models.User) map[string]interface{} {
	data := map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status.String(),
		"documentType":  strings.ToLower(app.DocumentType.String()),
		"fullName":      user.FullName,
	}
	switch {
	case app.RejectionReason != nil:
		data["remarks"] = *app.RejectionReason
	case app.ChangeRemarks != nil:
		data["remarks"] = *app.ChangeRemarks
	}
	return data
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// renderTemplate replaces {{key}} placeholders and drops unknown ones.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprint(v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
