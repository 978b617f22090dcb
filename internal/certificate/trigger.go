// Package certificate renders approved applications and stores the result.
package certificate

import (
	"context"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/metrics"
	"verification-workflow/internal/models"
)

// BlobStore persists rendered certificates.
type BlobStore interface {
	SaveCertificate(ctx context.Context, id string, blob []byte) error
}

// UserLookup resolves the approving verifier's display name.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Trigger struct {
	renderer Renderer
	store    BlobStore
	users    UserLookup
	timeout  time.Duration
	logger   logger.Logger
}

func NewTrigger(renderer Renderer, store BlobStore, users UserLookup, timeout time.Duration, log logger.Logger) *Trigger {
	return &Trigger{
		renderer: renderer,
		store:    store,
		users:    users,
		timeout:  timeout,
		logger:   log.WithFields(map[string]interface{}{"component": "certificate-trigger"}),
	}
}

type renderResult struct {
	blob []byte
	err  error
}

// Generate renders the certificate and saves it through ctx, so inside a
// transaction the blob commits with the approval.
func (t *Trigger) Generate(ctx context.Context, app *models.Application) ([]byte, error) {
	docType := app.DocumentType.String()
	approver := t.approverName(ctx, app)

	renderCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	done := make(chan renderResult, 1)
	go func() {
		blob, err := t.renderer.Render(renderCtx, app, approver)
		done <- renderResult{blob, err}
	}()

	var res renderResult
	select {
	case res = <-done:
	case <-renderCtx.Done():
		res.err = apperrors.NewRenderFailureError(docType, renderCtx.Err())
	}

	if res.err != nil {
		metrics.CertificateRenders.WithLabelValues(docType, "failed").Inc()
		if _, ok := apperrors.As(res.err); !ok {
			res.err = apperrors.NewRenderFailureError(docType, res.err)
		}
		t.logger.Warn("certificate render failed", map[string]interface{}{
			"applicationId": app.ID,
			"documentType":  docType,
			"error":         res.err,
		})
		return nil, res.err
	}

	if err := t.store.SaveCertificate(ctx, app.ID, res.blob); err != nil {
		metrics.CertificateRenders.WithLabelValues(docType, "store_failed").Inc()
		return nil, err
	}

	metrics.CertificateRenders.WithLabelValues(docType, "generated").Inc()
	t.logger.Info("certificate generated", map[string]interface{}{
		"applicationId": app.ID,
		"documentType":  docType,
		"bytes":         len(res.blob),
	})
	return res.blob, nil
}

func (t *Trigger) approverName(ctx context.Context, app *models.Application) string {
	if app.ApprovedByUserID == nil {
		return ""
	}
	id := *app.ApprovedByUserID
	if t.users == nil {
		return id
	}
	u, err := t.users.GetUser(ctx, id)
	if err != nil || u.FullName == "" {
		return id
	}
	return u.FullName
}
