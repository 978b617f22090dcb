package httptransport

import (
	"context"
	"net/http"
	"time"

	"verification-workflow/internal/common/auth"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"

	"github.com/go-chi/chi/v5/middleware"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller stored by the auth middleware.
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*models.Principal)
	return p, ok && p != nil
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := h.logger.WithFields(map[string]interface{}{
			"requestId": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

		reqLog.Info("request completed", map[string]interface{}{
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		principal, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := withPrincipal(r.Context(), principal)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx, h.logger).WithFields(map[string]interface{}{
			"subject": principal.Subject,
		}))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actor resolves the caller into a verifier actor.
func (h *Handler) actor(r *http.Request) (models.Actor, error) {
	p, _ := PrincipalFrom(r.Context())
	return h.service.ResolveActor(r.Context(), p.Subject)
}

func subject(r *http.Request) string {
	p, _ := PrincipalFrom(r.Context())
	return p.Subject
}
