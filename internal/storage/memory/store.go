// Package memory is an in-process implementation of the application,
// audit and user stores. Transactions stage writes and validate versions at
// commit, so concurrent writers observe the same CONFLICT semantics as the
// postgres store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
)

type Store struct {
	mu    sync.RWMutex
	apps  map[string]*models.Application
	users map[string]*models.User
	audit []models.AuditRecord
}

func New() *Store {
	return &Store{
		apps:  make(map[string]*models.Application),
		users: make(map[string]*models.User),
	}
}

type txKey struct{}

type staged struct {
	app         *models.Application
	baseVersion int64 // committed version when first staged; 0 for creates
	created     bool
}

type txn struct {
	apps  map[string]*staged
	order []string
	blobs map[string][]byte
	audit []models.AuditRecord
}

func txFrom(ctx context.Context) *txn {
	t, _ := ctx.Value(txKey{}).(*txn)
	return t
}

// RunInTx stages every write made through ctx and applies them atomically
// when fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewTimeoutError("memory store", err)
	}
	t := &txn{apps: map[string]*staged{}, blobs: map[string][]byte{}}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range t.order {
		st := t.apps[id]
		cur, exists := s.apps[id]
		if st.created {
			if exists {
				return apperrors.NewConflictError("application", id)
			}
			continue
		}
		if !exists || cur.Version != st.baseVersion {
			return apperrors.NewConflictError("application", id)
		}
	}

	for _, id := range t.order {
		s.apps[id] = t.apps[id].app.Clone()
	}
	for id, blob := range t.blobs {
		if app, ok := s.apps[id]; ok {
			app.CertificateBlob = append([]byte(nil), blob...)
		}
	}
	s.audit = append(s.audit, t.audit...)
	return nil
}

// ==========================
// Applications
// ==========================

func (s *Store) Get(ctx context.Context, id string) (*models.Application, error) {
	if t := txFrom(ctx); t != nil {
		if st, ok := t.apps[id]; ok {
			app := st.app.Clone()
			if blob, ok := t.blobs[id]; ok {
				app.CertificateBlob = append([]byte(nil), blob...)
			}
			return app, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("application", id)
	}
	return app.Clone(), nil
}

func (s *Store) Create(ctx context.Context, app *models.Application) error {
	if app.Version == 0 {
		app.Version = 1
	}
	if t := txFrom(ctx); t != nil {
		if _, ok := t.apps[app.ID]; ok {
			return apperrors.NewConflictError("application", app.ID)
		}
		t.apps[app.ID] = &staged{app: app.Clone(), created: true}
		t.order = append(t.order, app.ID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return apperrors.NewConflictError("application", app.ID)
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *Store) Update(ctx context.Context, app *models.Application) error {
	if t := txFrom(ctx); t != nil {
		if st, ok := t.apps[app.ID]; ok {
			if st.app.Version != app.Version {
				return apperrors.NewConflictError("application", app.ID)
			}
			app.Version++
			st.app = app.Clone()
			return nil
		}

		s.mu.RLock()
		cur, ok := s.apps[app.ID]
		var base int64
		if ok {
			base = cur.Version
		}
		s.mu.RUnlock()
		if !ok {
			return apperrors.NewNotFoundError("application", app.ID)
		}
		if base != app.Version {
			return apperrors.NewConflictError("application", app.ID)
		}
		app.Version++
		t.apps[app.ID] = &staged{app: app.Clone(), baseVersion: base}
		t.order = append(t.order, app.ID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.apps[app.ID]
	if !ok {
		return apperrors.NewNotFoundError("application", app.ID)
	}
	if cur.Version != app.Version {
		return apperrors.NewConflictError("application", app.ID)
	}
	app.Version++
	blob := cur.CertificateBlob
	s.apps[app.ID] = app.Clone()
	if len(app.CertificateBlob) == 0 {
		s.apps[app.ID].CertificateBlob = blob
	}
	return nil
}

func (s *Store) SaveCertificate(ctx context.Context, id string, blob []byte) error {
	if t := txFrom(ctx); t != nil {
		if st, ok := t.apps[id]; ok {
			st.app.CertificateBlob = append([]byte(nil), blob...)
			return nil
		}
		s.mu.RLock()
		_, ok := s.apps[id]
		s.mu.RUnlock()
		if !ok {
			return apperrors.NewNotFoundError("application", id)
		}
		t.blobs[id] = append([]byte(nil), blob...)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return apperrors.NewNotFoundError("application", id)
	}
	app.CertificateBlob = append([]byte(nil), blob...)
	return nil
}

func (s *Store) ListByDesk(ctx context.Context, desk models.Desk, page models.PageRequest) (models.Page[models.Application], error) {
	return s.list(page, func(a *models.Application) bool { return a.CurrentDesk == desk }, false), nil
}

func (s *Store) ListApprovedBy(ctx context.Context, verifierID string, page models.PageRequest) (models.Page[models.Application], error) {
	return s.list(page, func(a *models.Application) bool {
		return a.ApprovedByUserID != nil && *a.ApprovedByUserID == verifierID
	}, true), nil
}

func (s *Store) ListByApplicant(ctx context.Context, applicantID string, page models.PageRequest) (models.Page[models.Application], error) {
	return s.list(page, func(a *models.Application) bool { return a.ApplicantID == applicantID }, true), nil
}

// list filters applications. Desk queues are oldest first; other listings newest first.
func (s *Store) list(page models.PageRequest, keep func(*models.Application) bool, newestFirst bool) models.Page[models.Application] {
	s.mu.RLock()
	var matched []models.Application
	for _, app := range s.apps {
		if keep(app) {
			c := app.Clone()
			c.CertificateBlob = nil
			matched = append(matched, *c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.SubmissionDate.Equal(b.SubmissionDate) {
			if newestFirst {
				return a.SubmissionDate.After(b.SubmissionDate)
			}
			return a.SubmissionDate.Before(b.SubmissionDate)
		}
		return a.ID < b.ID
	})
	return models.NewPage(window(matched, page), page, int64(len(matched)))
}

func window[T any](items []T, page models.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ==========================
// Audit
// ==========================

func (s *Store) Append(ctx context.Context, record *models.AuditRecord) error {
	if t := txFrom(ctx); t != nil {
		t.audit = append(t.audit, *record)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *record)
	return nil
}

func (s *Store) List(ctx context.Context, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	return s.auditPage(page, func(models.AuditRecord) bool { return true }), nil
}

func (s *Store) ListByActor(ctx context.Context, actorID string, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	return s.auditPage(page, func(r models.AuditRecord) bool { return r.ActorID == actorID }), nil
}

func (s *Store) ListForApplication(ctx context.Context, applicationID string) ([]models.AuditRecord, error) {
	return s.newestAudit(func(r models.AuditRecord) bool { return r.ApplicationID == applicationID }), nil
}

// Search is a case-insensitive substring match over details and action type.
func (s *Store) Search(ctx context.Context, query string, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	q := strings.ToLower(query)
	return s.auditPage(page, func(r models.AuditRecord) bool {
		return strings.Contains(strings.ToLower(r.Details), q) ||
			strings.Contains(strings.ToLower(string(r.ActionType)), q)
	}), nil
}

func (s *Store) auditPage(page models.PageRequest, keep func(models.AuditRecord) bool) models.Page[models.AuditRecord] {
	matched := s.newestAudit(keep)
	return models.NewPage(window(matched, page), page, int64(len(matched)))
}

func (s *Store) newestAudit(keep func(models.AuditRecord) bool) []models.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.AuditRecord{}
	for i := len(s.audit) - 1; i >= 0; i-- {
		if keep(s.audit[i]) {
			out = append(out, s.audit[i])
		}
	}
	return out
}

// ==========================
// Users
// ==========================

// PutUser adds or replaces an account.
func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	c := *u
	return &c, nil
}

// GetVerifier returns the account only when it has the VERIFIER role.
func (s *Store) GetVerifier(ctx context.Context, id string) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil || u.Role != models.RoleVerifier {
		return nil, apperrors.NewNotFoundError("verifier", id)
	}
	return u, nil
}

// ==========================
// Aggregates
// ==========================

func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.Stats{}
	for _, app := range s.apps {
		stats.Add(app.Status, app.CurrentDesk, 1)
	}
	return stats, nil
}

func (s *Store) Metrics(ctx context.Context) (*models.VerificationMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := &models.VerificationMetrics{StatusDistribution: map[string]int64{}}
	var totalMinutes float64
	var resolved int64
	for _, app := range s.apps {
		m.TotalApplications++
		m.StatusDistribution[app.Status.String()]++
		if app.ResolvedDate != nil {
			totalMinutes += app.ResolvedDate.Sub(app.SubmissionDate).Minutes()
			resolved++
		}
	}
	if resolved > 0 {
		m.AvgProcessingTimeMinutes = totalMinutes / float64(resolved)
	}
	return m, nil
}
