package auditindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeES answers with a canned status and body and records every request.
type fakeES struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{r.Method, r.URL.Path, string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

func newIndex(t *testing.T, fake *fakeES) *Index {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return New(client, "verification-audit", logger.NewTestLogger(t))
}

func record(id string) models.AuditRecord {
	return models.AuditRecord{
		ID:            id,
		ApplicationID: "app-1",
		ActorID:       "v-junior",
		ActionType:    models.AuditDocumentRejected,
		Details:       "invalid document",
		Timestamp:     time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAfterCommit_IndexesEveryRecord(t *testing.T) {
	fake := &fakeES{status: http.StatusCreated, body: `{"result":"created"}`}
	idx := newIndex(t, fake)

	err := idx.AfterCommit(context.Background(), workflow.Event{
		Records: []models.AuditRecord{record("r-1"), record("r-2")},
	})
	require.NoError(t, err)

	require.Len(t, fake.requests, 2)
	assert.Equal(t, http.MethodPut, fake.requests[0].Method)
	assert.Equal(t, "/verification-audit/_doc/r-1", fake.requests[0].Path)
	assert.Equal(t, "/verification-audit/_doc/r-2", fake.requests[1].Path)

	var doc models.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(fake.requests[0].Body), &doc))
	assert.Equal(t, record("r-1"), doc)
}

func TestAfterCommit_NoRecords(t *testing.T) {
	fake := &fakeES{status: http.StatusCreated}
	idx := newIndex(t, fake)

	require.NoError(t, idx.AfterCommit(context.Background(), workflow.Event{}))
	assert.Empty(t, fake.requests)
}

func TestPut_ErrorStatus(t *testing.T) {
	fake := &fakeES{status: http.StatusInternalServerError, body: `{"error":"boom"}`}
	idx := newIndex(t, fake)

	r := record("r-1")
	err := idx.Put(context.Background(), &r)
	assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, apperrors.CodeOf(err))
}

func TestSearch(t *testing.T) {
	fake := &fakeES{status: http.StatusOK, body: `{
		"took": 3,
		"hits": {
			"total": {"value": 7, "relation": "eq"},
			"hits": [
				{"_id": "r-1", "_source": {"id": "r-1", "applicationId": "app-1", "actorId": "v-junior",
					"actionType": "DOCUMENT_REJECTED", "details": "invalid document", "timestamp": "2026-10-01T10:00:00Z"}}
			]
		}
	}`}
	idx := newIndex(t, fake)

	page, err := idx.Search(context.Background(), "invalid", models.NewPageRequest(2, 5))
	require.NoError(t, err)

	assert.Equal(t, int64(7), page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, record("r-1"), page.Items[0])

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "/verification-audit/_search", req.Path)
	assert.Contains(t, req.Body, `"multi_match"`)
	assert.Contains(t, req.Body, `"invalid"`)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   apperrors.ErrorCode
	}{
		{"missing index", http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`, apperrors.ErrCodeIndexNotFound},
		{"bad query", http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`, apperrors.ErrCodeSearchQueryFailed},
		{"garbage body", http.StatusOK, `not json`, apperrors.ErrCodeSearchQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := newIndex(t, &fakeES{status: tt.status, body: tt.body})
			_, err := idx.Search(context.Background(), "x", models.NewPageRequest(1, 10))
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestBuildQuery(t *testing.T) {
	body, err := json.Marshal(buildQuery("APPROVED"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `"details^2"`))
	assert.True(t, strings.Contains(string(body), `"order":"desc"`))
}
