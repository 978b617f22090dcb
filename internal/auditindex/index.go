// Package auditindex mirrors audit records into Elasticsearch and serves
// free-text search over them.
package auditindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Mapping is applied when the index is created on startup.
const Mapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "keyword"},
      "applicationId": {"type": "keyword"},
      "actorId":       {"type": "keyword"},
      "actionType":    {"type": "keyword"},
      "details":       {"type": "text"},
      "timestamp":     {"type": "date"}
    }
  }
}`

type Index struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Index {
	return &Index{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit-index", "index": index}),
	}
}

func (i *Index) Name() string { return "audit-index" }

// AfterCommit indexes every record of a committed transition. Records keep
// their ids as document ids, so replays overwrite instead of duplicating.
func (i *Index) AfterCommit(ctx context.Context, event workflow.Event) error {
	for idx := range event.Records {
		if err := i.Put(ctx, &event.Records[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (i *Index) Put(ctx context.Context, record *models.AuditRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchQueryFailedError("index audit record", fmt.Errorf("%s", res.Status()))
	}
	i.logger.Debug("audit record indexed", map[string]interface{}{
		"recordId":      record.ID,
		"applicationId": record.ApplicationID,
	})
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.AuditRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildQuery(query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"details^2", "actionType", "applicationId", "actorId"},
				"type":   "best_fields",
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"timestamp": map[string]interface{}{"order": "desc"}},
		},
	}
}

// Search runs a multi_match query over the mirrored records, newest first.
func (i *Index) Search(ctx context.Context, query string, page models.PageRequest) (models.Page[models.AuditRecord], error) {
	body, err := json.Marshal(buildQuery(query))
	if err != nil {
		return models.Page[models.AuditRecord]{}, apperrors.NewInternalError(err)
	}

	from := page.Offset()
	size := page.Size
	req := esapi.SearchRequest{
		Index:          []string{i.index},
		Body:           bytes.NewReader(body),
		From:           &from,
		Size:           &size,
		TrackTotalHits: true,
	}

	start := time.Now()
	res, err := req.Do(ctx, i.client)
	if err != nil {
		if ctx.Err() != nil {
			return models.Page[models.AuditRecord]{}, apperrors.NewTimeoutError("elasticsearch", err)
		}
		return models.Page[models.AuditRecord]{}, apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return models.Page[models.AuditRecord]{}, apperrors.NewIndexNotFoundError(i.index)
	}
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return models.Page[models.AuditRecord]{}, apperrors.NewSearchQueryFailedError("search audit records",
			fmt.Errorf("%s: %s", res.Status(), bytes.TrimSpace(msg)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return models.Page[models.AuditRecord]{}, apperrors.NewSearchQueryFailedError("decode search response", err)
	}

	items := make([]models.AuditRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}

	i.logger.Debug("audit search completed", map[string]interface{}{
		"query": query,
		"hits":  parsed.Hits.Total.Value,
		"took":  time.Since(start).Milliseconds(),
	})
	return models.NewPage(items, page, parsed.Hits.Total.Value), nil
}
