package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"najah-search-go/internal/model"
	"najah-search-go/internal/schema"
	"najah-search-go/pkg/log"
)

// Client writes ArticleDocuments to the index. Upserts are keyed by document
// ID: the same ID always replaces, never appends. The underlying
// elasticsearch.Client pools connections and is safe for concurrent use.
type Client struct {
	es          *elasticsearch.Client
	schema      *schema.Schema
	indexName   string
	maxAttempts int
	baseDelay   time.Duration
}

// NewClient creates an indexing client bound to one index and schema.
func NewClient(es *elasticsearch.Client, sch *schema.Schema, indexName string, maxAttempts int, baseDelay time.Duration) *Client {
	return &Client{
		es:          es,
		schema:      sch,
		indexName:   indexName,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Result is the per-document outcome of a bulk upsert.
type Result struct {
	DocID      string
	SourceUUID string
	Kind       Kind
	Err        error
}

// statusError carries a non-2xx backend response through retry classification.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("elasticsearch returned status %d: %s", e.code, e.body)
}

// isTransient treats network failures, rate limiting and server errors as
// retryable; 4xx rejections are permanent.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == 429 || se.code >= 500
	}
	// req.Do errors are transport-level: timeouts, refused connections.
	return true
}

// validate rejects documents the active schema cannot hold before any write
// is attempted.
func (c *Client) validate(doc *model.ArticleDocument) error {
	if doc.ID == "" {
		return ErrMissingDocID
	}
	if doc.Embeddings == nil || doc.Embeddings.IsEmpty() {
		return nil
	}
	dim := doc.Embeddings.Dimension()
	if dim != c.schema.Dimension {
		return &SchemaMismatchError{DocID: doc.ID, Got: dim, Want: c.schema.Dimension}
	}
	return nil
}

// Upsert writes one document, retrying transient backend failures with
// bounded exponential backoff. The context cancels between attempts only;
// an issued request always runs to completion or reports failure.
func (c *Client) Upsert(ctx context.Context, doc *model.ArticleDocument) error {
	if err := c.validate(doc); err != nil {
		return err
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}

	writeCtx := context.WithoutCancel(ctx)
	attempt := func() error {
		req := esapi.IndexRequest{
			Index:      c.indexName,
			DocumentID: doc.ID,
			Body:       bytes.NewReader(docBytes),
		}
		res, err := req.Do(writeCtx, c.es)
		if err != nil {
			return fmt.Errorf("index request failed: %w", err)
		}
		defer res.Body.Close()

		if res.IsError() {
			body, _ := io.ReadAll(res.Body)
			return &statusError{code: res.StatusCode, body: string(body)}
		}
		return nil
	}

	err = retryWithBackoff(ctx, attempt, c.maxAttempts, c.baseDelay, isTransient)
	if err == nil {
		return nil
	}
	if isTransient(err) && ctx.Err() == nil {
		return &TransientError{Attempts: c.maxAttempts, Err: err}
	}
	return err
}

// BulkUpsert writes each document independently and reports per-document
// outcomes. A failing document never aborts the rest of the batch, and
// previously indexed documents stay indexed.
func (c *Client) BulkUpsert(ctx context.Context, docs []*model.ArticleDocument) []Result {
	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		err := c.Upsert(ctx, doc)
		if err != nil {
			log.Warnf("[Index] document %s (source %s) failed: %v", doc.ID, doc.SourceUUID, err)
		}
		results = append(results, Result{
			DocID:      doc.ID,
			SourceUUID: doc.SourceUUID,
			Kind:       KindOf(err),
			Err:        err,
		})
	}
	return results
}

// GetByID fetches a document back by its ID. Used by round-trip checks and
// the re-index audit path; returns (nil, nil) when the document is absent.
func (c *Client) GetByID(ctx context.Context, id string) (*model.ArticleDocument, error) {
	res, err := c.es.Get(c.indexName, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var payload struct {
		Source model.ArticleDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode get response: %w", err)
	}
	return &payload.Source, nil
}
