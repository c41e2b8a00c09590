package index

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"najah-search-go/internal/model"
	"najah-search-go/internal/schema"
)

const testDimension = 4

// fakeTransport routes the elasticsearch client's requests to a test function.
type fakeTransport struct {
	fn func(*http.Request) (*http.Response, error)
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return f.fn(req)
}

func esResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header: http.Header{
			"X-Elastic-Product": []string{"Elasticsearch"},
			"Content-Type":      []string{"application/json"},
		},
		Body: io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, maxAttempts int, fn func(*http.Request) (*http.Response, error)) *Client {
	t.Helper()
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
		Transport: &fakeTransport{fn: fn},
		// The transport's own retry loop would hide ours from the assertions.
		DisableRetry: true,
	})
	require.NoError(t, err)

	sch, err := schema.New(1, testDimension)
	require.NoError(t, err)

	return NewClient(esClient, sch, "test-articles", maxAttempts, time.Millisecond)
}

func testDoc(sourceUUID string, dim int) *model.ArticleDocument {
	doc := &model.ArticleDocument{
		ID:         model.NewDocumentID(sourceUUID),
		SourceUUID: sourceUUID,
		Title:      model.LocalizedText{EN: "A title"},
	}
	if dim > 0 {
		doc.Embeddings = &model.LocalizedVector{EN: make([]float32, dim)}
	}
	return doc
}

func TestUpsert_WritesByDocumentID(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, 3, func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		gotMethod = req.Method
		return esResponse(201, `{"result":"created"}`), nil
	})

	doc := testDoc("rec-1", testDimension)
	require.NoError(t, client.Upsert(context.Background(), doc))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/test-articles/_doc/"+doc.ID, gotPath,
		"the write must target the stable document id so replays replace")
}

func TestUpsert_MissingIDRejectedBeforeWrite(t *testing.T) {
	requests := 0
	client := newTestClient(t, 3, func(*http.Request) (*http.Response, error) {
		requests++
		return esResponse(201, `{}`), nil
	})

	doc := testDoc("rec-1", testDimension)
	doc.ID = ""
	err := client.Upsert(context.Background(), doc)

	assert.ErrorIs(t, err, ErrMissingDocID)
	assert.Equal(t, 0, requests)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestUpsert_DimensionMismatchRejectedBeforeWrite(t *testing.T) {
	requests := 0
	client := newTestClient(t, 3, func(*http.Request) (*http.Response, error) {
		requests++
		return esResponse(201, `{}`), nil
	})

	err := client.Upsert(context.Background(), testDoc("rec-1", testDimension+3))

	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, testDimension+3, mismatch.Got)
	assert.Equal(t, testDimension, mismatch.Want)
	assert.Equal(t, 0, requests)
	assert.Equal(t, KindSchemaMismatch, KindOf(err))
}

func TestUpsert_DocumentWithoutVectorsAccepted(t *testing.T) {
	client := newTestClient(t, 3, func(*http.Request) (*http.Response, error) {
		return esResponse(201, `{}`), nil
	})

	require.NoError(t, client.Upsert(context.Background(), testDoc("rec-1", 0)))
}

func TestUpsert_TransientFailureRetriedThenReported(t *testing.T) {
	requests := 0
	client := newTestClient(t, 3, func(*http.Request) (*http.Response, error) {
		requests++
		return esResponse(503, `{"error":"unavailable"}`), nil
	})

	err := client.Upsert(context.Background(), testDoc("rec-1", testDimension))

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, 3, transient.Attempts)
	assert.Equal(t, 3, requests, "each configured attempt must reach the backend")
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestUpsert_PermanentRejectionNotRetried(t *testing.T) {
	requests := 0
	client := newTestClient(t, 5, func(*http.Request) (*http.Response, error) {
		requests++
		return esResponse(400, `{"error":"mapper_parsing_exception"}`), nil
	})

	err := client.Upsert(context.Background(), testDoc("rec-1", testDimension))

	require.Error(t, err)
	assert.Equal(t, 1, requests, "4xx rejections are permanent")
	assert.Equal(t, KindFailure, KindOf(err))
}

func TestIsTransient_WrappedStatusErrors(t *testing.T) {
	assert.True(t, isTransient(fmt.Errorf("index request failed: %w", &statusError{code: 503})))
	assert.True(t, isTransient(fmt.Errorf("index request failed: %w", &statusError{code: 429})))
	assert.False(t, isTransient(fmt.Errorf("index request failed: %w", &statusError{code: 400})))
	assert.True(t, isTransient(fmt.Errorf("connection refused")), "transport errors are retryable")
}

func TestBulkUpsert_PerDocumentOutcomes(t *testing.T) {
	failID := model.NewDocumentID("rec-bad")
	client := newTestClient(t, 2, func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, failID) {
			return esResponse(503, `{"error":"unavailable"}`), nil
		}
		return esResponse(201, `{}`), nil
	})

	docs := []*model.ArticleDocument{
		testDoc("rec-a", testDimension),
		testDoc("rec-bad", testDimension),
		testDoc("rec-b", testDimension),
	}
	results := client.BulkUpsert(context.Background(), docs)

	require.Len(t, results, 3)
	assert.Equal(t, KindSuccess, results[0].Kind)
	assert.Equal(t, KindTransient, results[1].Kind)
	assert.Equal(t, KindSuccess, results[2].Kind, "a failing document must not abort the batch")
	assert.Equal(t, "rec-bad", results[1].SourceUUID)
	assert.Error(t, results[1].Err)
}

func TestGetByID_AbsentDocument(t *testing.T) {
	client := newTestClient(t, 1, func(*http.Request) (*http.Response, error) {
		return esResponse(404, `{"found":false}`), nil
	})

	doc, err := client.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetByID_RoundTrip(t *testing.T) {
	source := testDoc("rec-1", testDimension)
	client := newTestClient(t, 1, func(*http.Request) (*http.Response, error) {
		return esResponse(200, fmt.Sprintf(`{"_id":%q,"found":true,"_source":{"id":%q,"source_uuid":"rec-1"}}`, source.ID, source.ID)), nil
	})

	doc, err := client.GetByID(context.Background(), source.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, source.ID, doc.ID)
	assert.Equal(t, "rec-1", doc.SourceUUID)
}
