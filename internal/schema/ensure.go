package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"najah-search-go/pkg/log"
)

// EnsureIndex creates the index with this schema when it does not exist, and
// verifies the recorded schema version and vector dimension when it does. A
// mismatch is fatal at startup: the running schema cannot serve an index
// built for another one without a full reindex.
func (s *Schema) EnsureIndex(ctx context.Context, client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("index '%s' already exists, verifying schema metadata", indexName)
		return s.verifyMeta(ctx, client, indexName)
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking index existence: %d", res.StatusCode)
	}

	body, err := s.Body()
	if err != nil {
		return fmt.Errorf("failed to render index mapping: %w", err)
	}

	createRes, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index '%s': %w", indexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("elasticsearch rejected index creation: %s", createRes.String())
	}

	log.Infof("index '%s' created with schema version %d, dimension %d", indexName, s.Version, s.Dimension)
	return nil
}

// verifyMeta compares the _meta recorded at index creation with this schema.
func (s *Schema) verifyMeta(ctx context.Context, client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.GetMapping(
		client.Indices.GetMapping.WithContext(ctx),
		client.Indices.GetMapping.WithIndex(indexName),
	)
	if err != nil {
		return fmt.Errorf("failed to fetch index mapping: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch returned an error fetching mapping: %s", res.String())
	}

	var payload map[string]struct {
		Mappings struct {
			Meta struct {
				SchemaVersion   int `json:"schema_version"`
				VectorDimension int `json:"vector_dimension"`
			} `json:"_meta"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode mapping response: %w", err)
	}

	for _, idx := range payload {
		meta := idx.Mappings.Meta
		if meta.SchemaVersion != s.Version {
			return fmt.Errorf("index '%s' has schema version %d, expected %d: reindex required", indexName, meta.SchemaVersion, s.Version)
		}
		if meta.VectorDimension != s.Dimension {
			return fmt.Errorf("index '%s' has vector dimension %d, expected %d: reindex required", indexName, meta.VectorDimension, s.Dimension)
		}
		return nil
	}
	return fmt.Errorf("index '%s' mapping carries no schema metadata", indexName)
}
