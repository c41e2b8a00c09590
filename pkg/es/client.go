// Package es provides the Elasticsearch client used by the indexing and
// retrieval sides.
package es

import (
	"crypto/tls"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"najah-search-go/internal/config"
)

// NewClient builds the shared Elasticsearch client. The client is safe for
// concurrent use; it is constructed once at startup and passed to the
// indexing client and retrieval service.
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	return elasticsearch.NewClient(cfg)
}
