// Package service holds the retrieval logic over the article index.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"najah-search-go/internal/extractor"
	"najah-search-go/internal/model"
	"najah-search-go/pkg/embedding"
	"najah-search-go/pkg/log"
)

// GeoFilter restricts results to documents whose primary location lies within
// Distance of Center. Documents without a resolved location never match.
type GeoFilter struct {
	Center   model.GeoCoordinates
	Distance string
}

// DateFilter restricts results by publication date. Either bound may be empty.
type DateFilter struct {
	From string
	To   string
}

// SearchRequest is one retrieval call. Language selects which localized
// fields are queried; UseVector toggles the semantic leg of the hybrid query.
type SearchRequest struct {
	Query     string
	Language  string
	K         int
	UseVector bool
	Geo       *GeoFilter
	Date      *DateFilter
}

// SearchHit is one ranked result.
type SearchHit struct {
	DocID      string              `json:"doc_id"`
	SourceUUID string              `json:"source_uuid"`
	Score      float64             `json:"score"`
	Title      model.LocalizedText `json:"title"`
	Author     string              `json:"author"`
}

// Suggestion is one typeahead completion.
type Suggestion struct {
	DocID string  `json:"doc_id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// SearchService exposes retrieval over the article index.
type SearchService interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchHit, error)
	Suggest(ctx context.Context, prefix string, size int) ([]Suggestion, error)
}

type searchService struct {
	esClient        *elasticsearch.Client
	embeddingClient embedding.Client
	temporal        extractor.TemporalExtractor
	locations       extractor.LocationExtractor
	resolver        extractor.CoordinateResolver
	indexName       string
}

// NewSearchService creates a SearchService over the given index.
func NewSearchService(esClient *elasticsearch.Client, embeddingClient embedding.Client, temporal extractor.TemporalExtractor, locations extractor.LocationExtractor, resolver extractor.CoordinateResolver, indexName string) SearchService {
	return &searchService{
		esClient:        esClient,
		embeddingClient: embeddingClient,
		temporal:        temporal,
		locations:       locations,
		resolver:        resolver,
		indexName:       indexName,
	}
}

// esHit is the slice of the Elasticsearch response body both queries read.
type esHit struct {
	ID     string  `json:"_id"`
	Score  float64 `json:"_score"`
	Source struct {
		SourceUUID string              `json:"source_uuid"`
		Title      model.LocalizedText `json:"title"`
		Author     string              `json:"author"`
	} `json:"_source"`
}

// Search runs the hybrid query: lexical matching over the localized title and
// abstract, an optional kNN leg over the abstract vector, hard geo and date
// filters, and a soft boost for documents mentioning the years named in the
// query.
func (s *searchService) Search(ctx context.Context, req SearchRequest) ([]SearchHit, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	lang := req.Language
	if lang != model.LangAR {
		lang = model.LangEN
	}
	k := req.K
	if k < 1 {
		k = 10
	}
	log.Infof("[SearchService] search: query='%s' lang=%s k=%d vector=%t", query, lang, k, req.UseVector)

	boolQuery := map[string]interface{}{
		"must": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": query,
				"fields": []string{
					fmt.Sprintf("title.%s^3", lang),
					fmt.Sprintf("abstract.%s^2", lang),
				},
				"type":                 "best_fields",
				"minimum_should_match": "60%",
			},
		},
	}

	// Years and places named in the query boost documents that mention them,
	// without excluding documents that do not.
	var shoulds []map[string]interface{}
	if years := s.queryYears(query); len(years) > 0 {
		shoulds = append(shoulds, map[string]interface{}{
			"constant_score": map[string]interface{}{
				"filter": map[string]interface{}{
					"terms": map[string]interface{}{
						"temporal_mentions.normalized_value": years,
					},
				},
				"boost": 0.6,
			},
		})
	}
	shoulds = append(shoulds, s.queryGeoBoosts(ctx, query)...)
	if len(shoulds) > 0 {
		boolQuery["should"] = shoulds
	}

	var filters []map[string]interface{}
	if req.Geo != nil {
		if !req.Geo.Center.Valid() {
			return nil, fmt.Errorf("geo filter center out of range: %f, %f", req.Geo.Center.Lat, req.Geo.Center.Lon)
		}
		filters = append(filters, map[string]interface{}{
			"geo_distance": map[string]interface{}{
				"distance": req.Geo.Distance,
				"primary_location": map[string]interface{}{
					"lat": req.Geo.Center.Lat,
					"lon": req.Geo.Center.Lon,
				},
			},
		})
	}
	if req.Date != nil && (req.Date.From != "" || req.Date.To != "") {
		dateRange := map[string]interface{}{}
		if req.Date.From != "" {
			dateRange["gte"] = req.Date.From
		}
		if req.Date.To != "" {
			dateRange["lte"] = req.Date.To
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{
				"publication_date": dateRange,
			},
		})
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"size": k,
		"_source": map[string]interface{}{
			"excludes": []string{"abstract_vector"},
		},
	}

	if req.UseVector {
		queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to create query embedding: %w", err)
		}
		knn := map[string]interface{}{
			"field":          fmt.Sprintf("abstract_vector.%s", lang),
			"query_vector":   queryVector,
			"k":              k * 10,
			"num_candidates": k * 10,
		}
		// The kNN leg obeys the same hard filters as the lexical leg, so a
		// semantically close document outside the geo or date window cannot
		// leak in.
		if len(filters) > 0 {
			knn["filter"] = map[string]interface{}{
				"bool": map[string]interface{}{"filter": filters},
			}
		}
		esQuery["knn"] = knn
	}

	hits, err := s.runSearch(ctx, esQuery)
	if err != nil {
		return nil, err
	}

	results := make([]SearchHit, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchHit{
			DocID:      hit.ID,
			SourceUUID: hit.Source.SourceUUID,
			Score:      hit.Score,
			Title:      hit.Source.Title,
			Author:     hit.Source.Author,
		})
	}
	log.Infof("[SearchService] search returned %d hits", len(results))
	return results, nil
}

// Suggest serves typeahead over titles and authors: a prefix match first, with
// a fuzzy single-term fallback for typos. Both languages are always queried;
// a prefix in either script completes.
func (s *searchService) Suggest(ctx context.Context, prefix string, size int) ([]Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []Suggestion{}, nil
	}
	if size < 1 {
		size = 5
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  prefix,
							"type":   "phrase_prefix",
							"fields": []string{"title.en^4", "title.ar^4", "author^2"},
							"boost":  3.0,
						},
					},
					{
						"multi_match": map[string]interface{}{
							"query":     prefix,
							"fields":    []string{"title.en^4", "title.ar^4", "author^2"},
							"fuzziness": "AUTO",
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"size": size,
		"_source": map[string]interface{}{
			"includes": []string{"source_uuid", "title", "author"},
		},
		"track_total_hits": false,
		"terminate_after":  2000,
	}

	hits, err := s.runSearch(ctx, esQuery)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(hits))
	for _, hit := range hits {
		text := hit.Source.Title.EN
		if text == "" {
			text = hit.Source.Title.AR
		}
		if text == "" {
			text = hit.Source.Author
		}
		if text == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			DocID: hit.ID,
			Text:  text,
			Score: hit.Score,
		})
	}
	return suggestions, nil
}

// runSearch encodes the query, executes it, and returns the raw hits.
func (s *searchService) runSearch(ctx context.Context, esQuery map[string]interface{}) ([]esHit, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchService] elasticsearch error, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []esHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}
	return esResponse.Hits.Hits, nil
}

// queryGeoBoosts soft-boosts documents tied to the places named in the query:
// a nested match on the recognized place name, plus a proximity boost around
// its resolved coordinates. Resolution trouble skips the proximity boost and
// leaves the lexical query untouched.
func (s *searchService) queryGeoBoosts(ctx context.Context, query string) []map[string]interface{} {
	if s.locations == nil {
		return nil
	}
	var shoulds []map[string]interface{}
	for _, cand := range s.locations.Extract(query) {
		shoulds = append(shoulds, map[string]interface{}{
			"nested": map[string]interface{}{
				"path": "geo_references",
				"query": map[string]interface{}{
					"match": map[string]interface{}{
						"geo_references.place_name": cand.Name,
					},
				},
				"boost": 0.5,
			},
		})

		if s.resolver == nil {
			continue
		}
		coords, _, err := s.resolver.Resolve(ctx, cand.Name)
		if err != nil {
			log.Warnf("[SearchService] place resolution failed for %q: %v", cand.Name, err)
			continue
		}
		if coords == nil || !coords.Valid() {
			continue
		}
		shoulds = append(shoulds, map[string]interface{}{
			"constant_score": map[string]interface{}{
				"filter": map[string]interface{}{
					"geo_distance": map[string]interface{}{
						"distance": "100km",
						"primary_location": map[string]interface{}{
							"lat": coords.Lat,
							"lon": coords.Lon,
						},
					},
				},
				"boost": 0.4,
			},
		})
	}
	return shoulds
}

// queryYears extracts the resolved years named in the query text, with ranges
// expanded to their individual years.
func (s *searchService) queryYears(query string) []string {
	if s.temporal == nil {
		return nil
	}
	var values []string
	for _, m := range s.temporal.Extract(query) {
		if m.Resolved() {
			values = append(values, m.NormalizedValue)
		}
	}
	if len(values) == 0 {
		return nil
	}
	return extractor.ExpandYearRanges(values)
}
