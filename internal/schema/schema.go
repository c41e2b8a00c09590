// Package schema defines the versioned index mapping: keyword identity
// fields, per-language standard and edge-ngram analyzed text, geo-point and
// nested geo fields, date fields, and dense vectors of a fixed dimension.
// The mapping is immutable at runtime; changing a field type or the vector
// dimension means bumping the version and reindexing.
package schema

import (
	"encoding/json"
	"fmt"
)

// Schema couples the mapping version with the vector dimension it was built
// for. Both are recorded in the index _meta so a client can refuse documents
// that disagree with the active mapping.
type Schema struct {
	Version   int
	Dimension int
}

// New validates and returns a Schema. It runs at startup; an invalid schema
// is a configuration error, not a runtime condition.
func New(version, dimension int) (*Schema, error) {
	if version <= 0 {
		return nil, fmt.Errorf("schema version must be positive, got %d", version)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}
	return &Schema{Version: version, Dimension: dimension}, nil
}

// Body renders the index settings and mappings as JSON.
func (s *Schema) Body() ([]byte, error) {
	return json.Marshal(s.definition())
}

func (s *Schema) definition() map[string]interface{} {
	denseVector := func() map[string]interface{} {
		return map[string]interface{}{
			"type":       "dense_vector",
			"dims":       s.Dimension,
			"index":      true,
			"similarity": "cosine",
		}
	}

	return map[string]interface{}{
		"settings": map[string]interface{}{
			"analysis": map[string]interface{}{
				"char_filter": map[string]interface{}{
					"html_strip_cf": map[string]interface{}{"type": "html_strip"},
				},
				"tokenizer": map[string]interface{}{
					"autocomplete_tokenizer": map[string]interface{}{
						"type":        "edge_ngram",
						"min_gram":    3,
						"max_gram":    15,
						"token_chars": []string{"letter", "digit"},
					},
				},
				"filter": map[string]interface{}{
					"english_stop": map[string]interface{}{
						"type":      "stop",
						"stopwords": "_english_",
					},
					"english_stemmer": map[string]interface{}{
						"type":     "stemmer",
						"language": "english",
					},
					"english_possessive_stemmer": map[string]interface{}{
						"type":     "stemmer",
						"language": "possessive_english",
					},
					"arabic_stop": map[string]interface{}{
						"type":      "stop",
						"stopwords": "_arabic_",
					},
					"arabic_stemmer": map[string]interface{}{
						"type":     "stemmer",
						"language": "arabic",
					},
					"arabic_normalization": map[string]interface{}{
						"type": "arabic_normalization",
					},
					"length_3_plus": map[string]interface{}{
						"type": "length",
						"min":  3,
					},
				},
				"analyzer": map[string]interface{}{
					"en_autocomplete": map[string]interface{}{
						"type":        "custom",
						"tokenizer":   "autocomplete_tokenizer",
						"char_filter": []string{"html_strip_cf"},
						"filter": []string{
							"lowercase",
							"english_possessive_stemmer",
							"english_stop",
							"english_stemmer",
						},
					},
					"en_autocomplete_search": map[string]interface{}{
						"type":        "custom",
						"tokenizer":   "standard",
						"char_filter": []string{"html_strip_cf"},
						"filter": []string{
							"lowercase",
							"english_possessive_stemmer",
							"english_stop",
							"english_stemmer",
							"length_3_plus",
						},
					},
					"en_content": map[string]interface{}{
						"type":        "custom",
						"tokenizer":   "standard",
						"char_filter": []string{"html_strip_cf"},
						"filter": []string{
							"lowercase",
							"english_possessive_stemmer",
							"english_stop",
							"english_stemmer",
						},
					},
					"ar_autocomplete": map[string]interface{}{
						"type":        "custom",
						"tokenizer":   "autocomplete_tokenizer",
						"char_filter": []string{"html_strip_cf"},
						"filter": []string{
							"arabic_normalization",
							"arabic_stop",
							"arabic_stemmer",
						},
					},
					"ar_autocomplete_search": map[string]interface{}{
						"type":        "custom",
						"tokenizer":   "standard",
						"char_filter": []string{"html_strip_cf"},
						"filter": []string{
							"arabic_normalization",
							"arabic_stop",
							"arabic_stemmer",
						},
					},
					"ar_content": map[string]interface{}{
						"type":        "custom",
						"tokenizer":   "standard",
						"char_filter": []string{"html_strip_cf"},
						"filter": []string{
							"arabic_normalization",
							"arabic_stop",
							"arabic_stemmer",
						},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"_meta": map[string]interface{}{
				"schema_version":   s.Version,
				"vector_dimension": s.Dimension,
			},
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "keyword"},
				"source_uuid": map[string]interface{}{"type": "keyword"},
				"collection":  map[string]interface{}{"type": "keyword"},
				"title": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"en": map[string]interface{}{
							"type":            "text",
							"analyzer":        "en_autocomplete",
							"search_analyzer": "en_autocomplete_search",
						},
						"ar": map[string]interface{}{
							"type":            "text",
							"analyzer":        "ar_autocomplete",
							"search_analyzer": "ar_autocomplete_search",
						},
					},
					"dynamic": false,
				},
				"abstract": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"en": map[string]interface{}{"type": "text", "analyzer": "en_content"},
						"ar": map[string]interface{}{"type": "text", "analyzer": "ar_content"},
					},
					"dynamic": false,
				},
				"author": map[string]interface{}{
					"type":            "text",
					"analyzer":        "en_autocomplete",
					"search_analyzer": "en_autocomplete_search",
				},
				"abstract_vector": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"en": denseVector(),
						"ar": denseVector(),
					},
					"dynamic": false,
				},
				"model_version": map[string]interface{}{"type": "keyword"},
				"geo_references": map[string]interface{}{
					"type": "nested",
					"properties": map[string]interface{}{
						"place_name": map[string]interface{}{"type": "text", "analyzer": "en_content"},
						"coordinates": map[string]interface{}{
							"type":             "geo_point",
							"ignore_malformed": true,
						},
						"confidence": map[string]interface{}{"type": "float"},
					},
				},
				"primary_location": map[string]interface{}{
					"type":             "geo_point",
					"ignore_malformed": true,
				},
				"temporal_mentions": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"raw_text":         map[string]interface{}{"type": "keyword", "index": false},
						"normalized_value": map[string]interface{}{"type": "keyword"},
						"confidence":       map[string]interface{}{"type": "float"},
					},
				},
				"temporal_dates": map[string]interface{}{
					"type":   "date",
					"format": "yyyy-MM-dd||yyyy",
				},
				"has_files":        map[string]interface{}{"type": "boolean"},
				"publication_date": map[string]interface{}{"type": "date"},
				"raw_metadata": map[string]interface{}{
					"type":    "object",
					"enabled": false,
				},
			},
		},
	}
}
