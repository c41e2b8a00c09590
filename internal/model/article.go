package model

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// ArticleDocument is the unit of indexing: one enriched repository article.
// Populated fields map one-to-one onto the index schema; absent optional
// fields are omitted from the JSON body so the indexed document never grows
// reintroduced defaults.
type ArticleDocument struct {
	ID         string `json:"id"`
	SourceUUID string `json:"source_uuid"`
	Collection string `json:"collection,omitempty"`

	Title    LocalizedText `json:"title"`
	Abstract LocalizedText `json:"abstract"`
	Author   string        `json:"author,omitempty"`

	Embeddings   *LocalizedVector `json:"abstract_vector,omitempty"`
	ModelVersion string           `json:"model_version,omitempty"`

	Locations       []GeoReference  `json:"geo_references,omitempty"`
	PrimaryLocation *GeoCoordinates `json:"primary_location,omitempty"`

	TemporalMentions []TemporalMention `json:"temporal_mentions,omitempty"`
	// TemporalDates carries the resolved normalized values (years and ISO
	// dates) in a shape the date-typed index field accepts.
	TemporalDates []string `json:"temporal_dates,omitempty"`

	HasFiles        bool   `json:"has_files"`
	PublicationDate string `json:"publication_date,omitempty"`

	RawMetadata map[string]string `json:"raw_metadata,omitempty"`
}

// FirstResolvedLocation returns the first geo reference with usable
// coordinates, or nil when none resolved.
func (d *ArticleDocument) FirstResolvedLocation() *GeoCoordinates {
	for _, ref := range d.Locations {
		if ref.Resolved() {
			return ref.Coordinates
		}
	}
	return nil
}

// NewDocumentID derives the stable document ID from the source UUID. The
// derivation is content-addressed (SHA1 UUID v5), so re-indexing the same
// source record always replaces the same index entry.
func NewDocumentID(sourceUUID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("najah://article/"+sourceUUID)).String()
}

// RawRecord is a harvested repository record as scraped: bilingual field maps
// of uneven completeness plus a passthrough map for keys the pipeline does not
// model. It is validated at the assembler boundary, never trusted implicitly.
type RawRecord struct {
	SourceUUID      string
	Collection      string
	Title           map[string][]string
	Abstract        map[string][]string
	Author          []string
	HasFiles        bool
	PublicationDate string
	Metadata        map[string]string
}

// rawRecordKnownKeys are the keys lifted into typed fields; everything else
// lands in Metadata.
var rawRecordKnownKeys = map[string]struct{}{
	"source_uuid":     {},
	"bitstream_uuid":  {},
	"collection":      {},
	"title":           {},
	"abstract":        {},
	"author":          {},
	"hasFiles":        {},
	"publicationDate": {},
}

// UnmarshalJSON decodes a scraped record, tolerating missing keys and keeping
// unrecognized ones as raw passthrough strings.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = RawRecord{}

	// The harvester emits bitstream_uuid; newer exports use source_uuid.
	if raw, ok := fields["source_uuid"]; ok {
		_ = json.Unmarshal(raw, &r.SourceUUID)
	} else if raw, ok := fields["bitstream_uuid"]; ok {
		_ = json.Unmarshal(raw, &r.SourceUUID)
	}

	if raw, ok := fields["collection"]; ok {
		_ = json.Unmarshal(raw, &r.Collection)
	}
	if raw, ok := fields["title"]; ok {
		r.Title = decodeLocalizedLists(raw)
	}
	if raw, ok := fields["abstract"]; ok {
		r.Abstract = decodeLocalizedLists(raw)
	}
	if raw, ok := fields["author"]; ok {
		if err := json.Unmarshal(raw, &r.Author); err != nil {
			// Single-author records carry a bare string.
			var single string
			if json.Unmarshal(raw, &single) == nil && single != "" {
				r.Author = []string{single}
			}
		}
	}
	if raw, ok := fields["hasFiles"]; ok {
		_ = json.Unmarshal(raw, &r.HasFiles)
	}
	if raw, ok := fields["publicationDate"]; ok {
		r.PublicationDate = decodeFlexibleString(raw)
	}

	for key, raw := range fields {
		if _, known := rawRecordKnownKeys[key]; known {
			continue
		}
		if r.Metadata == nil {
			r.Metadata = make(map[string]string)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
		}
		r.Metadata[key] = s
	}

	return nil
}

// FieldText returns the first entry for lang from a localized field map.
func FieldText(field map[string][]string, lang string) string {
	values, ok := field[lang]
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0]
}

// decodeLocalizedLists accepts both {"en": ["..."]} and {"en": "..."} shapes.
func decodeLocalizedLists(raw json.RawMessage) map[string][]string {
	lists := make(map[string][]string)
	if err := json.Unmarshal(raw, &lists); err == nil {
		return lists
	}
	flat := make(map[string]string)
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil
	}
	for lang, value := range flat {
		if value != "" {
			lists[lang] = []string{value}
		}
	}
	return lists
}

// decodeFlexibleString accepts a JSON string or number and returns its text.
func decodeFlexibleString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
