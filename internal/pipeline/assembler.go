// Package pipeline assembles raw harvested records into enriched, validated
// ArticleDocuments and drives their indexing.
package pipeline

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"najah-search-go/internal/extractor"
	"najah-search-go/internal/model"
	"najah-search-go/pkg/embedding"
	"najah-search-go/pkg/log"
)

// Assembler merges a raw record with extractor outputs and embedding vectors
// into a canonical ArticleDocument. The merge order is deterministic: raw
// fields, localized text, embeddings, then temporal and geographic extraction.
type Assembler struct {
	embedder embedding.Client
	temporal extractor.TemporalExtractor
	geo      *extractor.GeoExtractor
}

// NewAssembler creates an Assembler over the given collaborators.
func NewAssembler(embedder embedding.Client, temporal extractor.TemporalExtractor, geo *extractor.GeoExtractor) *Assembler {
	return &Assembler{embedder: embedder, temporal: temporal, geo: geo}
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	controlRe    = regexp.MustCompile("[\x00-\x1f\x7f]")
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// sanitizeText strips markup and control characters from scraped text and
// collapses whitespace. Stopwords and natural grammar stay intact for the
// embedding model.
func sanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	text := htmlTagRe.ReplaceAllString(raw, " ")
	text = html.UnescapeString(text)
	text = controlRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var yearOnlyRe = regexp.MustCompile(`^(19|20)\d{2}$`)
var isoFullDateRe = regexp.MustCompile(`^(19|20)\d{2}-\d{2}-\d{2}$`)

// normalizePublicationDate accepts a bare year or a full ISO date; anything
// else is dropped rather than guessed.
func normalizePublicationDate(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return ""
	case yearOnlyRe.MatchString(value):
		return value + "-01-01"
	case isoFullDateRe.MatchString(value):
		return value
	default:
		log.Warnf("[Assembler] unparseable publication date %q dropped", value)
		return ""
	}
}

// Assemble builds and validates the document for one raw record. Extraction
// problems degrade to partial enrichment; violated invariants surface as a
// *model.ValidationError and nothing is written anywhere.
func (a *Assembler) Assemble(ctx context.Context, raw model.RawRecord) (*model.ArticleDocument, error) {
	if strings.TrimSpace(raw.SourceUUID) == "" {
		return nil, &model.ValidationError{Invariant: "source_uuid_present", Field: "source_uuid"}
	}

	title := model.LocalizedText{
		EN: sanitizeText(model.FieldText(raw.Title, model.LangEN)),
		AR: sanitizeText(model.FieldText(raw.Title, model.LangAR)),
	}.Trimmed()
	abstract := model.LocalizedText{
		EN: sanitizeText(model.FieldText(raw.Abstract, model.LangEN)),
		AR: sanitizeText(model.FieldText(raw.Abstract, model.LangAR)),
	}.Trimmed()

	if title.IsEmpty() {
		return nil, &model.ValidationError{
			SourceUUID: raw.SourceUUID,
			Invariant:  "title_populated",
			Field:      "title",
		}
	}

	doc := &model.ArticleDocument{
		ID:              model.NewDocumentID(raw.SourceUUID),
		SourceUUID:      raw.SourceUUID,
		Collection:      strings.TrimSpace(raw.Collection),
		Title:           title,
		Abstract:        abstract,
		Author:          strings.Join(raw.Author, "; "),
		HasFiles:        raw.HasFiles,
		PublicationDate: normalizePublicationDate(raw.PublicationDate),
		RawMetadata:     raw.Metadata,
		ModelVersion:    a.embedder.ModelVersion(),
	}

	vectors, err := a.embedLocalized(ctx, raw.SourceUUID, title, abstract)
	if err != nil {
		return nil, err
	}
	doc.Embeddings = vectors

	// Temporal and geographic extraction share no state; run them side by
	// side and join before validation.
	extractionText := model.Concat(title, abstract)
	var wg sync.WaitGroup
	var mentions []model.TemporalMention
	var locations []model.GeoReference

	wg.Add(2)
	go func() {
		defer wg.Done()
		mentions = a.temporal.Extract(extractionText)
	}()
	go func() {
		defer wg.Done()
		locations = a.geo.Extract(ctx, extractionText)
	}()
	wg.Wait()

	doc.TemporalMentions = mentions
	doc.TemporalDates = temporalDates(mentions)
	doc.Locations = locations
	doc.PrimaryLocation = doc.FirstResolvedLocation()

	return doc, nil
}

// embedLocalized computes one embedding per populated language, preferring
// the abstract and falling back to the title. An embedding failure degrades
// that language's vector to absent; a wrong dimension is a hard validation
// failure, never a truncation.
func (a *Assembler) embedLocalized(ctx context.Context, sourceUUID string, title, abstract model.LocalizedText) (*model.LocalizedVector, error) {
	vectors := &model.LocalizedVector{}

	for _, lang := range []string{model.LangEN, model.LangAR} {
		text := abstract.Get(lang)
		if text == "" {
			text = title.Get(lang)
		}
		if text == "" {
			continue
		}

		vec, err := a.embedder.CreateEmbedding(ctx, text)
		if err != nil {
			log.Warnf("[Assembler] embedding failed for record %s lang %s, leaving vector absent: %v", sourceUUID, lang, err)
			continue
		}
		if len(vec) != a.embedder.Dimension() {
			return nil, &model.ValidationError{
				SourceUUID: sourceUUID,
				Invariant:  "embedding_dimension",
				Field:      fmt.Sprintf("abstract_vector.%s", lang),
			}
		}
		if lang == model.LangEN {
			vectors.EN = vec
		} else {
			vectors.AR = vec
		}
	}

	if vectors.IsEmpty() {
		return nil, nil
	}
	return vectors, nil
}

// temporalDates projects resolved mentions onto the date-typed index field:
// single years, full dates, and year ranges expanded into their years.
func temporalDates(mentions []model.TemporalMention) []string {
	var values []string
	for _, m := range mentions {
		if m.Resolved() {
			values = append(values, m.NormalizedValue)
		}
	}
	return extractor.ExpandYearRanges(values)
}
