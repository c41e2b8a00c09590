// Package extractor derives structured temporal and geographic facts from
// unstructured article text. Extractors are total: any input, including empty
// or non-linguistic text, yields a (possibly empty) result, never a panic or
// an error that aborts document assembly.
package extractor

import (
	"context"

	"najah-search-go/internal/model"
)

// TemporalExtractor produces normalized date/period mentions from free text,
// ordered by first appearance.
type TemporalExtractor interface {
	Extract(text string) []model.TemporalMention
}

// PlaceCandidate is a place-name mention found by named-entity recognition,
// before coordinate resolution.
type PlaceCandidate struct {
	Name       string
	Confidence float64
}

// LocationExtractor produces candidate place names from free text, ordered by
// first appearance and deduplicated on the normalized name.
type LocationExtractor interface {
	Extract(text string) []PlaceCandidate
}

// CoordinateResolver converts a place name into coordinates. It returns
// (nil, 0, nil) when the place is unknown; errors are reserved for transport
// failures and degrade the single candidate, not the extraction.
type CoordinateResolver interface {
	Resolve(ctx context.Context, placeName string) (*model.GeoCoordinates, float64, error)
}
