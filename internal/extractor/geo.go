package extractor

import (
	"context"

	"najah-search-go/internal/model"
	"najah-search-go/pkg/log"
)

// GeoExtractor turns free text into geo references in two stages: candidate
// recognition, then per-candidate coordinate resolution. A resolver failure
// degrades that single candidate to absent coordinates; the rest of the
// extraction is unaffected.
type GeoExtractor struct {
	locations LocationExtractor
	resolver  CoordinateResolver
}

// NewGeoExtractor creates a GeoExtractor over the given collaborators.
func NewGeoExtractor(locations LocationExtractor, resolver CoordinateResolver) *GeoExtractor {
	return &GeoExtractor{locations: locations, resolver: resolver}
}

// Extract returns one GeoReference per distinct candidate place name, in
// order of first appearance.
func (g *GeoExtractor) Extract(ctx context.Context, text string) []model.GeoReference {
	candidates := g.locations.Extract(text)
	if len(candidates) == 0 {
		return nil
	}

	refs := make([]model.GeoReference, 0, len(candidates))
	for _, cand := range candidates {
		ref := model.GeoReference{PlaceName: cand.Name, Confidence: cand.Confidence}

		coords, resolverConf, err := g.resolver.Resolve(ctx, cand.Name)
		switch {
		case err != nil:
			// Kept without coordinates; the reference still has audit value.
			log.Warnf("[GeoExtractor] coordinate resolution failed for %q: %v", cand.Name, err)
		case coords != nil && coords.Valid():
			ref.Coordinates = coords
			if resolverConf > ref.Confidence {
				ref.Confidence = resolverConf
			}
		}

		refs = append(refs, ref)
	}
	return refs
}
