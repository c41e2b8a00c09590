package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentID_Stable(t *testing.T) {
	first := NewDocumentID("0b21c1f3")
	second := NewDocumentID("0b21c1f3")
	other := NewDocumentID("0b21c1f4")

	assert.Equal(t, first, second, "same source must always derive the same id")
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 36)
}

func TestRawRecord_UnmarshalJSON(t *testing.T) {
	line := `{
		"source_uuid": "abc-123",
		"collection": "Engineering",
		"title": {"en": ["Bridge fatigue"], "ar": ["إجهاد الجسور"]},
		"abstract": {"en": ["Long-span behavior."]},
		"author": ["A. Saleh", "B. Khalil"],
		"hasFiles": true,
		"publicationDate": "2018",
		"degree": "MSc",
		"supervisor": "Dr. N. Qasem"
	}`

	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))

	assert.Equal(t, "abc-123", rec.SourceUUID)
	assert.Equal(t, "Engineering", rec.Collection)
	assert.Equal(t, "Bridge fatigue", FieldText(rec.Title, LangEN))
	assert.Equal(t, "إجهاد الجسور", FieldText(rec.Title, LangAR))
	assert.Equal(t, "Long-span behavior.", FieldText(rec.Abstract, LangEN))
	assert.Equal(t, []string{"A. Saleh", "B. Khalil"}, rec.Author)
	assert.True(t, rec.HasFiles)
	assert.Equal(t, "2018", rec.PublicationDate)

	// Unmodeled keys ride along untouched.
	assert.Equal(t, "MSc", rec.Metadata["degree"])
	assert.Equal(t, "Dr. N. Qasem", rec.Metadata["supervisor"])
	assert.NotContains(t, rec.Metadata, "source_uuid")
}

func TestRawRecord_LegacyShapes(t *testing.T) {
	line := `{
		"bitstream_uuid": "legacy-9",
		"title": {"en": "Flat title shape"},
		"author": "Single Author",
		"publicationDate": 2007
	}`

	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))

	assert.Equal(t, "legacy-9", rec.SourceUUID, "bitstream_uuid is the fallback identity")
	assert.Equal(t, "Flat title shape", FieldText(rec.Title, LangEN))
	assert.Equal(t, []string{"Single Author"}, rec.Author)
	assert.Equal(t, "2007", rec.PublicationDate)
}

func TestRawRecord_MissingFields(t *testing.T) {
	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(`{}`), &rec))

	assert.Empty(t, rec.SourceUUID)
	assert.Empty(t, FieldText(rec.Title, LangEN))
	assert.Empty(t, rec.Author)
	assert.Nil(t, rec.Metadata)
}

func TestLocalizedText(t *testing.T) {
	empty := LocalizedText{}
	assert.True(t, empty.IsEmpty())

	text := LocalizedText{EN: "  water  ", AR: "مياه"}
	assert.False(t, text.IsEmpty())
	assert.Equal(t, "water", text.Trimmed().EN)
	assert.Equal(t, "مياه", text.Get(LangAR))
	assert.Equal(t, "  water  ", text.Get(LangEN))
}

func TestConcat(t *testing.T) {
	out := Concat(
		LocalizedText{EN: "Title", AR: "عنوان"},
		LocalizedText{EN: "Abstract"},
		LocalizedText{},
	)
	assert.Equal(t, "Title عنوان Abstract", out)
}

func TestLocalizedVector_Dimension(t *testing.T) {
	assert.Equal(t, 0, LocalizedVector{}.Dimension())
	assert.Equal(t, 3, LocalizedVector{EN: make([]float32, 3)}.Dimension())
	assert.Equal(t, 3, LocalizedVector{AR: make([]float32, 3)}.Dimension())
	assert.Equal(t, 3, LocalizedVector{EN: make([]float32, 3), AR: make([]float32, 3)}.Dimension())
	assert.Equal(t, -1, LocalizedVector{EN: make([]float32, 3), AR: make([]float32, 5)}.Dimension())
}

func TestArticleDocument_FirstResolvedLocation(t *testing.T) {
	doc := &ArticleDocument{
		Locations: []GeoReference{
			{PlaceName: "Unresolved Town"},
			{PlaceName: "Nablus", Coordinates: &GeoCoordinates{Lat: 32.22, Lon: 35.26}},
			{PlaceName: "Jenin", Coordinates: &GeoCoordinates{Lat: 32.46, Lon: 35.3}},
		},
	}

	loc := doc.FirstResolvedLocation()
	require.NotNil(t, loc)
	assert.InDelta(t, 32.22, loc.Lat, 1e-9)

	assert.Nil(t, (&ArticleDocument{}).FirstResolvedLocation())
}

func TestArticleDocument_AbsentVectorOmitted(t *testing.T) {
	doc := &ArticleDocument{ID: "x", SourceUUID: "s", Title: LocalizedText{EN: "t"}}

	body, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "abstract_vector",
		"a missing vector must be absent, not a zero vector")
}

func TestGeoCoordinates_Valid(t *testing.T) {
	assert.True(t, GeoCoordinates{Lat: 31.9, Lon: 35.2}.Valid())
	assert.False(t, GeoCoordinates{Lat: 95, Lon: 0}.Valid())
	assert.False(t, GeoCoordinates{Lat: 0, Lon: -181}.Valid())
}

func TestTemporalMention_Resolved(t *testing.T) {
	assert.True(t, TemporalMention{NormalizedValue: "2019"}.Resolved())
	assert.False(t, TemporalMention{NormalizedValue: NormalizedUnresolved}.Resolved())
	assert.False(t, TemporalMention{}.Resolved())
}
