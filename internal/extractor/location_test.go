package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationExtract_CapitalizedPhrases(t *testing.T) {
	e := NewHeuristicLocationExtractor()

	candidates := e.Extract("The water samples were taken near Lake Tiberias during the dry season.")
	require.Len(t, candidates, 1)
	assert.Equal(t, "Lake Tiberias", candidates[0].Name)
	assert.InDelta(t, anchoredLocationConfidence, candidates[0].Confidence, 1e-9)
}

func TestLocationExtract_PrepositionRaisesConfidence(t *testing.T) {
	e := NewHeuristicLocationExtractor()

	candidates := e.Extract("Jericho appears throughout the records. The farmers in Jericho grow dates.")
	require.Len(t, candidates, 1, "same place must be deduplicated")
	assert.Equal(t, "Jericho", candidates[0].Name)
	assert.InDelta(t, anchoredLocationConfidence, candidates[0].Confidence, 1e-9,
		"anchored occurrence must win over the unanchored one")
}

func TestLocationExtract_GuardsBlockNonPlaces(t *testing.T) {
	e := NewHeuristicLocationExtractor()

	tests := []struct {
		name string
		text string
	}{
		{name: "study vocabulary", text: "The Management System was evaluated with a Questionnaire Analysis."},
		{name: "short acronym", text: "The scores were computed in SPSS for the cohort."},
		{name: "sentence-position stopwords", text: "However, results varied. Moreover, they declined."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, e.Extract(tt.text))
		})
	}
}

func TestLocationExtract_TrimsStopwordLeader(t *testing.T) {
	e := NewHeuristicLocationExtractor()

	candidates := e.Extract("salinity rose across The Dead Sea over the decade")
	require.Len(t, candidates, 1)
	assert.Equal(t, "Dead Sea", candidates[0].Name)
}

func TestLocationExtract_ConnectivePhrases(t *testing.T) {
	e := NewHeuristicLocationExtractor()

	candidates := e.Extract("coral cover declined in Gulf of Aqaba between surveys")
	require.Len(t, candidates, 1)
	assert.Equal(t, "Gulf of Aqaba", candidates[0].Name)
}

func TestLocationExtract_ArabicLocative(t *testing.T) {
	e := NewHeuristicLocationExtractor()

	candidates := e.Extract("أجريت الدراسة الميدانية في نابلس.")
	require.Len(t, candidates, 1)
	assert.Equal(t, "نابلس", candidates[0].Name)
	assert.InDelta(t, anchoredLocationConfidence, candidates[0].Confidence, 1e-9)
}

func TestLocationExtract_EmptyText(t *testing.T) {
	e := NewHeuristicLocationExtractor()
	assert.Empty(t, e.Extract(""))
	assert.Empty(t, e.Extract("   "))
}
