package model

// NormalizedUnresolved marks a temporal mention whose raw text could not be
// normalized to a date, year or range. The mention is still emitted so callers
// can filter instead of losing it.
const NormalizedUnresolved = "unresolved"

// TemporalMention is a date or period mention extracted from document text.
// NormalizedValue is an ISO-8601 date (2006-01-02), a plain year, a
// "start/end" year range, or NormalizedUnresolved.
type TemporalMention struct {
	RawText         string  `json:"raw_text"`
	NormalizedValue string  `json:"normalized_value"`
	Confidence      float64 `json:"confidence"`
}

// Resolved reports whether the mention normalized to a concrete value.
func (m TemporalMention) Resolved() bool {
	return m.NormalizedValue != "" && m.NormalizedValue != NormalizedUnresolved
}
