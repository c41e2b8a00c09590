// Package model defines the document entities shared by the pipeline,
// the indexing client and the retrieval service.
package model

import "strings"

// LangEN and LangAR are the two languages carried by localized fields.
const (
	LangEN = "en"
	LangAR = "ar"
)

// LocalizedText holds the English and Arabic variants of a text field.
// The empty string is the canonical "absent" value; fields are never null
// so their presence stays stable for the index schema.
type LocalizedText struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

// Get returns the text for the given language.
func (t LocalizedText) Get(lang string) string {
	if lang == LangAR {
		return t.AR
	}
	return t.EN
}

// IsEmpty reports whether neither language is populated.
func (t LocalizedText) IsEmpty() bool {
	return t.EN == "" && t.AR == ""
}

// Trimmed returns a copy with surrounding whitespace removed from both languages.
func (t LocalizedText) Trimmed() LocalizedText {
	return LocalizedText{
		EN: strings.TrimSpace(t.EN),
		AR: strings.TrimSpace(t.AR),
	}
}

// Concat joins the populated languages of several localized texts into one
// blob, used as extractor input.
func Concat(texts ...LocalizedText) string {
	var parts []string
	for _, t := range texts {
		if t.EN != "" {
			parts = append(parts, t.EN)
		}
		if t.AR != "" {
			parts = append(parts, t.AR)
		}
	}
	return strings.Join(parts, " ")
}

// LocalizedVector holds per-language embedding vectors. A nil slice means the
// vector is absent for that language; it is omitted from the indexed document
// rather than stored as a zero vector.
type LocalizedVector struct {
	EN []float32 `json:"en,omitempty"`
	AR []float32 `json:"ar,omitempty"`
}

// IsEmpty reports whether no language has a vector.
func (v LocalizedVector) IsEmpty() bool {
	return len(v.EN) == 0 && len(v.AR) == 0
}

// Dimension returns the dimension shared by all populated vectors, 0 when none
// is populated, or -1 when the populated languages disagree.
func (v LocalizedVector) Dimension() int {
	switch {
	case len(v.EN) == 0 && len(v.AR) == 0:
		return 0
	case len(v.EN) == 0:
		return len(v.AR)
	case len(v.AR) == 0:
		return len(v.EN)
	case len(v.EN) == len(v.AR):
		return len(v.EN)
	default:
		return -1
	}
}
