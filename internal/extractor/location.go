package extractor

import (
	"regexp"
	"strings"

	"najah-search-go/pkg/log"
)

// badLocationWords knocks out frequent study-domain terms that surface as
// capitalized phrases but are never places.
var badLocationWords = map[string]struct{}{
	"management": {}, "system": {}, "model": {}, "project": {},
	"strategy": {}, "analysis": {}, "spss": {}, "tam": {}, "tpb": {},
	"pma": {}, "csr": {}, "study": {}, "research": {}, "method": {},
	"results": {}, "questionnaire": {},
}

// candidateStopwords are capitalized sentence-position words and month names
// that must not start a place candidate.
var candidateStopwords = map[string]struct{}{
	"the": {}, "this": {}, "these": {}, "those": {}, "a": {}, "an": {},
	"however": {}, "moreover": {}, "furthermore": {}, "therefore": {},
	"in": {}, "on": {}, "at": {}, "it": {}, "we": {}, "our": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {},
	"june": {}, "july": {}, "august": {}, "september": {}, "october": {},
	"november": {}, "december": {},
}

// capitalizedPhraseRe matches runs of capitalized words, allowing the
// connectives common in place names ("Gulf of Aqaba", "Tell al-Far'a").
var capitalizedPhraseRe = regexp.MustCompile(`[A-Z][a-zA-Z'’\-]+(?:\s+(?:of\s+|al[\-\s])?[A-Z][a-zA-Z'’\-]+)*`)

// arabicLocativeRe matches up to two Arabic words following the locative
// preposition "في" (in); Arabic has no capitalization to anchor on.
var arabicLocativeRe = regexp.MustCompile(`في\s+([\p{Arabic}]+(?:\s[\p{Arabic}]+)?)`)

// prepositionAnchorRe marks candidates preceded by a locative preposition,
// which raises confidence.
var prepositionAnchorRe = regexp.MustCompile(`(?i)\b(in|at|near|from|across|around)\s*$`)

const (
	baseLocationConfidence     = 0.5
	anchoredLocationConfidence = 0.8
)

// HeuristicLocationExtractor finds candidate place names by surface-form
// heuristics: capitalized phrases in Latin text, locative-prefixed words in
// Arabic text, filtered through plausibility guards.
type HeuristicLocationExtractor struct{}

// NewHeuristicLocationExtractor returns a ready extractor.
func NewHeuristicLocationExtractor() *HeuristicLocationExtractor {
	return &HeuristicLocationExtractor{}
}

// Extract returns plausible place candidates ordered by first appearance,
// deduplicated on the lowercased name keeping the highest confidence.
func (e *HeuristicLocationExtractor) Extract(text string) (candidates []PlaceCandidate) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[LocationExtractor] recognizer fault, degrading to empty result: %v", r)
			candidates = nil
		}
	}()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	type spanned struct {
		start int
		cand  PlaceCandidate
	}
	var spans []spanned

	for _, loc := range capitalizedPhraseRe.FindAllStringIndex(text, -1) {
		name := trimCandidate(text[loc[0]:loc[1]])
		if !isProbableLocation(name) {
			continue
		}
		conf := baseLocationConfidence
		if prepositionAnchorRe.MatchString(text[:loc[0]]) {
			conf = anchoredLocationConfidence
		}
		spans = append(spans, spanned{start: loc[0], cand: PlaceCandidate{Name: name, Confidence: conf}})
	}

	for _, m := range arabicLocativeRe.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(text[m[2]:m[3]])
		if len([]rune(name)) < 3 {
			continue
		}
		spans = append(spans, spanned{start: m[2], cand: PlaceCandidate{Name: name, Confidence: anchoredLocationConfidence}})
	}

	seen := make(map[string]int)
	for _, s := range spans {
		key := strings.ToLower(s.cand.Name)
		if idx, ok := seen[key]; ok {
			if s.cand.Confidence > candidates[idx].Confidence {
				candidates[idx].Confidence = s.cand.Confidence
			}
			continue
		}
		seen[key] = len(candidates)
		candidates = append(candidates, s.cand)
	}

	return candidates
}

// trimCandidate strips stopword leaders ("The Dead Sea" -> "Dead Sea") and
// surrounding whitespace.
func trimCandidate(name string) string {
	name = strings.TrimSpace(name)
	words := strings.Fields(name)
	for len(words) > 0 {
		if _, stop := candidateStopwords[strings.ToLower(words[0])]; !stop {
			break
		}
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// isProbableLocation applies the plausibility guards: minimum length, short
// uppercase acronyms blocked, known non-place vocabulary blocked.
func isProbableLocation(name string) bool {
	if len(name) <= 2 {
		return false
	}
	if name == strings.ToUpper(name) && len(name) <= 6 {
		return false
	}
	lower := strings.ToLower(name)
	if _, stop := candidateStopwords[lower]; stop {
		return false
	}
	for _, word := range strings.Fields(lower) {
		if _, bad := badLocationWords[word]; bad {
			return false
		}
	}
	return true
}
