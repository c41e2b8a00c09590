package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"najah-search-go/internal/model"
	"najah-search-go/pkg/log"
)

// temporalPattern couples a recognizer regexp with its normalizer and the
// confidence assigned to its mentions. Patterns run in priority order; a text
// span consumed by an earlier pattern is skipped by later ones, so the year
// inside a range or an ISO date is not emitted twice.
type temporalPattern struct {
	re         *regexp.Regexp
	confidence float64
	normalize  func(raw string) string
}

var isoDateRe = regexp.MustCompile(`\b(19|20)\d{2}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])\b`)

var yearRangeRe = regexp.MustCompile(`\b((?:19|20)\d{2})\s*(?:[-–—]|to|until|till)\s*((?:19|20)\d{2})\b`)

var monthYearRe = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+((?:19|20)\d{2})\b`)

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// periodRe matches relative and seasonal phrases that carry temporal meaning
// but no resolvable date.
var periodRe = regexp.MustCompile(`(?i)\b(recent (?:years|decades)|(?:last|past) (?:year|decade|century|few years)|early (?:19|20)\d{2}s|the (?:19|20)\d{2}s|winter|spring|summer|autumn|fall semester)\b`)

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// RuleTemporalExtractor is a deterministic recognizer over the mention classes
// the upstream linguistic model emits: dates, years, ranges and period labels.
type RuleTemporalExtractor struct {
	patterns []temporalPattern
}

// NewRuleTemporalExtractor builds the extractor with its pattern set.
func NewRuleTemporalExtractor() *RuleTemporalExtractor {
	return &RuleTemporalExtractor{
		patterns: []temporalPattern{
			{re: isoDateRe, confidence: 0.95, normalize: func(raw string) string { return raw }},
			{re: yearRangeRe, confidence: 0.85, normalize: normalizeYearRange},
			{re: monthYearRe, confidence: 0.9, normalize: normalizeMonthYear},
			{re: yearRe, confidence: 0.8, normalize: func(raw string) string { return raw }},
			{re: periodRe, confidence: 0.4, normalize: func(string) string { return model.NormalizedUnresolved }},
		},
	}
}

type spannedMention struct {
	start   int
	mention model.TemporalMention
}

// Extract returns the temporal mentions of text ordered by first appearance.
// A recognizer fault degrades to an empty result with a logged diagnostic.
func (e *RuleTemporalExtractor) Extract(text string) (mentions []model.TemporalMention) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[TemporalExtractor] recognizer fault, degrading to empty result: %v", r)
			mentions = nil
		}
	}()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	var spans []spannedMention
	consumed := make([][2]int, 0, 8)

	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if overlapsAny(consumed, loc[0], loc[1]) {
				continue
			}
			raw := text[loc[0]:loc[1]]
			spans = append(spans, spannedMention{
				start: loc[0],
				mention: model.TemporalMention{
					RawText:         raw,
					NormalizedValue: p.normalize(raw),
					Confidence:      p.confidence,
				},
			})
			consumed = append(consumed, [2]int{loc[0], loc[1]})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	// Collapse duplicate raw texts, keeping the highest confidence seen.
	seen := make(map[string]int)
	for _, s := range spans {
		key := strings.ToLower(s.mention.RawText)
		if idx, ok := seen[key]; ok {
			if s.mention.Confidence > mentions[idx].Confidence {
				mentions[idx].Confidence = s.mention.Confidence
			}
			continue
		}
		seen[key] = len(mentions)
		mentions = append(mentions, s.mention)
	}

	return mentions
}

func overlapsAny(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}

// normalizeYearRange emits an ISO-8601 interval, or unresolved when the range
// is inverted.
func normalizeYearRange(raw string) string {
	m := yearRangeRe.FindStringSubmatch(raw)
	if m == nil {
		return model.NormalizedUnresolved
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start > end {
		return model.NormalizedUnresolved
	}
	return fmt.Sprintf("%d/%d", start, end)
}

func normalizeMonthYear(raw string) string {
	m := monthYearRe.FindStringSubmatch(raw)
	if m == nil {
		return model.NormalizedUnresolved
	}
	month := monthNumbers[strings.ToLower(m[1])]
	return fmt.Sprintf("%s-%s-01", m[2], month)
}

// ExpandYearRanges expands "start/end" range values into individual year
// tokens for keyword matching, preserving order and uniqueness. Ranges longer
// than 50 years are kept verbatim.
func ExpandYearRanges(values []string) []string {
	var out []string
	seen := make(map[string]struct{})
	appendUnique := func(v string) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	for _, v := range values {
		parts := strings.SplitN(v, "/", 2)
		if len(parts) == 2 {
			start, err1 := strconv.Atoi(parts[0])
			end, err2 := strconv.Atoi(parts[1])
			if err1 == nil && err2 == nil && start <= end && end-start <= 50 {
				for y := start; y <= end; y++ {
					appendUnique(strconv.Itoa(y))
				}
				continue
			}
		}
		appendUnique(v)
	}
	return out
}
