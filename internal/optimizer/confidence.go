package optimizer

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FrequencySource reports how many times a pattern (keyed by its matched
// text) has been observed across historical optimizations. Implemented by
// Corpus; a nil source means no frequency bonus.
type FrequencySource interface {
	Occurrences(pattern string) int
}

// Scorer turns candidate edits into scored edits using base confidence,
// surrounding-context penalties, historical frequency, and semantic risk.
type Scorer struct {
	freq FrequencySource
}

// NewScorer builds a scorer. freq may be nil.
func NewScorer(freq FrequencySource) *Scorer {
	return &Scorer{freq: freq}
}

const contextWindow = 50

var technicalTerms = []string{
	"function", "class", "algorithm", "code", "variable",
	"method", "api", "database", "server", "client",
}

var ambiguityMarkers = []string{
	"might", "could", "possibly", "perhaps",
	"seems", "appears", "unclear", "ambiguous",
}

// codeNearby reports a fenced-code marker or code-style indentation in the
// window.
func codeNearby(window string) bool {
	return strings.Contains(window, "```") || strings.Contains(window, "    ")
}

// Score computes the full confidence breakdown for one candidate.
func (s *Scorer) Score(text string, edit CandidateEdit) Confidence {
	penalty := s.contextPenalty(text, edit)
	bonus := s.frequencyBonus(edit.Original)
	risk := s.semanticRisk(text, edit)
	return NewConfidence(edit.BaseConfidence, penalty, bonus, risk)
}

func (s *Scorer) contextPenalty(text string, edit CandidateEdit) float64 {
	window := surroundingWindow(text, edit.Start, edit.End)
	lower := strings.ToLower(window)

	penalty := 0.0
	if countTerms(lower, technicalTerms) >= 2 {
		penalty += 0.05
	}
	if codeNearby(window) {
		penalty += 0.03
	}
	switch positionOf(text, edit.Start) {
	case positionBeginning:
		if edit.Category == CategoryBoilerplate {
			penalty -= 0.02
		}
	case positionMiddle:
		penalty += 0.05
	case positionEnd:
		penalty += 0.03
	}
	if containsAny(lower, ambiguityMarkers) {
		penalty += 0.10
	}
	return clamp(penalty, 0, 0.5)
}

func (s *Scorer) frequencyBonus(pattern string) float64 {
	if s.freq == nil {
		return 0
	}
	n := s.freq.Occurrences(pattern)
	if n <= 0 {
		return 0
	}
	return math.Log10(float64(n)) * 0.05
}

func (s *Scorer) semanticRisk(text string, edit CandidateEdit) float64 {
	risk := 0.0
	if edit.Replacement == "" {
		switch edit.Category {
		case CategoryBoilerplate:
			risk += 0.02
		case CategoryFiller:
			risk += 0.05
		default:
			risk += 0.15
		}
	}
	if utf8.RuneCountInString(edit.Original) < 5 {
		risk += 0.10
	}
	if edit.Category == CategoryCrossLanguage {
		risk += 0.08
	}
	if edit.Category == CategorySynonym {
		dropped := wordCount(edit.Original) - wordCount(edit.Replacement)
		if dropped > 1 {
			risk += 0.12
		}
	}
	window := strings.ToLower(surroundingWindow(text, edit.Start, edit.End))
	if countTerms(window, technicalTerms) >= 2 {
		risk += 0.05
	}
	return clamp(risk, 0, 0.5)
}

type textPosition int

const (
	positionBeginning textPosition = iota
	positionMiddle
	positionEnd
)

// positionOf places a byte offset relative to the nearest sentence
// terminators: right after the start of the text or a terminator is
// Beginning, right before the end of the text or a terminator is End,
// anything else is Middle.
func positionOf(text string, offset int) textPosition {
	before := text[:offset]
	after := text[offset:]

	trimmedBefore := strings.TrimRight(before, " \t\n\r")
	if strings.TrimLeft(before, " \t\n\r") == "" ||
		strings.HasSuffix(trimmedBefore, ".") ||
		strings.HasSuffix(trimmedBefore, "!") ||
		strings.HasSuffix(trimmedBefore, "?") {
		return positionBeginning
	}

	trimmedAfter := strings.TrimLeft(after, " \t\n\r")
	if trimmedAfter == "" ||
		strings.HasPrefix(trimmedAfter, ".") ||
		strings.HasPrefix(trimmedAfter, "!") ||
		strings.HasPrefix(trimmedAfter, "?") {
		return positionEnd
	}
	return positionMiddle
}

// surroundingWindow returns up to contextWindow bytes on each side of the
// span, snapped outward to rune boundaries.
func surroundingWindow(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

// countTerms counts how many distinct terms appear as whole words in lower.
func countTerms(lower string, terms []string) int {
	n := 0
	for _, t := range terms {
		if containsWord(lower, t) {
			n++
		}
	}
	return n
}

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if containsWord(lower, t) {
			return true
		}
	}
	return false
}

// containsWord reports whether term occurs in s delimited by non-letter
// runes on both sides.
func containsWord(s, term string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], term)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(term)
		before := rune(-1)
		if start > 0 {
			before, _ = utf8.DecodeLastRuneInString(s[:start])
		}
		after := rune(-1)
		if end < len(s) {
			after, _ = utf8.DecodeRuneInString(s[end:])
		}
		if !unicode.IsLetter(before) && !unicode.IsLetter(after) {
			return true
		}
		i = start + 1
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
