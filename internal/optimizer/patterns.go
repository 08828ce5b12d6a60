package optimizer

import (
	"regexp"
	"strings"
)

// PatternEngine runs the compiled rule registry over a prompt and produces
// candidate edits. Candidates overlapping a protected region are discarded at
// generation time; overlap between surviving candidates is left to the
// conflict resolver.
type PatternEngine struct {
	reg *Registry
}

// NewPatternEngine wraps a registry. A nil registry falls back to the
// embedded defaults.
func NewPatternEngine(reg *Registry) *PatternEngine {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &PatternEngine{reg: reg}
}

// DetectAll scans text with every rule family and returns the unresolved
// candidate set. All offsets are byte offsets into text.
func (e *PatternEngine) DetectAll(text string, regions []ProtectedRegion) []CandidateEdit {
	var out []CandidateEdit
	out = append(out, e.detectRules(text, regions)...)
	out = append(out, e.detectSynonyms(text, regions)...)
	out = append(out, e.detectCrossLanguage(text, regions)...)
	return out
}

func (e *PatternEngine) detectRules(text string, regions []ProtectedRegion) []CandidateEdit {
	var out []CandidateEdit
	for i := range e.reg.rules {
		r := &e.reg.rules[i]
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if IsProtected(regions, start, end) {
				continue
			}
			match := text[start:end]
			repl := r.re.ReplaceAllString(match, r.Replacement)
			if repl == match {
				continue
			}
			out = append(out, CandidateEdit{
				Start:          start,
				End:            end,
				Original:       match,
				Replacement:    repl,
				Category:       r.Category,
				BaseConfidence: r.BaseConfidence,
				Reasoning:      r.Reasoning,
				RuleID:         r.ID,
			})
		}
	}
	return out
}

// detectSynonyms finds "<alternative> and/or <preferred>" constructions (in
// either order) and proposes collapsing them to the preferred term.
func (e *PatternEngine) detectSynonyms(text string, regions []ProtectedRegion) []CandidateEdit {
	var out []CandidateEdit
	for _, g := range e.reg.synonyms {
		for _, alt := range g.Alternatives {
			pat := `(?i)\b(?:` + regexp.QuoteMeta(alt) + `\s+(?:and|or)\s+` + regexp.QuoteMeta(g.Preferred) +
				`|` + regexp.QuoteMeta(g.Preferred) + `\s+(?:and|or)\s+` + regexp.QuoteMeta(alt) + `)\b`
			re, err := regexp.Compile(pat)
			if err != nil {
				continue
			}
			for _, loc := range re.FindAllStringIndex(text, -1) {
				start, end := loc[0], loc[1]
				if IsProtected(regions, start, end) {
					continue
				}
				out = append(out, CandidateEdit{
					Start:          start,
					End:            end,
					Original:       text[start:end],
					Replacement:    g.Preferred,
					Category:       CategorySynonym,
					BaseConfidence: g.BaseConfidence,
					Reasoning:      g.Reasoning,
				})
			}
		}
	}
	return out
}

// detectCrossLanguage proposes at most one substitution per entry: the first
// case-insensitive occurrence of the English term. Later occurrences are left
// alone so a reader of the optimized prompt still sees the original term in
// context.
func (e *PatternEngine) detectCrossLanguage(text string, regions []ProtectedRegion) []CandidateEdit {
	var out []CandidateEdit
	for _, sub := range e.reg.substitutions {
		pat := `(?i)\b` + regexp.QuoteMeta(sub.English) + `\b`
		re, err := regexp.Compile(pat)
		if err != nil {
			continue
		}
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		start, end := loc[0], loc[1]
		if IsProtected(regions, start, end) {
			continue
		}
		out = append(out, CandidateEdit{
			Start:          start,
			End:            end,
			Original:       text[start:end],
			Replacement:    sub.Replacement,
			Category:       CategoryCrossLanguage,
			BaseConfidence: sub.BaseConfidence,
			Reasoning:      sub.Reasoning,
		})
	}
	return out
}

// wordCount counts whitespace-separated words; used by the scorer to gauge
// how much surface text a synonym consolidation drops.
func wordCount(s string) int {
	return len(strings.Fields(s))
}
