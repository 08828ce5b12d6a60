package optimizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	reExcessNewlines = regexp.MustCompile(`\n{3,}`)
	reExcessSpaces   = regexp.MustCompile(`  +`)
	reSpaceBeforeEnd = regexp.MustCompile(`\s+([.,!?;:])`)
)

// ApplyEdits splices the given non-overlapping edits into text and runs the
// whitespace and capitalization cleanup pass. Edits may arrive in any order;
// they are applied by ascending start offset.
func ApplyEdits(text string, edits []ScoredEdit) string {
	if len(edits) == 0 {
		return Normalize(text)
	}
	ordered := make([]ScoredEdit, len(edits))
	copy(ordered, edits)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, e := range ordered {
		if e.Start < cursor || e.End > len(text) {
			continue
		}
		b.WriteString(text[cursor:e.Start])
		b.WriteString(e.Replacement)
		cursor = e.End
	}
	b.WriteString(text[cursor:])
	return Normalize(b.String())
}

// Normalize cleans up artifacts left behind by edit removal: excess blank
// lines, doubled spaces, stray space before sentence punctuation, and
// lowercase sentence openers where a removed prefix used to carry the
// capital.
func Normalize(text string) string {
	text = reExcessNewlines.ReplaceAllString(text, "\n\n")
	text = reExcessSpaces.ReplaceAllString(text, " ")
	text = reSpaceBeforeEnd.ReplaceAllString(text, "$1")
	text = capitalizeSentences(text)
	return strings.TrimSpace(text)
}

// capitalizeSentences upper-cases the first letter of the text and the first
// letter following each sentence terminator. Intervening non-letter runes
// (quotes, brackets, digits) are skipped, so ". (see" becomes ". (See".
func capitalizeSentences(text string) string {
	runes := []rune(text)
	capitalizeNext := true
	for i, r := range runes {
		if capitalizeNext && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			capitalizeNext = false
			continue
		}
		if r == '.' || r == '!' || r == '?' {
			capitalizeNext = true
		}
	}
	return string(runes)
}

// AppendDirective attaches the output-language directive after a blank line.
// The language name is lowercased inside structured formats and title-cased
// in prose formats.
func AppendDirective(text string, lang Language, format DirectiveFormat) string {
	name := strings.ToLower(string(lang))
	var directive string
	switch format {
	case DirectiveInstructive:
		directive = fmt.Sprintf("Respond in %s.", titleCase(name))
	case DirectiveXML:
		directive = fmt.Sprintf("<output_language>%s</output_language>", name)
	case DirectiveNatural:
		directive = fmt.Sprintf("Please respond to me in %s.", titleCase(name))
	default:
		directive = fmt.Sprintf("[output_language: %s]", name)
	}
	if text == "" {
		return directive
	}
	return text + "\n\n" + directive
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
