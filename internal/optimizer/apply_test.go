package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyEdits(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		edits []ScoredEdit
		want  string
	}{
		{
			name: "single removal at start",
			text: "I would really appreciate it if you could please help me with this task.",
			edits: []ScoredEdit{
				{CandidateEdit: CandidateEdit{Start: 0, End: 49, Replacement: ""}},
			},
			want: "Help me with this task.",
		},
		{
			name: "replacement mid sentence",
			text: "The distance is 10 kilometers.",
			edits: []ScoredEdit{
				{CandidateEdit: CandidateEdit{Start: 16, End: 29, Replacement: "10km"}},
			},
			want: "The distance is 10km.",
		},
		{
			name: "edits applied by ascending start regardless of input order",
			text: "aaa bbb ccc",
			edits: []ScoredEdit{
				{CandidateEdit: CandidateEdit{Start: 8, End: 11, Replacement: "C"}},
				{CandidateEdit: CandidateEdit{Start: 0, End: 3, Replacement: "A"}},
			},
			want: "A bbb C",
		},
		{
			name: "out of range edit skipped",
			text: "short",
			edits: []ScoredEdit{
				{CandidateEdit: CandidateEdit{Start: 0, End: 99, Replacement: "x"}},
			},
			want: "Short",
		},
		{
			name:  "no edits still normalizes",
			text:  "hello   world .",
			edits: nil,
			want:  "Hello world.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyEdits(tt.text, tt.edits))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse newlines", "a\n\n\n\nb", "A\n\nb"},
		{"collapse spaces", "a    b", "A b"},
		{"space before punctuation", "done , right ?", "Done, right?"},
		{"capitalize after terminator", "first. second! third? fourth", "First. Second! Third? Fourth"},
		{"capitalize past non-letter openers", "stop. (see below) then 4 more. ok", "Stop. (See below) then 4 more. Ok"},
		{"trim edges", "  padded  ", "Padded"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestAppendDirective(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		lang   Language
		format DirectiveFormat
		want   string
	}{
		{"bracketed", "Help me.", LanguageEnglish, DirectiveBracketed, "Help me.\n\n[output_language: english]"},
		{"instructive", "Help me.", LanguageEnglish, DirectiveInstructive, "Help me.\n\nRespond in English."},
		{"xml", "Help me.", LanguageMandarin, DirectiveXML, "Help me.\n\n<output_language>mandarin</output_language>"},
		{"natural", "Help me.", Language("spanish"), DirectiveNatural, "Help me.\n\nPlease respond to me in Spanish."},
		{"empty text yields directive alone", "", LanguageEnglish, DirectiveBracketed, "[output_language: english]"},
		{"unknown format falls back to bracketed", "Hi.", LanguageEnglish, DirectiveFormat("bogus"), "Hi.\n\n[output_language: english]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AppendDirective(tt.text, tt.lang, tt.format))
		})
	}
}
