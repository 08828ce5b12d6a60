package concept

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hospitalForms() []SurfaceForm {
	return []SurfaceForm{
		{ConceptID: "Q16917", TokenizerID: "cl100k_base", Language: "en", Text: "hospital", TokenCount: 1},
		{ConceptID: "Q16917", TokenizerID: "cl100k_base", Language: "zh", Text: "医院", TokenCount: 4},
	}
}

func TestSelect_MinTokens(t *testing.T) {
	got := Select(hospitalForms(), SelectionPolicy{Mode: SelectMinTokens})
	require.NotNil(t, got)
	assert.Equal(t, "hospital", got.Text)
	assert.Equal(t, "en", got.Language)
}

func TestSelect_MinTokens_TieKeepsEarliest(t *testing.T) {
	forms := []SurfaceForm{
		{Language: "en", Text: "car", TokenCount: 1},
		{Language: "fr", Text: "auto", TokenCount: 1},
	}
	got := Select(forms, SelectionPolicy{Mode: SelectMinTokens})
	require.NotNil(t, got)
	assert.Equal(t, "car", got.Text)
}

func TestSelect_SameLanguage(t *testing.T) {
	got := Select(hospitalForms(), SelectionPolicy{Mode: SelectSameLanguage, Language: "zh"})
	require.NotNil(t, got)
	assert.Equal(t, "医院", got.Text)

	none := Select(hospitalForms(), SelectionPolicy{Mode: SelectSameLanguage, Language: "de"})
	assert.Nil(t, none)
}

func TestSelect_AllowedLanguages(t *testing.T) {
	got := Select(hospitalForms(), SelectionPolicy{
		Mode:      SelectAllowedLanguages,
		Languages: []string{"zh", "de"},
	})
	require.NotNil(t, got)
	assert.Equal(t, "医院", got.Text)

	none := Select(hospitalForms(), SelectionPolicy{
		Mode:      SelectAllowedLanguages,
		Languages: []string{"de"},
	})
	assert.Nil(t, none)
}

func TestSelect_PreferOriginalBreaksTies(t *testing.T) {
	forms := []SurfaceForm{
		{Language: "en", Text: "auto", TokenCount: 1},
		{Language: "fr", Text: "auto", TokenCount: 1},
		{Language: "zh", Text: "汽车", TokenCount: 2},
	}

	got := Select(forms, SelectionPolicy{Mode: SelectPreferOriginal, Language: "fr"})
	require.NotNil(t, got)
	assert.Equal(t, "fr", got.Language)

	// Cheaper forms still beat the original language outright.
	got = Select(forms, SelectionPolicy{Mode: SelectPreferOriginal, Language: "zh"})
	require.NotNil(t, got)
	assert.Equal(t, "en", got.Language)
}

func TestSelect_Empty(t *testing.T) {
	assert.Nil(t, Select(nil, SelectionPolicy{Mode: SelectMinTokens}))
}

func TestCalculateSavings(t *testing.T) {
	en := &SurfaceForm{Language: "en", Text: "hospital", TokenCount: 1}

	tests := []struct {
		name           string
		originalText   string
		originalTokens int
		form           *SurfaceForm
		wantSavings    int
		wantOK         bool
	}{
		{"mandarin rendering to english", "医院", 4, en, 3, true},
		{"identical text is a no-op", "hospital", 1, en, 0, false},
		{"no savings", "ward", 1, en, 0, false},
		{"negative savings", "er", 0, en, 0, false},
		{"nil form", "医院", 4, nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CalculateSavings(tt.originalText, tt.originalTokens, tt.form)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSavings, got)
		})
	}
}
