package optimizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokentrim/tokentrim/internal/tokenizer"
)

func testCounter(t *testing.T) TokenCounter {
	t.Helper()
	tok, err := tokenizer.NewRegistry().Get(tokenizer.Cl100kBase)
	require.NoError(t, err)
	return tok
}

func TestEngine_Optimize_BoilerplatePrefix(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)

	res, err := eng.Optimize(context.Background(), Request{
		Prompt: "I would really appreciate it if you could please help me with this task.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Help me with this task.\n\n[output_language: english]", res.OptimizedPrompt)
	assert.NotContains(t, strings.ToLower(res.OptimizedPrompt), "really appreciate")
	assert.True(t, strings.HasSuffix(res.OptimizedPrompt, "[output_language: english]"))
	assert.Greater(t, res.TokenSavings, 0)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, CategoryBoilerplate, res.Applied[0].Category)
	assert.NotEmpty(t, res.Applied[0].ID)
}

func TestEngine_Optimize_StructuralUnits(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)

	res, err := eng.Optimize(context.Background(), Request{
		Prompt: "The distance is 10 kilometers.",
	})
	require.NoError(t, err)

	assert.Equal(t, "The distance is 10km.\n\n[output_language: english]", res.OptimizedPrompt)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "10 kilometers", res.Applied[0].Original)
	assert.Equal(t, 3, res.Applied[0].TokenSavings)
}

func TestEngine_Optimize_ProtectedInlineCode(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)
	prompt := "Check the `hospital` variable in code."

	res, err := eng.Optimize(context.Background(), Request{Prompt: prompt})
	require.NoError(t, err)

	assert.Contains(t, res.OptimizedPrompt, "`hospital`")
	for _, e := range res.Applied {
		assert.NotContains(t, e.Original, "hospital")
	}
	// The cross-language "code" entry saves nothing under this counter, so the
	// prompt passes through untouched.
	assert.Equal(t, prompt+"\n\n[output_language: english]", res.OptimizedPrompt)
	assert.GreaterOrEqual(t, res.ProtectedRegions, 1)
}

func TestEngine_Optimize_EmptyPrompt(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)

	res, err := eng.Optimize(context.Background(), Request{Prompt: ""})
	require.NoError(t, err)

	assert.Equal(t, "[output_language: english]", res.OptimizedPrompt)
	assert.Zero(t, res.OriginalTokens)
	assert.Empty(t, res.Applied)
	assert.Zero(t, res.SavingsPercentage)
}

func TestEngine_Optimize_DirectiveFormats(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)

	tests := []struct {
		format DirectiveFormat
		suffix string
	}{
		{DirectiveBracketed, "[output_language: english]"},
		{DirectiveInstructive, "Respond in English."},
		{DirectiveXML, "<output_language>english</output_language>"},
		{DirectiveNatural, "Please respond to me in English."},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			res, err := eng.Optimize(context.Background(), Request{
				Prompt:          "Hi.",
				DirectiveFormat: tt.format,
			})
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(res.OptimizedPrompt, tt.suffix),
				"got %q", res.OptimizedPrompt)
		})
	}
}

func TestEngine_Optimize_AggressiveModeLowersThreshold(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)
	prompt := "We should analyze or inspect the data carefully."

	conservative, err := eng.Optimize(context.Background(), Request{Prompt: prompt})
	require.NoError(t, err)
	assert.Empty(t, conservative.Applied)
	assert.NotEmpty(t, conservative.RequiresReview)
	for _, e := range conservative.RequiresReview {
		assert.True(t, e.RequiresReview)
	}

	aggressive, err := eng.Optimize(context.Background(), Request{
		Prompt:         prompt,
		AggressiveMode: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, aggressive.Applied)
	assert.Contains(t, aggressive.OptimizedPrompt, "analyze the data")
	assert.NotContains(t, aggressive.OptimizedPrompt, "inspect")
}

func TestEngine_Optimize_NoOverlappingEdits(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)

	res, err := eng.Optimize(context.Background(), Request{
		Prompt: "I would really appreciate it if you could please analyze or inspect the very detailed and thorough report basically right now.",
	})
	require.NoError(t, err)

	all := append(append([]ScoredEdit{}, res.Applied...), res.RequiresReview...)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			disjoint := a.End <= b.Start || b.End <= a.Start
			assert.True(t, disjoint, "edits %q and %q overlap", a.Original, b.Original)
		}
	}
}

func TestEngine_Optimize_RecordsCorpusApplications(t *testing.T) {
	corpus := NewCorpus()
	eng := NewEngine(testCounter(t), corpus, nil)

	_, err := eng.Optimize(context.Background(), Request{
		Prompt: "The distance is 10 kilometers.",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, corpus.Occurrences("10 kilometers"))
}

func TestEngine_Optimize_ThresholdPartition(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)

	res, err := eng.Optimize(context.Background(), Request{
		Prompt:              "The distance is 10 kilometers.",
		ConfidenceThreshold: 0.99,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Applied)
	require.Len(t, res.RequiresReview, 1)
	assert.True(t, res.RequiresReview[0].RequiresReview)
	assert.Contains(t, res.OptimizedPrompt, "10 kilometers")
}

func TestEngine_Optimize_CancelledContext(t *testing.T) {
	eng := NewEngine(testCounter(t), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Optimize(ctx, Request{Prompt: "anything"})
	assert.Error(t, err)
}

type stubConceptSource struct {
	edits []CandidateEdit
	err   error
}

func (s *stubConceptSource) Candidates(_ context.Context, _ string, _ func(int, int) bool) ([]CandidateEdit, error) {
	return s.edits, s.err
}

func TestEngine_Optimize_ConceptSourceWired(t *testing.T) {
	prompt := "Convert the measurement for the hospital report."
	start := strings.Index(prompt, "hospital")
	src := &stubConceptSource{edits: []CandidateEdit{{
		Start:          start,
		End:            start + len("hospital"),
		Original:       "hospital",
		Replacement:    "ward",
		Category:       CategoryConcept,
		BaseConfidence: 0.95,
		Reasoning:      "cheaper surface form",
	}}}

	eng := NewEngine(testCounter(t), nil, nil, WithConceptSource(src))
	res, err := eng.Optimize(context.Background(), Request{Prompt: prompt, ConfidenceThreshold: 0.70})
	require.NoError(t, err)

	assert.Contains(t, res.OptimizedPrompt, "ward")
	assert.NotContains(t, res.OptimizedPrompt, "hospital")
}
