package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func TestPatternEngine_Boilerplate(t *testing.T) {
	engine := NewPatternEngine(nil)
	text := "I would really appreciate it if you could please help me with this task."

	candidates := engine.DetectAll(text, nil)

	var prefix *CandidateEdit
	for i := range candidates {
		if candidates[i].Category == CategoryBoilerplate && candidates[i].Start == 0 {
			prefix = &candidates[i]
			break
		}
	}
	require.NotNil(t, prefix, "expected a boilerplate prefix candidate")
	assert.Equal(t, "I would really appreciate it if you could please ", prefix.Original)
	assert.Equal(t, "", prefix.Replacement)
	assert.InDelta(t, 0.97, prefix.BaseConfidence, 1e-9)
}

func TestPatternEngine_StructuralUnits(t *testing.T) {
	engine := NewPatternEngine(nil)

	tests := []struct {
		text        string
		original    string
		replacement string
	}{
		{"The distance is 10 kilometers.", "10 kilometers", "10km"},
		{"wait 5 minutes please", "5 minutes", "5min"},
		{"a 30 percent discount", "30 percent", "30%"},
		{"costs 100 dollars total", "100 dollars", "$100"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			candidates := engine.DetectAll(tt.text, nil)
			found := false
			for _, c := range candidates {
				if c.Category == CategoryStructural && c.Original == tt.original {
					assert.Equal(t, tt.replacement, c.Replacement)
					found = true
				}
			}
			assert.True(t, found, "no structural candidate for %q", tt.original)
		})
	}
}

func TestPatternEngine_SkipsProtectedRegions(t *testing.T) {
	engine := NewPatternEngine(nil)
	text := "please check `really important` code"
	regions := NewRegionDetector(ProtectionConservative).Detect(text)

	candidates := engine.DetectAll(text, regions)
	for _, c := range candidates {
		assert.False(t, IsProtected(regions, c.Start, c.End),
			"candidate %q overlaps a protected region", c.Original)
	}
}

func TestPatternEngine_CrossLanguageFirstOccurrenceOnly(t *testing.T) {
	engine := NewPatternEngine(nil)
	text := "verify the results, then verify them again"

	candidates := engine.DetectAll(text, nil)
	var crossLang []CandidateEdit
	for _, c := range candidates {
		if c.Category == CategoryCrossLanguage {
			crossLang = append(crossLang, c)
		}
	}

	require.Len(t, crossLang, 1)
	assert.Equal(t, "verify", crossLang[0].Original)
	assert.Equal(t, "验证", crossLang[0].Replacement)
	assert.Equal(t, 0, crossLang[0].Start, "must match the first occurrence")
}

func TestPatternEngine_Synonyms(t *testing.T) {
	engine := NewPatternEngine(nil)

	tests := []struct {
		text        string
		original    string
		replacement string
	}{
		{"examine and analyze the data", "examine and analyze", "analyze"},
		{"analyze or inspect the data", "analyze or inspect", "analyze"},
		{"look into and investigate it", "", ""}, // "look into or research" not present
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			candidates := engine.DetectAll(tt.text, nil)
			var match *CandidateEdit
			for i := range candidates {
				if candidates[i].Category == CategorySynonym {
					match = &candidates[i]
				}
			}
			if tt.original == "" {
				assert.Nil(t, match)
				return
			}
			require.NotNil(t, match)
			assert.Equal(t, tt.original, match.Original)
			assert.Equal(t, tt.replacement, match.Replacement)
		})
	}
}

func TestNewRegistry_SkipsInvalidPatterns(t *testing.T) {
	reg := NewRegistry([]Rule{
		{ID: "ok", Category: CategoryFiller, Pattern: `\bfoo\b`, BaseConfidence: 0.9},
		{ID: "bad", Category: CategoryFiller, Pattern: `(unclosed`, BaseConfidence: 0.9},
	}, zap.NewNop())

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "ok", reg.Rules()[0].ID)
}

func TestDefaultRegistry_AllPatternsCompile(t *testing.T) {
	reg := DefaultRegistry()
	want := len(boilerplateRules) + len(fillerRules) + len(instructionRules) +
		len(redundantRules) + len(structuralRules)
	assert.Equal(t, want, reg.Len())
}
