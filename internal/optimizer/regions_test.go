package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionDetector_Detect(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		policy    ProtectionPolicy
		protected []string
	}{
		{
			name:      "fenced code block",
			text:      "before ```func main() {}``` after",
			policy:    ProtectionAggressive,
			protected: []string{"```func main() {}```"},
		},
		{
			name:      "inline code",
			text:      "check the `hospital` variable",
			policy:    ProtectionAggressive,
			protected: []string{"`hospital`"},
		},
		{
			name:      "template variables",
			text:      "hello {{name}} and ${var} and {% tag %}",
			policy:    ProtectionAggressive,
			protected: []string{"{{name}}", "${var}", "{% tag %}"},
		},
		{
			name:      "url",
			text:      "see https://example.com/docs for details",
			policy:    ProtectionAggressive,
			protected: []string{"https://example.com/docs"},
		},
		{
			name:      "file path",
			text:      "open /etc/hosts now",
			policy:    ProtectionAggressive,
			protected: []string{"/etc/hosts"},
		},
		{
			name:      "instruction keywords",
			text:      "the output MUST be valid JSON",
			policy:    ProtectionAggressive,
			protected: []string{"MUST", "JSON"},
		},
		{
			name:      "identifiers only under conservative",
			text:      "set maxRetryCount and retry_limit",
			policy:    ProtectionConservative,
			protected: []string{"maxRetryCount", "retry_limit"},
		},
		{
			name:      "quoted strings only under conservative",
			text:      `say "hello there" loudly`,
			policy:    ProtectionConservative,
			protected: []string{`"hello there"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions := NewRegionDetector(tt.policy).Detect(tt.text)
			for _, want := range tt.protected {
				start := indexOf(t, tt.text, want)
				assert.True(t, IsProtected(regions, start, start+len(want)),
					"expected %q to be protected", want)
			}
		})
	}
}

func TestRegionDetector_AggressiveSkipsIdentifiers(t *testing.T) {
	text := "set maxRetryCount now"
	regions := NewRegionDetector(ProtectionAggressive).Detect(text)
	start := indexOf(t, text, "maxRetryCount")
	assert.False(t, IsProtected(regions, start, start+len("maxRetryCount")))
}

func TestRegionDetector_ConservativeIsSuperset(t *testing.T) {
	text := "use `code` with {{var}} and maxRetry plus \"quoted\" under /tmp/dir MUST"
	aggressive := NewRegionDetector(ProtectionAggressive).Detect(text)
	conservative := NewRegionDetector(ProtectionConservative).Detect(text)

	for i := 0; i < len(text); i++ {
		if IsProtected(aggressive, i, i+1) {
			assert.True(t, IsProtected(conservative, i, i+1),
				"byte %d protected aggressively but not conservatively", i)
		}
	}
}

func TestMergeRegions(t *testing.T) {
	merged := mergeRegions([]ProtectedRegion{
		{Start: 10, End: 20, Kind: RegionCodeBlock},
		{Start: 15, End: 25, Kind: RegionIdentifier},
		{Start: 40, End: 45, Kind: RegionURLOrPath},
		{Start: 25, End: 30, Kind: RegionCodeBlock},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, 10, merged[0].Start)
	assert.Equal(t, 30, merged[0].End)
	assert.Equal(t, 40, merged[1].Start)
	assert.Equal(t, 45, merged[1].End)
}

func TestIsProtected_Boundaries(t *testing.T) {
	regions := []ProtectedRegion{{Start: 10, End: 20}}

	assert.True(t, IsProtected(regions, 15, 18))
	assert.True(t, IsProtected(regions, 5, 11))
	assert.True(t, IsProtected(regions, 19, 25))
	assert.False(t, IsProtected(regions, 0, 10), "touching the start is not overlap")
	assert.False(t, IsProtected(regions, 20, 30), "touching the end is not overlap")
}

func indexOf(t *testing.T, text, sub string) int {
	t.Helper()
	i := strings.Index(text, sub)
	require.GreaterOrEqual(t, i, 0, "%q not found in %q", sub, text)
	return i
}
