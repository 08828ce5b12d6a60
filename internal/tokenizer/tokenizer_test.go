package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	for _, id := range []ID{Cl100kBase, Claude, Llama3} {
		tok, err := r.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id, tok.ID())
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("gpt2")
	require.Error(t, err)

	var unknown *UnknownTokenizerError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, ID("gpt2"), unknown.Requested)
	assert.Contains(t, err.Error(), "gpt2")
}

func TestRegistry_IDsSorted(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []ID{Cl100kBase, Claude, Llama3}, r.IDs())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	custom := &heuristic{id: Cl100kBase, charsPerRun: 2}
	r.Register(custom)

	tok, err := r.Get(Cl100kBase)
	require.NoError(t, err)
	assert.Same(t, custom, tok)
}

func TestHeuristic_Count(t *testing.T) {
	cl100k, err := NewRegistry().Get(Cl100kBase)
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"short word", "code", 1},
		{"long word", "kilometers", 3},
		{"compact unit", "10km", 1},
		{"short han word", "验证", 1},
		{"word with punctuation", "task.", 2},
		{"digits then letters", "10 kilometers", 4},
		{"sentence", "Help me with this task.", 6},
		{"whitespace only", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cl100k.Count(tt.text))
		})
	}
}

func TestHeuristic_Llama3Splitting(t *testing.T) {
	reg := NewRegistry()
	llama, err := reg.Get(Llama3)
	require.NoError(t, err)
	cl100k, err := reg.Get(Cl100kBase)
	require.NoError(t, err)

	// Nine letters: ceil(9/3) = 3 vs ceil(9/4) = 3, but twelve letters
	// separate the backends: ceil(12/3) = 4 vs ceil(12/4) = 3.
	assert.Equal(t, 4, llama.Count("abcdefghijkl"))
	assert.Equal(t, 3, cl100k.Count("abcdefghijkl"))
}
