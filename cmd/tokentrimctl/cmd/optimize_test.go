package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useServer points the CLI at a test server and restores the previous
// target and optimize flags afterwards.
func useServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)

	oldURL, oldJSON := serverURL, outputJSON
	oldLang, oldThreshold := optimizeLanguage, optimizeThreshold
	oldAggressive, oldDirective := optimizeAggressive, optimizeDirective
	serverURL = server.URL

	t.Cleanup(func() {
		server.Close()
		serverURL, outputJSON = oldURL, oldJSON
		optimizeLanguage, optimizeThreshold = oldLang, oldThreshold
		optimizeAggressive, optimizeDirective = oldAggressive, oldDirective
	})
}

func TestRunOptimize(t *testing.T) {
	useServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/optimize", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "please tidy this", body["prompt"])
		assert.Equal(t, false, body["aggressive_mode"])
		assert.NotContains(t, body, "output_language")
		assert.NotContains(t, body, "confidence_threshold")

		_ = json.NewEncoder(w).Encode(OptimizeResponse{
			OriginalPrompt:  "please tidy this",
			OptimizedPrompt: "Tidy this.\n\n[output_language: english]",
			OriginalTokens:  5,
			OptimizedTokens: 3,
			TokenSavings:    2,
		})
	})

	out := captureStdout(t, func() {
		require.NoError(t, runOptimize(optimizeCmd, []string{"please tidy this"}))
	})
	assert.Contains(t, out, "Tidy this.")
	assert.Contains(t, out, "[output_language: english]")
}

func TestRunOptimize_ForwardsFlags(t *testing.T) {
	useServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mandarin", body["output_language"])
		assert.Equal(t, 0.9, body["confidence_threshold"])
		assert.Equal(t, "xml", body["directive_format"])
		assert.Equal(t, true, body["aggressive_mode"])

		_ = json.NewEncoder(w).Encode(OptimizeResponse{OptimizedPrompt: "ok"})
	})
	optimizeLanguage = "mandarin"
	optimizeThreshold = 0.9
	optimizeDirective = "xml"
	optimizeAggressive = true

	out := captureStdout(t, func() {
		require.NoError(t, runOptimize(optimizeCmd, []string{"prompt"}))
	})
	assert.Contains(t, out, "ok")
}

func TestRunOptimize_JSONOutput(t *testing.T) {
	useServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OptimizeResponse{
			OptimizedPrompt: "Done.",
			TokenSavings:    1,
		})
	})
	outputJSON = true

	out := captureStdout(t, func() {
		require.NoError(t, runOptimize(optimizeCmd, []string{"prompt"}))
	})
	assert.Contains(t, out, "\"optimized_prompt\": \"Done.\"")
	assert.Contains(t, out, "\"token_savings\": 1")
}

func TestRunOptimize_ServerError(t *testing.T) {
	useServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "optimization_failed",
			"message": "engine unavailable",
		})
	})

	err := runOptimize(optimizeCmd, []string{"prompt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to optimize")
	assert.Contains(t, err.Error(), "engine unavailable")
}

func TestReadPrompt(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		got, err := readPrompt([]string{"the prompt"})
		require.NoError(t, err)
		assert.Equal(t, "the prompt", got)
	})

	t.Run("from stdin", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		_, err = w.WriteString("piped prompt")
		require.NoError(t, err)
		w.Close()

		old := os.Stdin
		os.Stdin = r
		t.Cleanup(func() { os.Stdin = old })

		got, err := readPrompt(nil)
		require.NoError(t, err)
		assert.Equal(t, "piped prompt", got)
	})

	t.Run("empty stdin is an error", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		w.Close()

		old := os.Stdin
		os.Stdin = r
		t.Cleanup(func() { os.Stdin = old })

		_, err = readPrompt(nil)
		require.Error(t, err)
	})
}
