// Package concept implements concept resolution and surface form selection:
// mapping words in a prompt to language-independent concepts and picking the
// cheapest equivalent rendering for a given tokenizer.
package concept

// Concept is a language-independent unit of meaning (e.g. a Wikidata-style
// Q-identifier) that one or more surface forms can express.
type Concept struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// SurfaceForm is one concrete rendering of a concept under a specific
// tokenizer: the text plus its measured token and character costs.
type SurfaceForm struct {
	ConceptID   string `json:"concept_id"`
	TokenizerID string `json:"tokenizer_id"`
	Language    string `json:"language"`
	Text        string `json:"text"`
	TokenCount  int    `json:"token_count"`
	CharCount   int    `json:"char_count"`
}

// ResolutionMode selects how aggressively a word is matched to a concept.
type ResolutionMode string

const (
	// ResolveExactOnly matches the word exactly as written.
	ResolveExactOnly ResolutionMode = "exact_only"
	// ResolveNormalized tries the word as given, then lowercased, then
	// Unicode-normalized (NFC), then both.
	ResolveNormalized ResolutionMode = "normalized"
	// ResolveFuzzy extends normalized matching with embedding-based nearest
	// neighbor lookup above a similarity threshold.
	ResolveFuzzy ResolutionMode = "fuzzy"
)

// ResolutionPolicy is a resolution mode plus its parameters.
type ResolutionPolicy struct {
	Mode ResolutionMode `json:"mode"`
	// FuzzyThreshold is the minimum similarity for a fuzzy match; only
	// meaningful when Mode is ResolveFuzzy.
	FuzzyThreshold float64 `json:"fuzzy_threshold,omitempty"`
}
