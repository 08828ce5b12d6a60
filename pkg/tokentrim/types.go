// Package tokentrim provides the Go SDK for the tokentrim server.
package tokentrim

// OptimizeInput is the request body for an optimization call.
type OptimizeInput struct {
	Prompt              string  `json:"prompt"`
	OutputLanguage      string  `json:"output_language,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
	AggressiveMode      bool    `json:"aggressive_mode,omitempty"`
	DirectiveFormat     string  `json:"directive_format,omitempty"`
}

// Confidence is the scored breakdown of one edit.
type Confidence struct {
	Base           float64 `json:"base_confidence"`
	ContextPenalty float64 `json:"context_penalty"`
	FrequencyBonus float64 `json:"frequency_bonus"`
	SemanticRisk   float64 `json:"semantic_risk"`
	Final          float64 `json:"final_confidence"`
}

// Edit is one applied or proposed edit.
type Edit struct {
	ID             string     `json:"id"`
	Start          int        `json:"start"`
	End            int        `json:"end"`
	Original       string     `json:"original_text"`
	Replacement    string     `json:"replacement_text"`
	Category       string     `json:"category"`
	Reasoning      string     `json:"reasoning"`
	RuleID         string     `json:"rule_id,omitempty"`
	Confidence     Confidence `json:"confidence"`
	TokenSavings   int        `json:"token_savings"`
	RequiresReview bool       `json:"requires_review"`
}

// OptimizeResult is the outcome of an optimization call.
type OptimizeResult struct {
	OriginalPrompt    string  `json:"original_prompt"`
	OptimizedPrompt   string  `json:"optimized_prompt"`
	OriginalTokens    int     `json:"original_tokens"`
	OptimizedTokens   int     `json:"optimized_tokens"`
	TokenSavings      int     `json:"token_savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
	Applied           []Edit  `json:"optimizations"`
	RequiresReview    []Edit  `json:"requires_review"`
	OutputLanguage    string  `json:"output_language"`
	ProtectedRegions  int     `json:"protected_regions"`
}

// FeedbackInput records a decision about a proposed edit.
type FeedbackInput struct {
	EditID   string `json:"edit_id"`
	Pattern  string `json:"pattern"`
	Category string `json:"category,omitempty"`
	RuleID   string `json:"rule_id,omitempty"`
	Accepted bool   `json:"accepted"`
	Note     string `json:"note,omitempty"`
}

// Concept is a language-independent unit of meaning.
type Concept struct {
	ID          string   `json:"id,omitempty"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// SurfaceForm is one rendering of a concept under a tokenizer.
type SurfaceForm struct {
	ConceptID   string `json:"concept_id,omitempty"`
	TokenizerID string `json:"tokenizer_id"`
	Language    string `json:"language"`
	Text        string `json:"text"`
	TokenCount  int    `json:"token_count"`
	CharCount   int    `json:"char_count,omitempty"`
}

// PatternStat is the frequency record for one pattern.
type PatternStat struct {
	Pattern        string  `json:"pattern"`
	Occurrences    int     `json:"occurrences"`
	Accepted       int     `json:"accepted"`
	Rejected       int     `json:"rejected"`
	AvgTokensSaved float64 `json:"avg_tokens_saved"`
}

// Rule is a stored rewrite rule with its feedback counters.
type Rule struct {
	ID                  string  `json:"id"`
	Category            string  `json:"category"`
	Pattern             string  `json:"pattern"`
	Replacement         string  `json:"replacement"`
	BaseConfidence      float64 `json:"base_confidence"`
	EffectiveConfidence float64 `json:"effective_confidence"`
	Reasoning           string  `json:"reasoning"`
	TimesApplied        int     `json:"times_applied"`
	TokensSaved         int     `json:"tokens_saved"`
	Accepted            int     `json:"accepted"`
	Rejected            int     `json:"rejected"`
}

// PatternsResult is the response of the patterns endpoint.
type PatternsResult struct {
	Patterns []PatternStat `json:"patterns"`
	Rules    []Rule        `json:"rules"`
}

// Stats summarizes server-side stored data.
type Stats struct {
	Concepts     int `json:"concepts"`
	SurfaceForms int `json:"surface_forms"`
	Rules        int `json:"rules"`
	Feedback     int `json:"feedback"`
	PatternStats int `json:"pattern_stats"`
}

// HealthResponse is the health endpoint response.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
