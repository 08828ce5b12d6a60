// Package optimizer implements the prompt optimization pipeline: protected
// region detection, pattern and concept based edit generation, confidence
// scoring, conflict resolution, and edit application.
package optimizer

// Language is an output language for the optimized prompt.
type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageMandarin Language = "mandarin"
)

// DirectiveFormat controls how the output-language directive is rendered.
type DirectiveFormat string

const (
	DirectiveBracketed   DirectiveFormat = "bracketed"   // [output_language: english]
	DirectiveInstructive DirectiveFormat = "instructive" // Respond in English.
	DirectiveXML         DirectiveFormat = "xml"         // <output_language>english</output_language>
	DirectiveNatural     DirectiveFormat = "natural"     // Please respond to me in English.
)

// EditCategory identifies the rule family that produced a candidate edit.
type EditCategory string

const (
	CategoryBoilerplate   EditCategory = "boilerplate_removal"
	CategoryFiller        EditCategory = "filler_removal"
	CategoryInstruction   EditCategory = "instruction_compression"
	CategoryRedundant     EditCategory = "redundant_phrase"
	CategoryStructural    EditCategory = "structural"
	CategorySynonym       EditCategory = "synonym_consolidation"
	CategoryCrossLanguage EditCategory = "cross_language_substitution"
	CategoryConcept       EditCategory = "concept_substitution"
)

// RegionKind classifies a protected region.
type RegionKind string

const (
	RegionCodeBlock          RegionKind = "code_block"
	RegionTemplateVariable   RegionKind = "template_variable"
	RegionURLOrPath          RegionKind = "url_or_path"
	RegionIdentifier         RegionKind = "identifier"
	RegionQuotedString       RegionKind = "quoted_string"
	RegionInstructionKeyword RegionKind = "instruction_keyword"
)

// ProtectedRegion is a half-open byte range [Start, End) of the input that
// must never be rewritten.
type ProtectedRegion struct {
	Start int        `json:"start"`
	End   int        `json:"end"`
	Kind  RegionKind `json:"kind"`
}

// CandidateEdit is a proposed span-and-replacement, not yet scored.
// The span never intersects a protected region at generation time.
type CandidateEdit struct {
	Start          int          `json:"start"`
	End            int          `json:"end"`
	Original       string       `json:"original_text"`
	Replacement    string       `json:"replacement_text"`
	Category       EditCategory `json:"category"`
	BaseConfidence float64      `json:"base_confidence"`
	Reasoning      string       `json:"reasoning"`
	RuleID         string       `json:"rule_id,omitempty"`
}

// Confidence is the scored breakdown for a candidate edit.
// Final = clamp(Base * (1-ContextPenalty) * (1+FrequencyBonus) * (1-SemanticRisk), 0, 1).
type Confidence struct {
	Base           float64 `json:"base_confidence"`
	ContextPenalty float64 `json:"context_penalty"`
	FrequencyBonus float64 `json:"frequency_bonus"`
	SemanticRisk   float64 `json:"semantic_risk"`
	Final          float64 `json:"final_confidence"`
}

// NewConfidence computes the final score from its components.
func NewConfidence(base, contextPenalty, frequencyBonus, semanticRisk float64) Confidence {
	final := base * (1 - contextPenalty) * (1 + frequencyBonus) * (1 - semanticRisk)
	if final < 0 {
		final = 0
	}
	if final > 1 {
		final = 1
	}
	return Confidence{
		Base:           base,
		ContextPenalty: contextPenalty,
		FrequencyBonus: frequencyBonus,
		SemanticRisk:   semanticRisk,
		Final:          final,
	}
}

// ScoredEdit is a candidate edit with its confidence and token accounting.
type ScoredEdit struct {
	ID string `json:"id"`
	CandidateEdit
	Confidence     Confidence `json:"confidence"`
	TokenSavings   int        `json:"token_savings"`
	RequiresReview bool       `json:"requires_review"`
}

// Request describes one optimization call.
type Request struct {
	Prompt              string          `json:"prompt"`
	OutputLanguage      Language        `json:"output_language"`
	ConfidenceThreshold float64         `json:"confidence_threshold"`
	AggressiveMode      bool            `json:"aggressive_mode"`
	DirectiveFormat     DirectiveFormat `json:"directive_format"`
}

// ApplyDefaults fills unset request fields with their defaults.
func (r *Request) ApplyDefaults() {
	if r.OutputLanguage == "" {
		r.OutputLanguage = LanguageEnglish
	}
	if r.ConfidenceThreshold == 0 {
		r.ConfidenceThreshold = 0.85
	}
	if r.DirectiveFormat == "" {
		r.DirectiveFormat = DirectiveBracketed
	}
}

// Result is the outcome of one optimization call.
type Result struct {
	OriginalPrompt    string       `json:"original_prompt"`
	OptimizedPrompt   string       `json:"optimized_prompt"`
	OriginalTokens    int          `json:"original_tokens"`
	OptimizedTokens   int          `json:"optimized_tokens"`
	TokenSavings      int          `json:"token_savings"`
	SavingsPercentage float64      `json:"savings_percentage"`
	Applied           []ScoredEdit `json:"optimizations"`
	RequiresReview    []ScoredEdit `json:"requires_review"`
	OutputLanguage    Language     `json:"output_language"`
	ProtectedRegions  int          `json:"protected_regions"`
}
