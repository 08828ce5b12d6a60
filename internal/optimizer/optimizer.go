package optimizer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenCounter estimates how many tokens a piece of text costs.
type TokenCounter interface {
	Count(text string) int
}

// ConceptSource produces concept substitution candidates for a text. The
// isProtected callback lets the source skip spans inside protected regions
// without depending on region types.
type ConceptSource interface {
	Candidates(ctx context.Context, text string, isProtected func(start, end int) bool) ([]CandidateEdit, error)
}

// Engine is the optimization pipeline. Construct once and share; all methods
// are safe for concurrent use.
type Engine struct {
	patterns *PatternEngine
	scorer   *Scorer
	corpus   *Corpus
	concepts ConceptSource
	counter  TokenCounter
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConceptSource wires a concept substitution source into the pipeline.
func WithConceptSource(src ConceptSource) EngineOption {
	return func(e *Engine) { e.concepts = src }
}

// WithRegistry substitutes the rule registry used by the pattern engine.
func WithRegistry(reg *Registry) EngineOption {
	return func(e *Engine) { e.patterns = NewPatternEngine(reg) }
}

// NewEngine builds the pipeline. counter is required; corpus and logger fall
// back to an empty corpus and a nop logger.
func NewEngine(counter TokenCounter, corpus *Corpus, logger *zap.Logger, opts ...EngineOption) *Engine {
	if corpus == nil {
		corpus = NewCorpus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		patterns: NewPatternEngine(nil),
		scorer:   NewScorer(corpus),
		corpus:   corpus,
		counter:  counter,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Corpus exposes the engine's frequency corpus for feedback recording.
func (e *Engine) Corpus() *Corpus { return e.corpus }

// Optimize runs the full pipeline over one request.
func (e *Engine) Optimize(ctx context.Context, req Request) (*Result, error) {
	req.ApplyDefaults()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	policy := ProtectionConservative
	floor := 0.5
	threshold := req.ConfidenceThreshold
	if req.AggressiveMode {
		policy = ProtectionAggressive
		floor = 0.4
		threshold = 0.70
	}

	regions := NewRegionDetector(policy).Detect(req.Prompt)

	candidates := e.patterns.DetectAll(req.Prompt, regions)
	if e.concepts != nil {
		extra, err := e.concepts.Candidates(ctx, req.Prompt, func(start, end int) bool {
			return IsProtected(regions, start, end)
		})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, extra...)
	}

	scored := make([]ScoredEdit, 0, len(candidates))
	for _, c := range candidates {
		conf := e.scorer.Score(req.Prompt, c)
		if conf.Final < floor {
			continue
		}
		savings := e.counter.Count(c.Original) - e.counter.Count(c.Replacement)
		if savings <= 0 {
			continue
		}
		scored = append(scored, ScoredEdit{
			ID:            uuid.NewString(),
			CandidateEdit: c,
			Confidence:    conf,
			TokenSavings:  savings,
		})
	}

	resolved := ResolveConflicts(scored)

	var applied, review []ScoredEdit
	for _, s := range resolved {
		if s.Confidence.Final >= threshold {
			applied = append(applied, s)
		} else {
			s.RequiresReview = true
			review = append(review, s)
		}
	}

	optimized := ApplyEdits(req.Prompt, applied)
	optimized = AppendDirective(optimized, req.OutputLanguage, req.DirectiveFormat)

	originalTokens := e.counter.Count(req.Prompt)
	optimizedTokens := e.counter.Count(optimized)
	savings := originalTokens - optimizedTokens
	pct := 0.0
	if originalTokens > 0 {
		pct = float64(savings) / float64(originalTokens) * 100
	}

	for _, s := range applied {
		e.corpus.RecordApplication(s.Original, s.TokenSavings)
	}

	e.logger.Debug("optimization complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("applied", len(applied)),
		zap.Int("requires_review", len(review)),
		zap.Int("token_savings", savings),
	)

	return &Result{
		OriginalPrompt:    req.Prompt,
		OptimizedPrompt:   optimized,
		OriginalTokens:    originalTokens,
		OptimizedTokens:   optimizedTokens,
		TokenSavings:      savings,
		SavingsPercentage: pct,
		Applied:           applied,
		RequiresReview:    review,
		OutputLanguage:    req.OutputLanguage,
		ProtectedRegions:  len(regions),
	}, nil
}
