// Package storage defines the persistence contract for concepts, surface
// forms, rewrite rules, pattern statistics, and feedback.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tokentrim/tokentrim/internal/concept"
	"github.com/tokentrim/tokentrim/internal/optimizer"
)

// ruleConfidencePrior is the pseudo-count weight given to a rule's shipped
// base confidence when blending in observed feedback. Small feedback samples
// barely move the score; sustained rejection drags it down.
const ruleConfidencePrior = 10

// RuleRecord is a persisted rewrite rule plus its feedback counters.
type RuleRecord struct {
	ID             string                 `json:"id"`
	Category       optimizer.EditCategory `json:"category"`
	Pattern        string                 `json:"pattern"`
	Replacement    string                 `json:"replacement"`
	BaseConfidence float64                `json:"base_confidence"`
	Reasoning      string                 `json:"reasoning"`
	TimesApplied   int                    `json:"times_applied"`
	TokensSaved    int                    `json:"tokens_saved"`
	Accepted       int                    `json:"accepted"`
	Rejected       int                    `json:"rejected"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// EffectiveConfidence blends the shipped base confidence with accumulated
// accept/reject decisions using a fixed pseudo-count prior.
func (r *RuleRecord) EffectiveConfidence() float64 {
	decisions := r.Accepted + r.Rejected
	return (r.BaseConfidence*ruleConfidencePrior + float64(r.Accepted)) /
		float64(ruleConfidencePrior+decisions)
}

// FeedbackRecord captures one user decision about a proposed edit.
type FeedbackRecord struct {
	ID        string                 `json:"id"`
	EditID    string                 `json:"edit_id"`
	Pattern   string                 `json:"pattern"`
	Category  optimizer.EditCategory `json:"category"`
	RuleID    string                 `json:"rule_id,omitempty"`
	Accepted  bool                   `json:"accepted"`
	Note      string                 `json:"note,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Stats summarizes store contents.
type Stats struct {
	Concepts     int `json:"concepts"`
	SurfaceForms int `json:"surface_forms"`
	Rules        int `json:"rules"`
	Feedback     int `json:"feedback"`
	PatternStats int `json:"pattern_stats"`
}

// Store is the persistence contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Concepts and surface forms.
	GetConcept(ctx context.Context, id string) (*concept.Concept, error)
	FindConceptByLabel(ctx context.Context, label string) (*concept.Concept, error)
	UpsertConcept(ctx context.Context, c *concept.Concept) error
	PutSurfaceForm(ctx context.Context, f *concept.SurfaceForm) error
	GetSurfaceForms(ctx context.Context, conceptID, tokenizerID string) ([]concept.SurfaceForm, error)

	// Rules.
	LoadRules(ctx context.Context) ([]RuleRecord, error)
	UpsertRule(ctx context.Context, r *RuleRecord) error
	RecordRuleApplication(ctx context.Context, ruleID string, tokensSaved int) error

	// Feedback.
	RecordFeedback(ctx context.Context, f *FeedbackRecord) error
	ListFeedback(ctx context.Context, limit int) ([]FeedbackRecord, error)

	// Pattern frequency statistics.
	SavePatternStats(ctx context.Context, stats []optimizer.PatternStats) error
	LoadPatternStats(ctx context.Context) ([]optimizer.PatternStats, error)

	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// ErrNotFound is returned when a requested item is not found.
type ErrNotFound struct {
	Type string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Type, e.ID)
}
