package concept

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/tokentrim/tokentrim/internal/optimizer"
)

// conceptBaseConfidence is the starting score for concept substitutions;
// the scorer still applies context penalties and semantic risk on top.
const conceptBaseConfidence = 0.95

// FormSource lists the surface forms recorded for a concept under a
// tokenizer.
type FormSource interface {
	GetSurfaceForms(ctx context.Context, conceptID, tokenizerID string) ([]SurfaceForm, error)
}

// TokenCounter estimates token cost for a piece of text.
type TokenCounter interface {
	Count(text string) int
}

var reWord = regexp.MustCompile(`[\p{L}]{3,}`)

// Source generates concept substitution candidates for the optimization
// pipeline: each unprotected word is resolved to a concept, the cheapest
// acceptable surface form is selected, and a candidate edit is emitted when
// the swap saves tokens.
type Source struct {
	resolver    *Resolver
	forms       FormSource
	counter     TokenCounter
	tokenizerID string
	resolution  ResolutionPolicy
	selection   SelectionPolicy
	logger      *zap.Logger
}

// NewSource wires a candidate source from its parts.
func NewSource(resolver *Resolver, forms FormSource, counter TokenCounter, tokenizerID string, resolution ResolutionPolicy, selection SelectionPolicy, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		resolver:    resolver,
		forms:       forms,
		counter:     counter,
		tokenizerID: tokenizerID,
		resolution:  resolution,
		selection:   selection,
		logger:      logger,
	}
}

// Candidates implements the optimizer's concept source contract. Words are
// resolved at most once per call; every occurrence of a substitutable word
// outside protected regions yields its own candidate.
func (s *Source) Candidates(ctx context.Context, text string, isProtected func(start, end int) bool) ([]optimizer.CandidateEdit, error) {
	memo := make(map[string]substitution)

	var out []optimizer.CandidateEdit
	for _, loc := range reWord.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if isProtected(start, end) {
			continue
		}
		word := text[start:end]

		entry, seen := memo[word]
		if !seen {
			var err error
			entry, err = s.lookup(ctx, word)
			if err != nil {
				return nil, err
			}
			memo[word] = entry
		}
		if !entry.ok {
			continue
		}

		out = append(out, optimizer.CandidateEdit{
			Start:          start,
			End:            end,
			Original:       word,
			Replacement:    entry.replacement,
			Category:       optimizer.CategoryConcept,
			BaseConfidence: conceptBaseConfidence,
			Reasoning:      entry.reasoning,
		})
	}
	return out, nil
}

// substitution is a memoized per-word lookup outcome; ok is false for words
// that resolve to nothing or save nothing.
type substitution struct {
	replacement string
	reasoning   string
	ok          bool
}

func (s *Source) lookup(ctx context.Context, word string) (substitution, error) {
	c, err := s.resolver.Resolve(ctx, word, s.resolution)
	if err != nil {
		return substitution{}, err
	}
	if c == nil {
		return substitution{}, nil
	}

	forms, err := s.forms.GetSurfaceForms(ctx, c.ID, s.tokenizerID)
	if err != nil {
		return substitution{}, err
	}
	form := Select(forms, s.selection)
	if form == nil {
		return substitution{}, nil
	}
	if _, ok := CalculateSavings(word, s.counter.Count(word), form); !ok {
		return substitution{}, nil
	}

	return substitution{
		replacement: form.Text,
		reasoning:   fmt.Sprintf("Concept %s (%s) has a cheaper surface form in %s", c.ID, c.Label, form.Language),
		ok:          true,
	}, nil
}
