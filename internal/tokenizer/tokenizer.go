// Package tokenizer provides pluggable token counting backends keyed by
// tokenizer identity. Counts are heuristic estimates tuned per model family;
// surface form token costs stored alongside concepts are always measured
// with the same backend that scores the prompt.
package tokenizer

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// ID names a tokenizer identity. Token counts are only comparable within a
// single identity.
type ID string

const (
	Cl100kBase ID = "cl100k_base"
	Claude     ID = "claude"
	Llama3     ID = "llama3"
)

// Tokenizer estimates token counts for text under one identity.
type Tokenizer interface {
	ID() ID
	Count(text string) int
}

// UnknownTokenizerError is returned when a registry lookup misses. A missing
// tokenizer is fatal for the request that named it; there is no fallback
// identity because counts would not be comparable.
type UnknownTokenizerError struct {
	Requested ID
}

func (e *UnknownTokenizerError) Error() string {
	return fmt.Sprintf("unknown tokenizer %q", e.Requested)
}

// Registry maps tokenizer IDs to backends. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[ID]Tokenizer
}

// NewRegistry returns a registry preloaded with the built-in backends.
func NewRegistry() *Registry {
	r := &Registry{backends: make(map[ID]Tokenizer)}
	r.Register(&heuristic{id: Cl100kBase, charsPerRun: 4})
	r.Register(&heuristic{id: Claude, charsPerRun: 4})
	r.Register(&heuristic{id: Llama3, charsPerRun: 3})
	return r
}

// Register adds or replaces a backend.
func (r *Registry) Register(t Tokenizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[t.ID()] = t
}

// Get returns the backend for id, or an UnknownTokenizerError.
func (r *Registry) Get(id ID) (Tokenizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.backends[id]
	if !ok {
		return nil, &UnknownTokenizerError{Requested: id}
	}
	return t, nil
}

// IDs lists the registered identities in sorted order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// heuristic estimates tokens from character composition: short words cost
// one token, longer words cost ceil(runLength/charsPerRun) per run of
// same-class runes. Class changes (letter to digit, digit to punctuation)
// approximate subword boundaries.
type heuristic struct {
	id          ID
	charsPerRun int
}

func (h *heuristic) ID() ID { return h.id }

func (h *heuristic) Count(text string) int {
	if text == "" {
		return 0
	}
	tokens := 0
	for _, word := range strings.Fields(text) {
		tokens += h.countWord(word)
	}
	return tokens
}

func (h *heuristic) countWord(word string) int {
	if len(word) <= 4 {
		return 1
	}

	tokens := 0
	run := 0
	last := 0
	for _, r := range word {
		rt := runeClass(r)
		if rt != last && last != 0 {
			tokens += (run + h.charsPerRun - 1) / h.charsPerRun
			run = 0
		}
		run++
		last = rt
	}
	if run > 0 {
		tokens += (run + h.charsPerRun - 1) / h.charsPerRun
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

func runeClass(r rune) int {
	switch {
	case unicode.IsLetter(r):
		return 1
	case unicode.IsDigit(r):
		return 2
	case unicode.IsPunct(r):
		return 3
	case unicode.IsSpace(r):
		return 4
	default:
		return 5
	}
}
