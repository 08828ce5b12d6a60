package optimizer

import (
	"sort"
	"sync"
)

// PatternStats accumulates history for one pattern, keyed by the literal
// matched text. Occurrences feed the scorer's frequency bonus; the
// accept/reject counts back the success rate surfaced to operators.
type PatternStats struct {
	Pattern          string  `json:"pattern"`
	Occurrences      int     `json:"occurrences"`
	Accepted         int     `json:"accepted"`
	Rejected         int     `json:"rejected"`
	AvgTokensSaved   float64 `json:"avg_tokens_saved"`
	totalTokensSaved int
}

// SuccessRate is accepted / (accepted + rejected), or 0 with no decisions.
func (p *PatternStats) SuccessRate() float64 {
	total := p.Accepted + p.Rejected
	if total == 0 {
		return 0
	}
	return float64(p.Accepted) / float64(total)
}

// Corpus is the in-memory frequency corpus shared across requests. It is
// hydrated from the store at startup and updated as optimizations run and
// feedback arrives. Safe for concurrent use.
type Corpus struct {
	mu    sync.RWMutex
	stats map[string]*PatternStats
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{stats: make(map[string]*PatternStats)}
}

// Occurrences implements FrequencySource.
func (c *Corpus) Occurrences(pattern string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.stats[pattern]; ok {
		return s.Occurrences
	}
	return 0
}

// RecordApplication notes that an edit for pattern was applied, saving
// tokensSaved tokens.
func (c *Corpus) RecordApplication(pattern string, tokensSaved int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.get(pattern)
	s.Occurrences++
	s.totalTokensSaved += tokensSaved
	s.AvgTokensSaved = float64(s.totalTokensSaved) / float64(s.Occurrences)
}

// RecordDecision records user feedback on an edit for pattern.
func (c *Corpus) RecordDecision(pattern string, accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.get(pattern)
	if accepted {
		s.Accepted++
	} else {
		s.Rejected++
	}
}

// Seed replaces the stats for pattern; used when hydrating from the store.
func (c *Corpus) Seed(stats PatternStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := stats
	cp.totalTokensSaved = int(stats.AvgTokensSaved * float64(stats.Occurrences))
	c.stats[stats.Pattern] = &cp
}

// Snapshot returns a copy of all stats ordered by occurrences descending.
func (c *Corpus) Snapshot() []PatternStats {
	c.mu.RLock()
	out := make([]PatternStats, 0, len(c.stats))
	for _, s := range c.stats {
		out = append(out, *s)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

func (c *Corpus) get(pattern string) *PatternStats {
	s, ok := c.stats[pattern]
	if !ok {
		s = &PatternStats{Pattern: pattern}
		c.stats[pattern] = s
	}
	return s
}
