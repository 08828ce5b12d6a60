package concept

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Lookup finds concepts by exact label. A miss is (nil, nil); errors are
// reserved for store failures.
type Lookup interface {
	FindConceptByLabel(ctx context.Context, label string) (*Concept, error)
}

// ResolutionMetrics receives resolver outcomes. A nil value disables
// recording.
type ResolutionMetrics interface {
	RecordResolution(outcome string)
	RecordCacheRequest(hit bool)
}

// Resolver maps words to concepts under a resolution policy, with an LRU
// cache over (policy, word). Resolution is idempotent: repeated calls with
// the same inputs return the same outcome, hit or miss.
type Resolver struct {
	lookup  Lookup
	cache   *resolutionCache
	logger  *zap.Logger
	metrics ResolutionMetrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolutionMetrics wires outcome and cache counters into the resolver.
func WithResolutionMetrics(m ResolutionMetrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver builds a resolver over the given lookup. cacheSize <= 0 uses
// the default capacity.
func NewResolver(lookup Lookup, cacheSize int, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		lookup: lookup,
		cache:  newResolutionCache(cacheSize),
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CacheStats returns a snapshot of the resolution cache counters.
func (r *Resolver) CacheStats() CacheStats { return r.cache.Stats() }

// Resolve maps a word to a concept, or (nil, nil) when nothing matches.
// Misses are cached alongside hits so repeated unknown words stay cheap.
func (r *Resolver) Resolve(ctx context.Context, word string, policy ResolutionPolicy) (*Concept, error) {
	key := cacheKey(policy, word)
	if c, ok := r.cache.get(key); ok {
		r.recordCache(true)
		r.recordOutcome(c, nil)
		return c, nil
	}
	r.recordCache(false)

	c, err := r.resolve(ctx, word, policy)
	r.recordOutcome(c, err)
	if err != nil {
		return nil, err
	}
	r.cache.set(key, c)
	return c, nil
}

func (r *Resolver) recordCache(hit bool) {
	if r.metrics != nil {
		r.metrics.RecordCacheRequest(hit)
	}
}

func (r *Resolver) recordOutcome(c *Concept, err error) {
	if r.metrics == nil {
		return
	}
	switch {
	case err != nil:
		r.metrics.RecordResolution("error")
	case c != nil:
		r.metrics.RecordResolution("resolved")
	default:
		r.metrics.RecordResolution("miss")
	}
}

func (r *Resolver) resolve(ctx context.Context, word string, policy ResolutionPolicy) (*Concept, error) {
	switch policy.Mode {
	case ResolveExactOnly:
		return r.lookup.FindConceptByLabel(ctx, word)
	case ResolveFuzzy:
		c, err := r.tryNormalized(ctx, word)
		if err != nil || c != nil {
			return c, err
		}
		// Embedding-based nearest neighbor lookup is not wired yet; fuzzy
		// degrades to normalized matching.
		r.logger.Debug("fuzzy resolution fell through to miss",
			zap.String("word", word),
			zap.Float64("threshold", policy.FuzzyThreshold),
		)
		return nil, nil
	default:
		return r.tryNormalized(ctx, word)
	}
}

// tryNormalized tries candidate spellings in order, stopping at the first
// hit: as given, lowercased, NFC-normalized, NFC of the lowercased form.
func (r *Resolver) tryNormalized(ctx context.Context, word string) (*Concept, error) {
	seen := make(map[string]struct{}, 4)
	for _, candidate := range []string{
		word,
		strings.ToLower(word),
		norm.NFC.String(word),
		norm.NFC.String(strings.ToLower(word)),
	} {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		c, err := r.lookup.FindConceptByLabel(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}
