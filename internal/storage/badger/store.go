// Package badger provides a BadgerDB-backed implementation of the storage
// contract.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tokentrim/tokentrim/internal/concept"
	"github.com/tokentrim/tokentrim/internal/optimizer"
	"github.com/tokentrim/tokentrim/internal/storage"
)

// Key prefixes for different data types.
const (
	prefixConcept      = "con:"
	prefixConceptLabel = "cl:"  // label -> concept ID index
	prefixSurfaceForm  = "sf:"  // sf:<conceptID>:<tokenizerID>:<language>:<text>
	prefixRule         = "rul:"
	prefixFeedback     = "fb:"
	prefixPatternStats = "ps:"
)

// Store implements storage.Store using BadgerDB.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Options holds configuration for the BadgerDB store.
type Options struct {
	DataDir    string
	SyncWrites bool
	Logger     badger.Logger
}

// New opens a BadgerDB store at the configured directory.
func New(opts *Options) (*Store, error) {
	if opts == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}
	if opts.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	dbOpts := badger.DefaultOptions(opts.DataDir)
	dbOpts.SyncWrites = opts.SyncWrites

	// Reduce memory usage for development
	dbOpts.ValueLogFileSize = 64 << 20 // 64MB
	dbOpts.MemTableSize = 16 << 20     // 16MB

	if opts.Logger != nil {
		dbOpts.Logger = opts.Logger
	} else {
		dbOpts.Logger = nil
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithPath opens a store with just a path (convenience method).
func NewWithPath(dataDir string) (*Store, error) {
	return New(&Options{DataDir: dataDir})
}

// Close closes the BadgerDB store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// GetConcept retrieves a concept by ID.
func (s *Store) GetConcept(ctx context.Context, id string) (*concept.Concept, error) {
	var c concept.Concept
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixConcept + id))
		if err == badger.ErrKeyNotFound {
			return &storage.ErrNotFound{Type: "concept", ID: id}
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindConceptByLabel resolves a label through the label index. The match is
// exact; callers wanting normalized matching try multiple spellings.
func (s *Store) FindConceptByLabel(ctx context.Context, label string) (*concept.Concept, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixConceptLabel + label))
		if err == badger.ErrKeyNotFound {
			return &storage.ErrNotFound{Type: "concept", ID: label}
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetConcept(ctx, id)
}

// UpsertConcept writes a concept and its label index entries (label plus
// aliases). An empty ID is assigned a fresh UUID.
func (s *Store) UpsertConcept(ctx context.Context, c *concept.Concept) error {
	if c == nil {
		return fmt.Errorf("concept cannot be nil")
	}
	if c.Label == "" {
		return fmt.Errorf("concept label is required")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal concept: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixConcept+c.ID), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(prefixConceptLabel+c.Label), []byte(c.ID)); err != nil {
			return err
		}
		for _, alias := range c.Aliases {
			if err := txn.Set([]byte(prefixConceptLabel+alias), []byte(c.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutSurfaceForm records one surface form measurement.
func (s *Store) PutSurfaceForm(ctx context.Context, f *concept.SurfaceForm) error {
	if f == nil {
		return fmt.Errorf("surface form cannot be nil")
	}
	if f.ConceptID == "" || f.TokenizerID == "" || f.Text == "" {
		return fmt.Errorf("surface form requires concept_id, tokenizer_id, and text")
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal surface form: %w", err)
	}
	key := surfaceFormKey(f.ConceptID, f.TokenizerID, f.Language, f.Text)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// GetSurfaceForms lists all forms for a concept under one tokenizer.
func (s *Store) GetSurfaceForms(ctx context.Context, conceptID, tokenizerID string) ([]concept.SurfaceForm, error) {
	prefix := []byte(prefixSurfaceForm + conceptID + ":" + tokenizerID + ":")
	var forms []concept.SurfaceForm

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var f concept.SurfaceForm
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &f)
			}); err != nil {
				return err
			}
			forms = append(forms, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return forms, nil
}

// LoadRules returns every persisted rewrite rule.
func (s *Store) LoadRules(ctx context.Context) ([]storage.RuleRecord, error) {
	var rules []storage.RuleRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixRule)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r storage.RuleRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			rules = append(rules, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// UpsertRule writes a rule record, assigning an ID and timestamps as needed.
func (s *Store) UpsertRule(ctx context.Context, r *storage.RuleRecord) error {
	if r == nil {
		return fmt.Errorf("rule cannot be nil")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}
	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = uuid.New().String()
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixRule+r.ID), data)
	})
}

// RecordRuleApplication increments a rule's application counters.
func (s *Store) RecordRuleApplication(ctx context.Context, ruleID string, tokensSaved int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixRule + ruleID))
		if err == badger.ErrKeyNotFound {
			return &storage.ErrNotFound{Type: "rule", ID: ruleID}
		}
		if err != nil {
			return err
		}

		var r storage.RuleRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		}); err != nil {
			return err
		}

		r.TimesApplied++
		r.TokensSaved += tokensSaved
		r.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&r)
		if err != nil {
			return err
		}
		return txn.Set([]byte(prefixRule+r.ID), data)
	})
}

// RecordFeedback persists one feedback record and, when it names a rule,
// folds the decision into that rule's accept/reject counters.
func (s *Store) RecordFeedback(ctx context.Context, f *storage.FeedbackRecord) error {
	if f == nil {
		return fmt.Errorf("feedback cannot be nil")
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixFeedback+f.ID), data); err != nil {
			return err
		}
		if f.RuleID == "" {
			return nil
		}

		item, err := txn.Get([]byte(prefixRule + f.RuleID))
		if err == badger.ErrKeyNotFound {
			return nil // feedback for an unknown rule still counts
		}
		if err != nil {
			return err
		}

		var r storage.RuleRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		}); err != nil {
			return err
		}
		if f.Accepted {
			r.Accepted++
		} else {
			r.Rejected++
		}
		r.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(&r)
		if err != nil {
			return err
		}
		return txn.Set([]byte(prefixRule+r.ID), updated)
	})
}

// ListFeedback returns up to limit feedback records; limit <= 0 means all.
func (s *Store) ListFeedback(ctx context.Context, limit int) ([]storage.FeedbackRecord, error) {
	var out []storage.FeedbackRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixFeedback)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var f storage.FeedbackRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &f)
			}); err != nil {
				return err
			}
			out = append(out, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SavePatternStats writes the full pattern statistics snapshot.
func (s *Store) SavePatternStats(ctx context.Context, stats []optimizer.PatternStats) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range stats {
			data, err := json.Marshal(&stats[i])
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(prefixPatternStats+stats[i].Pattern), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPatternStats reads every persisted pattern statistic.
func (s *Store) LoadPatternStats(ctx context.Context) ([]optimizer.PatternStats, error) {
	var out []optimizer.PatternStats
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixPatternStats)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var ps optimizer.PatternStats
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ps)
			}); err != nil {
				return err
			}
			out = append(out, ps)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats counts stored items by prefix.
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	stats := &storage.Stats{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			switch {
			case strings.HasPrefix(key, prefixConcept):
				stats.Concepts++
			case strings.HasPrefix(key, prefixSurfaceForm):
				stats.SurfaceForms++
			case strings.HasPrefix(key, prefixRule):
				stats.Rules++
			case strings.HasPrefix(key, prefixFeedback):
				stats.Feedback++
			case strings.HasPrefix(key, prefixPatternStats):
				stats.PatternStats++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func surfaceFormKey(conceptID, tokenizerID, language, text string) []byte {
	return []byte(prefixSurfaceForm + conceptID + ":" + tokenizerID + ":" + language + ":" + text)
}
