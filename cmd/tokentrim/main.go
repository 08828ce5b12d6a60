// Package main provides the entry point for the tokentrim server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tokentrim/tokentrim/internal/concept"
	"github.com/tokentrim/tokentrim/internal/config"
	"github.com/tokentrim/tokentrim/internal/metrics"
	"github.com/tokentrim/tokentrim/internal/optimizer"
	"github.com/tokentrim/tokentrim/internal/server"
	"github.com/tokentrim/tokentrim/internal/storage"
	"github.com/tokentrim/tokentrim/internal/storage/badger"
	"github.com/tokentrim/tokentrim/internal/tokenizer"
)

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting tokentrim",
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("build_time", BuildTime),
	)

	store, err := badger.New(&badger.Options{
		DataDir:    cfg.Storage.DataDir,
		SyncWrites: cfg.Storage.SyncWrites,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		logger.Info("closing storage")
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()

	logger.Info("storage initialized",
		zap.String("data_dir", cfg.Storage.DataDir),
	)

	counter, err := tokenizer.NewRegistry().Get(tokenizer.ID(cfg.Optimizer.Tokenizer))
	if err != nil {
		return fmt.Errorf("failed to resolve tokenizer: %w", err)
	}

	m := metrics.New("tokentrim")

	engine, err := buildEngine(cfg, store, counter, m, logger)
	if err != nil {
		return err
	}
	srv := server.New(cfg, store, engine, m, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Persist the pattern statistics accumulated this run.
	if err := store.SavePatternStats(ctx, engine.Corpus().Snapshot()); err != nil {
		logger.Error("failed to persist pattern stats", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
	return nil
}

// buildEngine hydrates the corpus and rule registry from the store and wires
// the optional concept substitution source.
func buildEngine(cfg *config.Config, store storage.Store, counter optimizer.TokenCounter, m *metrics.Metrics, logger *zap.Logger) (*optimizer.Engine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	corpus := optimizer.NewCorpus()
	stats, err := store.LoadPatternStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern stats: %w", err)
	}
	for _, s := range stats {
		corpus.Seed(s)
	}

	registry := optimizer.DefaultRegistry()
	records, err := store.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	extra := make([]optimizer.Rule, 0, len(records))
	for _, rec := range records {
		extra = append(extra, optimizer.Rule{
			ID:             rec.ID,
			Category:       rec.Category,
			Pattern:        rec.Pattern,
			Replacement:    rec.Replacement,
			BaseConfidence: rec.EffectiveConfidence(),
			Reasoning:      rec.Reasoning,
		})
	}
	registry.Extend(extra, logger)
	logger.Info("rule registry loaded",
		zap.Int("builtin_and_stored_rules", registry.Len()),
		zap.Int("pattern_stats", len(stats)),
	)

	opts := []optimizer.EngineOption{optimizer.WithRegistry(registry)}
	if cfg.Concepts.Enabled {
		resolver := concept.NewResolver(conceptLookup{store: store}, cfg.Concepts.CacheSize, logger,
			concept.WithResolutionMetrics(m))
		source := concept.NewSource(
			resolver,
			store,
			counter,
			cfg.Optimizer.Tokenizer,
			concept.ResolutionPolicy{
				Mode:           concept.ResolutionMode(cfg.Concepts.Resolution),
				FuzzyThreshold: cfg.Concepts.FuzzyThreshold,
			},
			concept.SelectionPolicy{
				Mode:     concept.SelectionMode(cfg.Concepts.Selection),
				Language: cfg.Concepts.Language,
			},
			logger,
		)
		opts = append(opts, optimizer.WithConceptSource(source))
	}

	return optimizer.NewEngine(counter, corpus, logger, opts...), nil
}

// conceptLookup adapts the store's not-found error to the resolver's
// nil-on-miss contract.
type conceptLookup struct {
	store storage.Store
}

func (l conceptLookup) FindConceptByLabel(ctx context.Context, label string) (*concept.Concept, error) {
	c, err := l.store.FindConceptByLabel(ctx, label)
	if err != nil {
		var notFound *storage.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Log.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Log.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}
