package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownGracePeriod)

	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.False(t, cfg.Storage.SyncWrites)

	assert.InDelta(t, 0.85, cfg.Optimizer.DefaultThreshold, 1e-9)
	assert.Equal(t, "english", cfg.Optimizer.DefaultLanguage)
	assert.Equal(t, "bracketed", cfg.Optimizer.DefaultDirective)
	assert.Equal(t, "cl100k_base", cfg.Optimizer.Tokenizer)

	assert.True(t, cfg.Concepts.Enabled)
	assert.Equal(t, "normalized", cfg.Concepts.Resolution)
	assert.InDelta(t, 0.8, cfg.Concepts.FuzzyThreshold, 1e-9)
	assert.Equal(t, "min_tokens", cfg.Concepts.Selection)
	assert.Equal(t, 1000, cfg.Concepts.CacheSize)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "stdout", cfg.Log.Output)

	assert.Empty(t, cfg.Security.APIKey)
	assert.Equal(t, 100, cfg.Security.RateLimitRPS)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TOKENTRIM_SERVER_HTTP_PORT", "9090")
	t.Setenv("TOKENTRIM_OPTIMIZER_TOKENIZER", "llama3")
	t.Setenv("TOKENTRIM_LOG_LEVEL", "debug")
	t.Setenv("TOKENTRIM_SECURITY_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "llama3", cfg.Optimizer.Tokenizer)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "secret", cfg.Security.APIKey)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("TOKENTRIM_OPTIMIZER_TOKENIZER", "gpt2")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tokenizer")
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{HTTPPort: 8080},
		Storage: StorageConfig{DataDir: "./data"},
		Optimizer: OptimizerConfig{
			DefaultThreshold: 0.85,
			DefaultLanguage:  "english",
			DefaultDirective: "bracketed",
			Tokenizer:        "cl100k_base",
		},
		Concepts: ConceptConfig{
			Resolution:     "normalized",
			Selection:      "min_tokens",
			FuzzyThreshold: 0.8,
		},
		Log:      LogConfig{Level: "info", Format: "console", Output: "stdout"},
		Security: SecurityConfig{RateLimitRPS: 100},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"port too high", func(c *Config) { c.Server.HTTPPort = 70000 }, "invalid HTTP port"},
		{"missing data dir", func(c *Config) { c.Storage.DataDir = "" }, "data directory is required"},
		{"threshold out of range", func(c *Config) { c.Optimizer.DefaultThreshold = 1.5 }, "invalid default threshold"},
		{"bad directive", func(c *Config) { c.Optimizer.DefaultDirective = "loud" }, "invalid directive format"},
		{"bad tokenizer", func(c *Config) { c.Optimizer.Tokenizer = "gpt2" }, "invalid tokenizer"},
		{"bad resolution", func(c *Config) { c.Concepts.Resolution = "psychic" }, "invalid resolution policy"},
		{"bad selection", func(c *Config) { c.Concepts.Selection = "random" }, "invalid selection policy"},
		{"fuzzy threshold out of range", func(c *Config) { c.Concepts.FuzzyThreshold = -0.1 }, "invalid fuzzy threshold"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"negative rate limit", func(c *Config) { c.Security.RateLimitRPS = -1 }, "rate limit cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
