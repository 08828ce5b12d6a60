// Package config provides configuration management for tokentrim.
// It supports loading configuration from environment variables and config files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for tokentrim.
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Optimizer configuration
	Optimizer OptimizerConfig `mapstructure:"optimizer"`

	// Concept resolution configuration
	Concepts ConceptConfig `mapstructure:"concepts"`

	// Logging configuration
	Log LogConfig `mapstructure:"log"`

	// Security configuration
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort            int           `mapstructure:"http_port"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	CORSOrigins         []string      `mapstructure:"cors_origins"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// StorageConfig holds storage backend settings.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SyncWrites bool   `mapstructure:"sync_writes"`
}

// OptimizerConfig holds optimization pipeline settings.
type OptimizerConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	DefaultLanguage  string  `mapstructure:"default_language"`
	DefaultDirective string  `mapstructure:"default_directive"` // bracketed, instructive, xml, natural
	Tokenizer        string  `mapstructure:"tokenizer"`         // cl100k_base, claude, llama3
}

// ConceptConfig holds concept resolution settings.
type ConceptConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Resolution     string  `mapstructure:"resolution"` // exact_only, normalized, fuzzy
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	Selection      string  `mapstructure:"selection"` // min_tokens, same_language, allowed_languages, prefer_original_language
	Language       string  `mapstructure:"language"`
	CacheSize      int     `mapstructure:"cache_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, file path
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	APIKey       string `mapstructure:"api_key"`
	RateLimitRPS int    `mapstructure:"rate_limit_rps"`
}

// Default configuration values.
var defaults = map[string]interface{}{
	// Server defaults
	"server.http_port":             8080,
	"server.request_timeout":       "30s",
	"server.cors_origins":          []string{"*"},
	"server.shutdown_grace_period": "10s",

	// Storage defaults
	"storage.data_dir":    "./data",
	"storage.sync_writes": false,

	// Optimizer defaults
	"optimizer.default_threshold": 0.85,
	"optimizer.default_language":  "english",
	"optimizer.default_directive": "bracketed",
	"optimizer.tokenizer":         "cl100k_base",

	// Concept defaults
	"concepts.enabled":         true,
	"concepts.resolution":      "normalized",
	"concepts.fuzzy_threshold": 0.8,
	"concepts.selection":       "min_tokens",
	"concepts.language":        "english",
	"concepts.cache_size":      1000,

	// Log defaults
	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	// Security defaults
	"security.api_key":        "",
	"security.rate_limit_rps": 100,
}

// Load loads configuration from environment variables and optional config file.
// Environment variables are prefixed with TOKENTRIM_ and use underscores.
// Example: TOKENTRIM_SERVER_HTTP_PORT=8080
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Environment variables
	v.SetEnvPrefix("TOKENTRIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file (optional)
	v.SetConfigName("tokentrim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tokentrim")
	v.AddConfigPath("$HOME/.tokentrim")

	// It's okay if config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}

	if c.Optimizer.DefaultThreshold < 0 || c.Optimizer.DefaultThreshold > 1 {
		return fmt.Errorf("invalid default threshold: %f (must be in [0, 1])", c.Optimizer.DefaultThreshold)
	}
	validDirectives := map[string]bool{"bracketed": true, "instructive": true, "xml": true, "natural": true}
	if !validDirectives[c.Optimizer.DefaultDirective] {
		return fmt.Errorf("invalid directive format: %s (valid: bracketed, instructive, xml, natural)", c.Optimizer.DefaultDirective)
	}
	validTokenizers := map[string]bool{"cl100k_base": true, "claude": true, "llama3": true}
	if !validTokenizers[c.Optimizer.Tokenizer] {
		return fmt.Errorf("invalid tokenizer: %s (valid: cl100k_base, claude, llama3)", c.Optimizer.Tokenizer)
	}

	validResolutions := map[string]bool{"exact_only": true, "normalized": true, "fuzzy": true}
	if !validResolutions[c.Concepts.Resolution] {
		return fmt.Errorf("invalid resolution policy: %s (valid: exact_only, normalized, fuzzy)", c.Concepts.Resolution)
	}
	validSelections := map[string]bool{
		"min_tokens":               true,
		"same_language":            true,
		"allowed_languages":        true,
		"prefer_original_language": true,
	}
	if !validSelections[c.Concepts.Selection] {
		return fmt.Errorf("invalid selection policy: %s", c.Concepts.Selection)
	}
	if c.Concepts.FuzzyThreshold < 0 || c.Concepts.FuzzyThreshold > 1 {
		return fmt.Errorf("invalid fuzzy threshold: %f (must be in [0, 1])", c.Concepts.FuzzyThreshold)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Log.Format)
	}

	if c.Security.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit cannot be negative: %d", c.Security.RateLimitRPS)
	}

	return nil
}
