// Package config loads patternrank settings from an optional YAML file,
// PATTERNRANK_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dshills/patternrank/internal/embedder"
	"github.com/dshills/patternrank/internal/fusion"
	"github.com/dshills/patternrank/internal/lexical"
	"github.com/dshills/patternrank/internal/searcher"
	"github.com/dshills/patternrank/internal/semantic"
)

const (
	// FileName is the config file name searched for without extension
	FileName = "patternrank"
	// EnvPrefix prefixes every environment override, e.g. PATTERNRANK_TOP_K
	EnvPrefix = "PATTERNRANK"

	DefaultCorpusPath = "patterns.yaml"
	DefaultCollection = "ui_patterns"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMissingAPIKey is returned when a hosted embedding provider is
	// selected but no key is configured
	ErrMissingAPIKey = errors.New("embedding provider requires an API key")
)

// Config is the full runtime configuration
type Config struct {
	CorpusPath string          `mapstructure:"corpus_path"`
	DBPath     string          `mapstructure:"db_path"`
	Collection string          `mapstructure:"collection"`
	TopK       int             `mapstructure:"top_k"`
	Mode       string          `mapstructure:"mode"`
	Policy     string          `mapstructure:"policy"`
	Weights    WeightsConfig   `mapstructure:"weights"`
	BM25       BM25Config      `mapstructure:"bm25"`
	Embedding  EmbeddingConfig `mapstructure:"embedding"`
	Vector     VectorConfig    `mapstructure:"vector"`
	Semantic   SemanticConfig  `mapstructure:"semantic"`
}

// WeightsConfig holds the fusion weights
type WeightsConfig struct {
	Lexical  float64 `mapstructure:"lexical"`
	Semantic float64 `mapstructure:"semantic"`
}

// BM25Config holds the lexical ranking parameters
type BM25Config struct {
	K1 float64 `mapstructure:"k1"`
	B  float64 `mapstructure:"b"`
}

// EmbeddingConfig selects and tunes the embedding provider
type EmbeddingConfig struct {
	Provider          string        `mapstructure:"provider"` // jina, openai, local; empty auto-detects
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// VectorConfig tunes the vector index client
type VectorConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// SemanticConfig switches the semantic retriever on or off
type SemanticConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultDBPath returns ~/.patternrank/index.db, or a relative path when
// the home directory is unknown
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".patternrank", "index.db")
	}
	return filepath.Join(home, ".patternrank", "index.db")
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("corpus_path", DefaultCorpusPath)
	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("collection", DefaultCollection)
	v.SetDefault("top_k", searcher.DefaultLimit)
	v.SetDefault("mode", string(searcher.ModeHybrid))
	v.SetDefault("policy", string(searcher.PolicyDegrade))
	v.SetDefault("weights.lexical", fusion.DefaultLexicalWeight)
	v.SetDefault("weights.semantic", fusion.DefaultSemanticWeight)
	v.SetDefault("bm25.k1", lexical.DefaultK1)
	v.SetDefault("bm25.b", lexical.DefaultB)
	v.SetDefault("embedding.provider", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.timeout", semantic.DefaultEmbedTimeout)
	v.SetDefault("embedding.requests_per_second", 0.0)
	v.SetDefault("embedding.burst", 1)
	v.SetDefault("vector.timeout", semantic.DefaultSearchTimeout)
	v.SetDefault("semantic.enabled", true)
}

// NewViper returns a viper instance with defaults and environment binding.
// When path is empty patternrank.yaml is searched for in the working
// directory and in ~/.config/patternrank; a missing file is not an error.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

// Load reads the configuration from path (optional) and the environment
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection must not be empty", ErrInvalidConfig)
	}
	if c.TopK <= 0 || c.TopK > searcher.MaxLimit {
		return fmt.Errorf("%w: top_k must be in [1, %d], got %d", ErrInvalidConfig, searcher.MaxLimit, c.TopK)
	}

	switch searcher.Mode(c.Mode) {
	case searcher.ModeHybrid, searcher.ModeLexical, searcher.ModeSemantic:
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidConfig, c.Mode)
	}
	switch searcher.Policy(c.Policy) {
	case searcher.PolicyDegrade, searcher.PolicyRequireHybrid:
	default:
		return fmt.Errorf("%w: policy %q", ErrInvalidConfig, c.Policy)
	}

	if _, err := c.Fusion(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.BM25.K1 <= 0 {
		return fmt.Errorf("%w: bm25.k1 must be positive", ErrInvalidConfig)
	}
	if c.BM25.B < 0 || c.BM25.B > 1 {
		return fmt.Errorf("%w: bm25.b must be in [0, 1]", ErrInvalidConfig)
	}

	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("%w: embedding.timeout must be positive", ErrInvalidConfig)
	}
	if c.Vector.Timeout <= 0 {
		return fmt.Errorf("%w: vector.timeout must be positive", ErrInvalidConfig)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedding.requests_per_second must not be negative", ErrInvalidConfig)
	}

	if c.Semantic.Enabled {
		return c.validateProvider()
	}
	return nil
}

// validateProvider rejects a hosted provider without credentials instead
// of silently running lexical only
func (c *Config) validateProvider() error {
	provider := strings.ToLower(c.Embedding.Provider)
	var envKey string
	switch provider {
	case "":
		return nil
	case embedder.ProviderLocal:
		return nil
	case embedder.ProviderJina:
		envKey = embedder.EnvJinaAPIKey
	case embedder.ProviderOpenAI:
		envKey = embedder.EnvOpenAIAPIKey
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}

	if c.Embedding.APIKey == "" && os.Getenv(envKey) == "" {
		return fmt.Errorf("%w: set embedding.api_key or %s for provider %s", ErrMissingAPIKey, envKey, provider)
	}
	return nil
}

// Fusion builds the score fusion from the configured weights
func (c *Config) Fusion() (*fusion.Fusion, error) {
	return fusion.New(c.Weights.Lexical, c.Weights.Semantic)
}

// LexicalOptions returns the BM25 options for the configured parameters
func (c *Config) LexicalOptions() []lexical.Option {
	return []lexical.Option{lexical.WithParams(c.BM25.K1, c.BM25.B)}
}

// EmbedderConfig returns the embedding provider settings
func (c *Config) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:          c.Embedding.Provider,
		APIKey:            c.Embedding.APIKey,
		Model:             c.Embedding.Model,
		BaseURL:           c.Embedding.BaseURL,
		Timeout:           c.Embedding.Timeout,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
		Burst:             c.Embedding.Burst,
	}
}

// SemanticOptions returns the retriever timeouts
func (c *Config) SemanticOptions() []semantic.Option {
	return []semantic.Option{
		semantic.WithEmbedTimeout(c.Embedding.Timeout),
		semantic.WithSearchTimeout(c.Vector.Timeout),
	}
}

// SearcherConfig returns the request defaults
func (c *Config) SearcherConfig() searcher.Config {
	return searcher.Config{
		DefaultLimit: c.TopK,
		MaxLimit:     searcher.MaxLimit,
		Mode:         searcher.Mode(c.Mode),
		Policy:       searcher.Policy(c.Policy),
	}
}
