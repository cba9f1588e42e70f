package embedder

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvProvider selects the embedding provider explicitly
const EnvProvider = "PATTERNRANK_EMBEDDING_PROVIDER"

// Config holds embedder configuration
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

func (c Config) options() Options {
	return Options{
		BaseURL:           c.BaseURL,
		Model:             c.Model,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. PATTERNRANK_EMBEDDING_PROVIDER (jina, openai, local)
// 2. Check for API keys: JINA_API_KEY, OPENAI_API_KEY
// 3. Default to local if no API keys found
func NewFromEnv() (Embedder, error) {
	return New(Config{Provider: DetectProvider()})
}

// New creates an embedder with explicit configuration. Hosted providers
// without an API key fail here rather than on the first request.
func New(cfg Config) (Embedder, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = DetectProvider()
	}

	switch provider {
	case ProviderJina:
		return NewJinaProvider(cfg.APIKey, cfg.options())
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.options())
	case ProviderLocal:
		return NewLocalProvider()
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderLocal
}
