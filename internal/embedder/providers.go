package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"golang.org/x/time/rate"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "local-hashing"

	// Default endpoints
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// MaxBatchSize caps the texts sent in one request
	MaxBatchSize = 100

	// DefaultTimeout bounds a single HTTP round trip
	DefaultTimeout = 30 * time.Second

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// Environment variables holding provider API keys
const (
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Options tunes a hosted provider. Zero values select defaults.
type Options struct {
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64 // Client-side throttle; 0 disables it
	Burst             int
	Retry             *RetryConfig
}

// apiClient is the HTTP transport shared by the hosted providers. Jina and
// OpenAI speak the same embeddings wire format.
type apiClient struct {
	provider   string
	apiKey     string
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryConfig
}

func newAPIClient(provider, apiKey, envKey, defaultBaseURL, defaultModel string, dimension int, opts Options) (*apiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv(envKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, envKey)
	}

	c := &apiClient{
		provider:  provider,
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		model:     opts.Model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		retry: DefaultRetryConfig(),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = DefaultTimeout
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return c, nil
}

func (c *apiClient) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	// Use batch API for consistency
	resp, err := c.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}

	return resp.Embeddings[0], nil
}

func (c *apiClient) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	embeddings, err := retryWithBackoff(ctx, c.retry, func() ([]*Embedding, error) {
		return c.callAPI(ctx, req.Texts, model)
	})
	if err != nil {
		if !errors.Is(err, ErrProviderFailed) {
			err = fmt.Errorf("%w: %w", ErrProviderFailed, err)
		}
		return nil, fmt.Errorf("%s embeddings: %w", c.provider, err)
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   c.provider,
		Model:      model,
	}, nil
}

func (c *apiClient) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqBody := map[string]interface{}{
		"input": texts,
		"model": model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: api call: %v", ErrProviderFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(resp.StatusCode, bodyBytes)
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProviderFailed, err)
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProviderFailed, len(apiResp.Data), len(texts))
	}

	embeddings := make([]*Embedding, len(texts))
	for i, data := range apiResp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(texts) || embeddings[idx] != nil {
			idx = i
		}
		embeddings[idx] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  c.provider,
			Model:     apiResp.Model,
		}
	}

	return embeddings, nil
}

// classifyStatus maps a non-200 provider response onto the error taxonomy
func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuth, status, string(body))
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", ErrRateLimited, status, string(body))
	default:
		return fmt.Errorf("%w: api error %d: %s", ErrProviderFailed, status, string(body))
	}
}

func (c *apiClient) Dimension() int {
	return c.dimension
}

func (c *apiClient) Provider() string {
	return c.provider
}

func (c *apiClient) Model() string {
	return c.model
}

func (c *apiClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// JinaProvider implements Embedder using Jina AI API
type JinaProvider struct {
	*apiClient
}

// NewJinaProvider creates a new Jina AI embedder. An empty apiKey falls back
// to the JINA_API_KEY environment variable.
func NewJinaProvider(apiKey string, opts Options) (*JinaProvider, error) {
	c, err := newAPIClient(ProviderJina, apiKey, EnvJinaAPIKey, DefaultJinaBaseURL, DefaultJinaModel, JinaDimension, opts)
	if err != nil {
		return nil, err
	}
	return &JinaProvider{apiClient: c}, nil
}

// OpenAIProvider implements Embedder using OpenAI API
type OpenAIProvider struct {
	*apiClient
}

// NewOpenAIProvider creates a new OpenAI embedder. An empty apiKey falls
// back to the OPENAI_API_KEY environment variable.
func NewOpenAIProvider(apiKey string, opts Options) (*OpenAIProvider, error) {
	c, err := newAPIClient(ProviderOpenAI, apiKey, EnvOpenAIAPIKey, DefaultOpenAIBaseURL, DefaultOpenAIModel, OpenAIDimension, opts)
	if err != nil {
		return nil, err
	}
	return &OpenAIProvider{apiClient: c}, nil
}

// LocalProvider is an offline embedder based on feature hashing: each
// lowercase word is hashed into one of LocalDimension buckets and the vector
// is L2-normalized. Texts sharing vocabulary get a high cosine similarity,
// which is enough for development and tests without network access.
type LocalProvider struct {
	model     string
	dimension int
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider() (*LocalProvider, error) {
	return &LocalProvider{
		model:     DefaultLocalModel,
		dimension: LocalDimension,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, l.dimension)
	words := strings.FieldsFunc(strings.ToLower(req.Text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vector[h.Sum32()%uint32(l.dimension)] += 1
	}

	return &Embedding{
		Vector:    NormalizeVector(vector),
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     l.model,
	}, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

// NormalizeVector normalizes a vector to unit length (for cosine similarity)
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}

	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}

	return result
}
