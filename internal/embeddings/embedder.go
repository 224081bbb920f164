// Package embeddings provides embedding providers: an OpenAI-compatible
// API client and a deterministic local fallback.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultDimensions matches small sentence-transformer models and the
// SimpleEmbedder output size
const DefaultDimensions = 384

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder builds an embedder for any OpenAI-compatible
// provider. An empty baseURL uses the default OpenAI endpoint.
func NewOpenAIEmbedder(baseURL, apiKey, model string, dimensions int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}
}

// Embed generates a vector for a single text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the vector size
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// SimpleEmbedder is a deterministic, hash-based embedding provider for
// tests and offline use. Similar texts do not get similar vectors; it
// only guarantees stable, unit-length output.
type SimpleEmbedder struct {
	dimensions int
}

// NewSimpleEmbedder creates a hash-based embedder
func NewSimpleEmbedder(dimensions int) *SimpleEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &SimpleEmbedder{dimensions: dimensions}
}

// Embed generates a deterministic embedding from text
func (e *SimpleEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	embedding := make([]float32, e.dimensions)
	if text == "" {
		return embedding, nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	for i := range embedding {
		// Linear congruential step keyed on the text hash.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return normalize(embedding), nil
}

// Dimensions returns the vector size
func (e *SimpleEmbedder) Dimensions() int {
	return e.dimensions
}

// normalize scales a vector to unit length
func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v * scale
	}
	return out
}

// Provider names accepted by New
const (
	ProviderSimple = "simple"
	ProviderOpenAI = "openai"
)

// Embedder is the provider-side contract, matching the engine's
// consumer interface
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// New creates an embedder by provider name
func New(provider, baseURL, apiKey, model string, dimensions int) (Embedder, error) {
	switch strings.ToLower(provider) {
	case ProviderSimple, "local", "":
		return NewSimpleEmbedder(dimensions), nil
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, errors.New("embedding API key required")
		}
		return NewOpenAIEmbedder(baseURL, apiKey, model, dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", provider)
	}
}
