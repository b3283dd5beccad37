package embedding

import (
	"context"
	"fmt"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"loanrag/internal/domain"
	"loanrag/internal/port"
)

var _ port.Embedder = (*OpenAIEmbedder)(nil)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	defaultBatchSize     = 100
)

// OpenAIEmbedder calls any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	mu        sync.RWMutex
	dimension int
	request   int // dimensions sent with each request, 0 to use the model default
	batchSize int
}

func NewOpenAIEmbedder(apiKeyEnv, model string) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, DefaultOpenAIBaseURL)
}

func NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL string) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return newOpenAIEmbedder(apiKey, model, baseURL, openAIDimension(model)), nil
}

func NewOllamaEmbedder(model, baseURL string) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	return newOpenAIEmbedder("ollama", model, baseURL, ollamaDimension(model))
}

func newOpenAIEmbedder(apiKey, model, baseURL string, dimension int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
		batchSize: defaultBatchSize,
	}
}

// WithBatchSize caps the number of texts sent per request.
func (e *OpenAIEmbedder) WithBatchSize(n int) *OpenAIEmbedder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

// WithDimension asks the provider for shortened vectors. Only the
// text-embedding-3 family supports this.
func (e *OpenAIEmbedder) WithDimension(n int) *OpenAIEmbedder {
	if n > 0 {
		e.dimension = n
		e.request = n
	}
	return e
}

func openAIDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 0
	}
}

func ollamaDimension(model string) int {
	switch model {
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 0
	}
}

// Embed embeds texts in provider-sized batches. Any failed batch fails the
// whole call; partial results are never returned.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vecs...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.request,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrEmbeddingProvider, e.model, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d", domain.ErrEmbeddingProvider, len(texts), len(resp.Data))
	}

	dim := e.Dimension()
	if dim == 0 {
		dim = len(resp.Data[0].Embedding)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("%w: invalid embedding index %d", domain.ErrEmbeddingProvider, d.Index)
		}
		if len(d.Embedding) == 0 || len(d.Embedding) != dim {
			return nil, fmt.Errorf("%w: embedding has %d values, expected %d", domain.ErrEmbeddingProvider, len(d.Embedding), dim)
		}
		out[d.Index] = d.Embedding
	}

	e.mu.Lock()
	if e.dimension == 0 {
		e.dimension = dim
	}
	e.mu.Unlock()

	return out, nil
}

// Dimension returns the vector size, or 0 for an unknown model that has not
// answered a request yet.
func (e *OpenAIEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
