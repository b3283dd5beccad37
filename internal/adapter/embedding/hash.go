package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"loanrag/internal/adapter/analyzer"
	"loanrag/internal/domain"
	"loanrag/internal/port"
)

var _ port.Embedder = (*HashEmbedder)(nil)

const bigramWeight = 0.5

// HashEmbedder is an offline provider using the hashing trick over word
// unigrams and bigrams. Vectors are L2 normalized; text without tokens maps
// to the zero vector. Identical text always yields identical vectors.
type HashEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(2),
	}, nil
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	acc := make([]float64, e.dimension)

	tokens := e.tokenizer.Tokenize(text)
	for _, tok := range tokens {
		e.accumulate(acc, tok, 1)
	}
	for _, bg := range analyzer.Bigrams(tokens) {
		e.accumulate(acc, bg, bigramWeight)
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimension)
	if norm == 0 {
		return vec
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (e *HashEmbedder) accumulate(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := sum % uint64(e.dimension)
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}
