package port

import (
	"context"

	"loanrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex stores embeddings by position and answers exact k-NN queries.
// Replacements (tree or graph based) must keep ascending-distance order,
// position tie-break and the dimension check.
type VectorIndex interface {
	// Add appends vectors; positions are assigned in order starting at Count().
	Add(vectors [][]float32) error

	// Search returns up to k hits sorted by ascending distance.
	Search(query []float32, k int) ([]domain.Hit, error)

	// Count returns the number of stored vectors.
	Count() int

	// Dimension returns the vector dimension, or 0 when empty.
	Dimension() int
}
