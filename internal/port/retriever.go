package port

import (
	"context"

	"loanrag/internal/domain"
)

// Retriever answers a query with ranked, metadata-joined results.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RankedResult, error)
}
