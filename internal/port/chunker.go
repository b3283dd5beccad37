package port

import "loanrag/internal/domain"

// Splitter divides text into overlapping windows.
type Splitter interface {
	Split(text string) []string
}

type Chunker interface {
	Chunk(doc domain.Document) []domain.Chunk
}
