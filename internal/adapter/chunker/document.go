package chunker

import (
	"loanrag/internal/domain"
	"loanrag/internal/port"
)

// DocumentChunker turns a Document into chunks with ids local to the document.
type DocumentChunker struct {
	splitter port.Splitter
}

func NewDocumentChunker(splitter port.Splitter) *DocumentChunker {
	return &DocumentChunker{splitter: splitter}
}

func (c *DocumentChunker) Chunk(doc domain.Document) []domain.Chunk {
	texts := c.splitter.Split(doc.Details)
	if len(texts) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			LoanType: doc.LoanType,
			URL:      doc.URL,
			KeyInfo:  doc.KeyInfo,
			ChunkID:  domain.ChunkID(doc.LoanType, i+1),
			Content:  text,
		}
	}
	return chunks
}
