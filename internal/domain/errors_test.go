package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrInvalidInput,
		ErrMalformedBlock,
		ErrDimensionMismatch,
		ErrOutOfRange,
		ErrEmbeddingProvider,
		ErrIndexUnavailable,
	}
	for i, a := range all {
		assert.NotEmpty(t, a.Error())
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestErrors_Wrapped(t *testing.T) {
	err := fmt.Errorf("search: %w", ErrDimensionMismatch)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.False(t, errors.Is(err, ErrOutOfRange))
}

func TestChunkID(t *testing.T) {
	tests := []struct {
		loanType string
		seq      int
		want     string
	}{
		{"Home Loan", 1, "Home_Loan_chunk_1"},
		{"Top-Up Home Loan", 12, "Top-Up_Home_Loan_chunk_12"},
		{"A", 1, "A_chunk_1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChunkID(tt.loanType, tt.seq))
	}
}

func TestChunkRecord(t *testing.T) {
	c := Chunk{LoanType: "Home Loan", URL: "u", KeyInfo: "k", ChunkID: "Home_Loan_chunk_1", Content: "text"}
	r := c.Record()
	assert.Equal(t, MetadataRecord{LoanType: "Home Loan", URL: "u", KeyInfo: "k", ChunkID: "Home_Loan_chunk_1", Content: "text"}, r)
}
