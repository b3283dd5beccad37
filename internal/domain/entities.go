package domain

import (
	"strconv"
	"strings"
	"time"
)

// Document is one loan product as produced by the collection step.
type Document struct {
	LoanType string `json:"loan_type"`
	URL      string `json:"url"`
	KeyInfo  string `json:"key_info"`
	Details  string `json:"details"`
}

// Chunk is a bounded slice of a Document's details.
type Chunk struct {
	LoanType string
	URL      string
	KeyInfo  string
	ChunkID  string
	Content  string
}

// Record returns the metadata record stored alongside the chunk's embedding.
func (c Chunk) Record() MetadataRecord {
	return MetadataRecord{
		LoanType: c.LoanType,
		URL:      c.URL,
		KeyInfo:  c.KeyInfo,
		ChunkID:  c.ChunkID,
		Content:  c.Content,
	}
}

// ChunkID builds the deterministic id of the seq-th (1-based) chunk of a loan type.
func ChunkID(loanType string, seq int) string {
	return strings.ReplaceAll(loanType, " ", "_") + "_chunk_" + strconv.Itoa(seq)
}

// MetadataRecord holds the non-vector fields of a chunk. Its position in the
// metadata store is the join key with the vector index.
type MetadataRecord struct {
	LoanType string `json:"loan_type"`
	URL      string `json:"url"`
	KeyInfo  string `json:"key_info"`
	ChunkID  string `json:"chunk_id"`
	Content  string `json:"content"`
}

// Hit is a raw nearest-neighbour match from the vector index.
type Hit struct {
	Position int
	Distance float32
}

// RankedResult is a search hit joined with its metadata.
type RankedResult struct {
	LoanType string  `json:"loan_type"`
	URL      string  `json:"url"`
	KeyInfo  string  `json:"key_info"`
	ChunkID  string  `json:"chunk_id"`
	Content  string  `json:"content"`
	Distance float64 `json:"distance"`
}

// Manifest describes one persisted build. It is written last and validated
// first, so a torn write of the index/metadata pair is always detected.
type Manifest struct {
	BuildID        string    `json:"build_id"`
	CreatedAt      time.Time `json:"created_at"`
	Count          int       `json:"count"`
	Dimension      int       `json:"dimension"`
	Model          string    `json:"model"`
	ConfigHash     string    `json:"config_hash"`
	IndexSHA256    string    `json:"index_sha256,omitempty"`
	MetadataSHA256 string    `json:"metadata_sha256,omitempty"`
}

// ChunkConfig controls how document details are split.
type ChunkConfig struct {
	MaxSize int
	Overlap int
}
