package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"loanrag/internal/adapter/cache"
	"loanrag/internal/adapter/index"
	"loanrag/internal/adapter/metadata"
	"loanrag/internal/domain"
	"loanrag/internal/port"
)

var _ port.Retriever = (*Retriever)(nil)

// Snapshot is a loaded build. It is never mutated after OpenSnapshot returns,
// so any number of goroutines may search it.
type Snapshot struct {
	Index    *index.FlatL2
	Metadata *metadata.Store
	Manifest *domain.Manifest
}

// OpenSnapshot loads the last build from st and checks that the index and
// metadata line up with each other and with the manifest.
func OpenSnapshot(ctx context.Context, st port.ArtifactStore) (*Snapshot, error) {
	a, err := st.Load(ctx)
	if err != nil {
		return nil, unavailable(err)
	}

	idx, err := index.Decode(a.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: index: %v", domain.ErrIndexUnavailable, err)
	}
	meta, err := metadata.Decode(a.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", domain.ErrIndexUnavailable, err)
	}

	return NewSnapshot(idx, meta, a.Manifest)
}

// NewSnapshot wraps an in-memory build. manifest may be nil.
func NewSnapshot(idx *index.FlatL2, meta *metadata.Store, manifest *domain.Manifest) (*Snapshot, error) {
	if idx == nil || meta == nil {
		return nil, fmt.Errorf("%w: missing index or metadata", domain.ErrIndexUnavailable)
	}
	if meta.Len() != idx.Count() {
		return nil, fmt.Errorf("%w: index has %d vectors, metadata has %d records",
			domain.ErrIndexUnavailable, idx.Count(), meta.Len())
	}
	if manifest != nil {
		if manifest.Count != idx.Count() {
			return nil, fmt.Errorf("%w: manifest count %d, index count %d",
				domain.ErrIndexUnavailable, manifest.Count, idx.Count())
		}
		if manifest.Dimension != idx.Dimension() {
			return nil, fmt.Errorf("%w: manifest dimension %d, index dimension %d",
				domain.ErrIndexUnavailable, manifest.Dimension, idx.Dimension())
		}
	}
	return &Snapshot{Index: idx, Metadata: meta, Manifest: manifest}, nil
}

// BuildID returns the id of the persisted build, or "" for in-memory builds.
func (s *Snapshot) BuildID() string {
	if s == nil || s.Manifest == nil {
		return ""
	}
	return s.Manifest.BuildID
}

// Retriever embeds a query, searches the snapshot and joins the hits with
// their metadata.
type Retriever struct {
	snapshot *Snapshot
	embedder port.Embedder
	cache    *cache.QueryCache
	logger   *slog.Logger
}

// NewRetriever creates a retriever over snapshot. A nil snapshot yields a
// retriever that fails every call with ErrIndexUnavailable.
func NewRetriever(snapshot *Snapshot, embedder port.Embedder, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{snapshot: snapshot, embedder: embedder, logger: logger}
}

// WithCache enables result caching for the current snapshot.
func (r *Retriever) WithCache(c *cache.QueryCache) *Retriever {
	if c != nil {
		c.SetBuild(r.snapshot.BuildID())
	}
	r.cache = c
	return r
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RankedResult, error) {
	if r.snapshot == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidInput, k)
	}

	if r.cache != nil {
		if results, ok := r.cache.Get(query, k); ok {
			r.logger.Debug("query cache hit", "query", query, "k", k)
			return results, nil
		}
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", asProviderError(err))
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: requested 1 embedding, got %d", domain.ErrEmbeddingProvider, len(vectors))
	}

	hits, err := r.snapshot.Index.Search(vectors[0], k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RankedResult, 0, len(hits))
	for _, h := range hits {
		rec, err := r.snapshot.Metadata.Get(h.Position)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.RankedResult{
			LoanType: rec.LoanType,
			URL:      rec.URL,
			KeyInfo:  rec.KeyInfo,
			ChunkID:  rec.ChunkID,
			Content:  rec.Content,
			Distance: float64(h.Distance),
		})
	}

	if r.cache != nil {
		r.cache.Put(query, k, results)
	}
	return results, nil
}

// FormatContext renders results as the context block handed to answer
// generation.
func FormatContext(results []domain.RankedResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Loan Type: %s\nKey Info: %s\nContent: %s", r.LoanType, r.KeyInfo, r.Content)
	}
	return strings.Join(parts, "\n\n")
}

func unavailable(err error) error {
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
}

func asProviderError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProvider) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
}
