package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loanrag/internal/adapter/index"
	"loanrag/internal/adapter/metadata"
	"loanrag/internal/adapter/store"
	"loanrag/internal/domain"
	"loanrag/internal/port"
)

const defaultBatchSize = 100

// ProgressFunc is called after each embedding batch with the number of
// chunks embedded so far.
type ProgressFunc func(done, total int)

// BuildUseCase turns documents into an aligned vector index and metadata store.
type BuildUseCase struct {
	chunker   port.Chunker
	embedder  port.Embedder
	batchSize int
	logger    *slog.Logger
}

// NewBuildUseCase creates a new build use case.
func NewBuildUseCase(chunker port.Chunker, embedder port.Embedder, batchSize int, logger *slog.Logger) *BuildUseCase {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildUseCase{
		chunker:   chunker,
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// BuildReport summarizes a build.
type BuildReport struct {
	Documents      int
	EmptyDocuments []string
	Chunks         int
	Batches        int
	Dimension      int
	Model          string
	Duration       time.Duration
}

// BuildResult is an in-memory build, not yet persisted.
type BuildResult struct {
	Index    *index.FlatL2
	Metadata *metadata.Store
	Report   BuildReport
}

// Build chunks every document in order, embeds all chunk texts and appends
// each vector together with its metadata record. Any failure discards the
// whole build.
func (u *BuildUseCase) Build(ctx context.Context, docs []domain.Document, progress ProgressFunc) (*BuildResult, error) {
	start := time.Now()
	report := BuildReport{Documents: len(docs), Model: u.embedder.ModelName()}

	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks := u.chunker.Chunk(doc)
		if len(docChunks) == 0 {
			u.logger.Warn("document produced no chunks", "loan_type", doc.LoanType)
			report.EmptyDocuments = append(report.EmptyDocuments, doc.LoanType)
			continue
		}
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrInvalidInput)
	}
	u.logger.Info("chunked documents", "documents", len(docs), "chunks", len(chunks))

	vectors, batches, err := u.embedAll(ctx, chunks, progress)
	if err != nil {
		return nil, err
	}

	idx := index.NewFlatL2()
	meta := metadata.NewStore()
	for i, chunk := range chunks {
		if err := idx.Add(vectors[i : i+1]); err != nil {
			return nil, fmt.Errorf("failed to add vector for %s: %w", chunk.ChunkID, err)
		}
		meta.Append(chunk.Record())
	}

	if idx.Count() != meta.Len() {
		return nil, fmt.Errorf("%w: index has %d vectors, metadata has %d records",
			domain.ErrIndexUnavailable, idx.Count(), meta.Len())
	}

	report.Chunks = idx.Count()
	report.Batches = batches
	report.Dimension = idx.Dimension()
	report.Duration = time.Since(start)

	u.logger.Info("built index",
		"chunks", report.Chunks,
		"dimension", report.Dimension,
		"model", report.Model,
		"duration", report.Duration)

	return &BuildResult{Index: idx, Metadata: meta, Report: report}, nil
}

// embedAll embeds chunk contents in batches and checks that every batch
// returned one vector per text, all of the same dimension.
func (u *BuildUseCase) embedAll(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([][]float32, int, error) {
	total := len(chunks)
	vectors := make([][]float32, 0, total)
	dim := 0
	batches := 0

	for start := 0; start < total; start += u.batchSize {
		end := start + u.batchSize
		if end > total {
			end = total
		}

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Content
		}

		batch, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, asProviderError(err))
		}
		if len(batch) != len(texts) {
			return nil, 0, fmt.Errorf("%w: requested %d embeddings, got %d",
				domain.ErrEmbeddingProvider, len(texts), len(batch))
		}
		for i, v := range batch {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) == 0 || len(v) != dim {
				return nil, 0, fmt.Errorf("%w: embedding for %s has dimension %d, expected %d",
					domain.ErrDimensionMismatch, chunks[start+i].ChunkID, len(v), dim)
			}
		}

		vectors = append(vectors, batch...)
		batches++
		u.logger.Debug("embedded batch", "from", start, "to", end, "total", total)
		if progress != nil {
			progress(end, total)
		}
	}

	return vectors, batches, nil
}

// BuildAndSave builds the index and persists it as one unit. Nothing is
// written unless the build succeeds.
func (u *BuildUseCase) BuildAndSave(ctx context.Context, st port.ArtifactStore, docs []domain.Document, configHash string, progress ProgressFunc) (*BuildResult, *domain.Manifest, error) {
	result, err := u.Build(ctx, docs, progress)
	if err != nil {
		return nil, nil, err
	}

	indexBytes, err := result.Index.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode index: %w", err)
	}
	metaBytes, err := result.Metadata.Encode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	manifest := store.NewManifest(result.Index.Count(), result.Index.Dimension(), result.Report.Model, configHash)
	artifacts := &port.Artifacts{
		Manifest: manifest,
		Index:    indexBytes,
		Metadata: metaBytes,
	}
	if err := st.Save(ctx, artifacts); err != nil {
		return nil, nil, fmt.Errorf("failed to save index: %w", err)
	}

	u.logger.Info("saved index", "build_id", manifest.BuildID, "count", manifest.Count)
	return result, manifest, nil
}
