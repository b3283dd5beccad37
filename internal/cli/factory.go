package cli

import (
	"fmt"
	"path/filepath"

	"loanrag/config"
	"loanrag/internal/adapter/embedding"
	"loanrag/internal/adapter/store"
	"loanrag/internal/port"
)

// BoltFile is the database name used by the bolt storage backend.
const BoltFile = "index.db"

// NewEmbedder creates the embedding provider named in cfg.
func NewEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding

	switch e.Provider {
	case "hash":
		emb, err := embedding.NewHashEmbedder(e.Dimension)
		if err != nil {
			return nil, err
		}
		return emb, nil
	case "openai":
		var (
			emb *embedding.OpenAIEmbedder
			err error
		)
		if e.BaseURL != "" {
			emb, err = embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL)
		} else {
			emb, err = embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model)
		}
		if err != nil {
			return nil, err
		}
		return emb.WithBatchSize(e.BatchSize), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL).WithBatchSize(e.BatchSize), nil
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
}

// OpenStore opens the artifact store configured for root.
func OpenStore(cfg *config.Config, root string) (port.ArtifactStore, error) {
	dir := cfg.ArtifactDir(root)
	if err := config.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	switch cfg.Storage.Backend {
	case config.BackendFiles:
		return store.NewFileStore(dir), nil
	case config.BackendBolt:
		return store.NewBoltStore(filepath.Join(dir, BoltFile))
	}
	return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
}
