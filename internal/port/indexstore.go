package port

import (
	"context"

	"loanrag/internal/domain"
)

// Artifacts is a built vector index with its positionally aligned metadata.
type Artifacts struct {
	Manifest *domain.Manifest
	Index    []byte
	Metadata []byte
}

// ArtifactStore persists and loads the index/metadata pair as one unit.
type ArtifactStore interface {
	// Save replaces any previous build. A failed Save never leaves a
	// loadable mix of old and new artifacts.
	Save(ctx context.Context, a *Artifacts) error

	// Load returns the last saved build after verifying it is complete.
	Load(ctx context.Context) (*Artifacts, error)

	Close() error
}
