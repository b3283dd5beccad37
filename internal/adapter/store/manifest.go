package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"loanrag/config"
	"loanrag/internal/domain"
	"loanrag/internal/port"
)

// NewManifest stamps a new build.
func NewManifest(count, dimension int, model, configHash string) *domain.Manifest {
	return &domain.Manifest{
		BuildID:    uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Count:      count,
		Dimension:  dimension,
		Model:      model,
		ConfigHash: configHash,
	}
}

// ComputeConfigHash computes a hash of the configuration that shapes an index.
// A different hash means the stored build no longer matches the config.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		MaxSize   int    `json:"max_size"`
		Overlap   int    `json:"overlap"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
		Dimension int    `json:"dimension"`
	}{
		MaxSize:   cfg.Chunk.MaxSize,
		Overlap:   cfg.Chunk.Overlap,
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// CheckCompatibility reports whether a stored build was produced with cfg.
func CheckCompatibility(m *domain.Manifest, cfg *config.Config) (bool, string) {
	if m == nil {
		return false, "build has no manifest"
	}
	if m.ConfigHash != ComputeConfigHash(cfg) {
		return false, fmt.Sprintf("index was built with a different chunk/embedding configuration (build %s)", m.BuildID)
	}
	return true, ""
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// stamp records the artifact checksums in the manifest.
func stamp(a *port.Artifacts) error {
	if a == nil || a.Manifest == nil {
		return fmt.Errorf("%w: artifacts without manifest", domain.ErrInvalidInput)
	}
	a.Manifest.IndexSHA256 = checksum(a.Index)
	a.Manifest.MetadataSHA256 = checksum(a.Metadata)
	return nil
}

// verify checks that index and metadata both belong to the manifest's build.
func verify(a *port.Artifacts) error {
	m := a.Manifest
	if m == nil {
		return fmt.Errorf("%w: missing manifest", domain.ErrIndexUnavailable)
	}
	if checksum(a.Index) != m.IndexSHA256 {
		return fmt.Errorf("%w: index does not match build %s", domain.ErrIndexUnavailable, m.BuildID)
	}
	if checksum(a.Metadata) != m.MetadataSHA256 {
		return fmt.Errorf("%w: metadata does not match build %s", domain.ErrIndexUnavailable, m.BuildID)
	}
	return nil
}
