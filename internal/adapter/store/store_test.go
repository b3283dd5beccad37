package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrag/config"
	"loanrag/internal/domain"
	"loanrag/internal/port"
)

func artifacts(index, meta string) *port.Artifacts {
	return &port.Artifacts{
		Manifest: NewManifest(2, 3, "hash-3", "abc"),
		Index:    []byte(index),
		Metadata: []byte(meta),
	}
}

func backends(t *testing.T) map[string]func() port.ArtifactStore {
	dir := t.TempDir()
	return map[string]func() port.ArtifactStore{
		"files": func() port.ArtifactStore { return NewFileStore(filepath.Join(dir, "files")) },
		"bolt": func() port.ArtifactStore {
			s, err := NewBoltStore(filepath.Join(dir, "index.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStores_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			_, err := s.Load(ctx)
			assert.ErrorIs(t, err, domain.ErrIndexUnavailable)

			first := artifacts("index-v1", `[{"chunk_id":"a"}]`)
			require.NoError(t, s.Save(ctx, first))

			second := artifacts("index-v2", `[{"chunk_id":"b"}]`)
			require.NoError(t, s.Save(ctx, second))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, second.Manifest.BuildID, got.Manifest.BuildID)
			assert.Equal(t, "index-v2", string(got.Index))
			assert.Equal(t, `[{"chunk_id":"b"}]`, string(got.Metadata))
			assert.Equal(t, 2, got.Manifest.Count)
			assert.NotEmpty(t, got.Manifest.IndexSHA256)
		})
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, artifacts("idx", "[]")))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idx", string(got.Index))

	require.NoError(t, s.Clear())
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestFileStore_DetectsMixedBuilds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.Save(ctx, artifacts("index-v1", "[1]")))
	oldMeta, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, artifacts("index-v2", "[2]")))

	// Simulate a metadata file left over from the previous build.
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), oldMeta, 0o644))

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestFileStore_MissingManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save(ctx, artifacts("idx", "[]")))
	require.NoError(t, os.Remove(filepath.Join(dir, ManifestFile)))

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save(context.Background(), artifacts("idx", "[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{IndexFile, MetadataFile, ManifestFile}, names)
}

func TestSave_RequiresManifest(t *testing.T) {
	err := NewFileStore(t.TempDir()).Save(context.Background(), &port.Artifacts{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestComputeConfigHash(t *testing.T) {
	cfg := config.DefaultConfig()
	h1 := ComputeConfigHash(cfg)
	assert.Equal(t, h1, ComputeConfigHash(config.DefaultConfig()))

	cfg.Retrieve.TopK = 99
	assert.Equal(t, h1, ComputeConfigHash(cfg), "retrieval settings do not affect the index")

	cfg.Chunk.Overlap = 10
	assert.NotEqual(t, h1, ComputeConfigHash(cfg))

	m := NewManifest(1, 1, "m", h1)
	ok, _ := CheckCompatibility(m, config.DefaultConfig())
	assert.True(t, ok)
	ok, reason := CheckCompatibility(m, cfg)
	assert.False(t, ok)
	assert.Contains(t, reason, m.BuildID)
}
