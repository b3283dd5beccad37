package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"loanrag/internal/domain"
	"loanrag/internal/port"
)

var _ port.ArtifactStore = (*FileStore)(nil)

const (
	IndexFile    = "index.bin"
	MetadataFile = "metadata.json"
	ManifestFile = "manifest.json"
)

// FileStore keeps the index, metadata and manifest as three files in one
// directory. The manifest is removed first and renamed into place last, and
// it carries checksums of the other two, so a torn replacement is never
// loadable.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Save(ctx context.Context, a *port.Artifacts) error {
	if err := stamp(a); err != nil {
		return err
	}
	manifest, err := json.MarshalIndent(a.Manifest, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}

	staged := []struct {
		name string
		data []byte
	}{
		{IndexFile, a.Index},
		{MetadataFile, a.Metadata},
		{ManifestFile, manifest},
	}

	tmps := make([]string, 0, len(staged))
	defer func() {
		for _, tmp := range tmps {
			os.Remove(tmp)
		}
	}()

	for _, f := range staged {
		if err := ctx.Err(); err != nil {
			return err
		}
		tmp, err := writeTemp(s.dir, f.name, f.data)
		if err != nil {
			return err
		}
		tmps = append(tmps, tmp)
	}

	if err := os.Remove(filepath.Join(s.dir, ManifestFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to retire previous manifest: %w", err)
	}

	for i, f := range staged {
		if err := os.Rename(tmps[i], filepath.Join(s.dir, f.name)); err != nil {
			return fmt.Errorf("failed to install %s: %w", f.name, err)
		}
		tmps[i] = ""
	}

	return syncDir(s.dir)
}

func (s *FileStore) Load(ctx context.Context) (*port.Artifacts, error) {
	manifestData, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	var m domain.Manifest
	if err := json.Unmarshal(manifestData, &m); err != nil {
		return nil, fmt.Errorf("%w: corrupt manifest: %v", domain.ErrIndexUnavailable, err)
	}

	index, err := os.ReadFile(filepath.Join(s.dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	meta, err := os.ReadFile(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	a := &port.Artifacts{Manifest: &m, Index: index, Metadata: meta}
	if err := verify(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *FileStore) Close() error {
	return nil
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Some platforms cannot fsync a directory; the renames have still happened.
	d.Sync()
	return nil
}
