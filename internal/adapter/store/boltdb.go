package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"loanrag/internal/domain"
	"loanrag/internal/port"
)

var _ port.ArtifactStore = (*BoltStore)(nil)

var (
	bucketArtifacts = []byte("artifacts")
	keyIndex        = []byte("index")
	keyMetadata     = []byte("metadata")
	keyManifest     = []byte("manifest")
)

// BoltStore keeps the index, metadata and manifest in one bbolt file. All
// three are replaced in a single transaction.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketArtifacts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create artifacts bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(ctx context.Context, a *port.Artifacts) error {
	if err := stamp(a); err != nil {
		return err
	}
	manifest, err := json.Marshal(a.Manifest)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketArtifacts)
		if b == nil {
			return fmt.Errorf("artifacts bucket not found")
		}
		if err := b.Put(keyIndex, a.Index); err != nil {
			return err
		}
		if err := b.Put(keyMetadata, a.Metadata); err != nil {
			return err
		}
		return b.Put(keyManifest, manifest)
	})
}

func (s *BoltStore) Load(ctx context.Context) (*port.Artifacts, error) {
	a := &port.Artifacts{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketArtifacts)
		if b == nil {
			return fmt.Errorf("%w: artifacts bucket not found", domain.ErrIndexUnavailable)
		}

		manifest := b.Get(keyManifest)
		if manifest == nil {
			return fmt.Errorf("%w: no build stored", domain.ErrIndexUnavailable)
		}
		var m domain.Manifest
		if err := json.Unmarshal(manifest, &m); err != nil {
			return fmt.Errorf("%w: corrupt manifest: %v", domain.ErrIndexUnavailable, err)
		}
		a.Manifest = &m

		// Values are only valid inside the transaction.
		a.Index = append([]byte(nil), b.Get(keyIndex)...)
		a.Metadata = append([]byte(nil), b.Get(keyMetadata)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := verify(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Clear removes the stored build.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketArtifacts); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketArtifacts)
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
