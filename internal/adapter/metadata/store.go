package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"loanrag/internal/domain"
)

// Store is the ordered, append-only list of chunk records. Record i
// describes the vector at index position i.
type Store struct {
	records []domain.MetadataRecord
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(r domain.MetadataRecord) {
	s.records = append(s.records, r)
}

func (s *Store) Len() int {
	return len(s.records)
}

func (s *Store) Get(pos int) (domain.MetadataRecord, error) {
	if pos < 0 || pos >= len(s.records) {
		return domain.MetadataRecord{}, fmt.Errorf("%w: position %d, length %d", domain.ErrOutOfRange, pos, len(s.records))
	}
	return s.records[pos], nil
}

// Records returns a copy of all records in position order.
func (s *Store) Records() []domain.MetadataRecord {
	out := make([]domain.MetadataRecord, len(s.records))
	copy(out, s.records)
	return out
}

// MarshalJSON encodes the store as a JSON array, never null.
func (s *Store) MarshalJSON() ([]byte, error) {
	if s.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.records)
}

func (s *Store) UnmarshalJSON(data []byte) error {
	var records []domain.MetadataRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	s.records = records
	return nil
}

// Encode renders the store the way it is written to disk: an indented array
// with non-ASCII text left as is.
func (s *Store) Encode() ([]byte, error) {
	records := s.records
	if records == nil {
		records = []domain.MetadataRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses Encode or MarshalJSON output.
func Decode(data []byte) (*Store, error) {
	s := NewStore()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return s, nil
}
