package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"loanrag/internal/domain"
	"loanrag/internal/port"
)

var _ port.VectorIndex = (*FlatL2)(nil)

const (
	formatVersion uint16 = 1
	headerSize           = 8 + 2 + 4 + 8
)

var magic = [8]byte{'L', 'R', 'F', 'L', 'A', 'T', 'L', '2'}

// FlatL2 is an exact nearest-neighbour index over squared Euclidean distance.
// Vectors live in one contiguous slice; position p occupies
// data[p*dim : (p+1)*dim].
type FlatL2 struct {
	dim  int
	data []float32
}

// NewFlatL2 creates an empty index. The first vector added fixes the dimension.
func NewFlatL2() *FlatL2 {
	return &FlatL2{}
}

func (x *FlatL2) Count() int {
	if x.dim == 0 {
		return 0
	}
	return len(x.data) / x.dim
}

func (x *FlatL2) Dimension() int {
	return x.dim
}

// Add appends vectors in order. The whole call is rejected if any vector has
// the wrong dimension.
func (x *FlatL2) Add(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	dim := x.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
		}
	}

	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d values, index dimension is %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	x.dim = dim
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	return nil
}

// Vector returns a copy of the vector stored at pos.
func (x *FlatL2) Vector(pos int) ([]float32, error) {
	if pos < 0 || pos >= x.Count() {
		return nil, fmt.Errorf("%w: position %d, count %d", domain.ErrOutOfRange, pos, x.Count())
	}
	v := make([]float32, x.dim)
	copy(v, x.data[pos*x.dim:(pos+1)*x.dim])
	return v, nil
}

// Search scans every stored vector and returns the k closest, ordered by
// ascending distance and then ascending position.
func (x *FlatL2) Search(query []float32, k int) ([]domain.Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	count := x.Count()
	if count == 0 {
		return nil, nil
	}

	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d values, index dimension is %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}

	hits := make([]domain.Hit, count)
	for p := 0; p < count; p++ {
		hits[p] = domain.Hit{
			Position: p,
			Distance: squaredL2(query, x.data[p*x.dim:(p+1)*x.dim]),
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})

	if k > count {
		k = count
	}
	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// MarshalBinary encodes the index as
// magic | version u16 | dim u32 | count u64 | count*dim float32, little endian.
func (x *FlatL2) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+4*len(x.data))
	copy(buf, magic[:])
	binary.LittleEndian.PutUint16(buf[8:], formatVersion)
	binary.LittleEndian.PutUint32(buf[10:], uint32(x.dim))
	binary.LittleEndian.PutUint64(buf[14:], uint64(x.Count()))

	off := headerSize
	for _, f := range x.data {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	return buf, nil
}

// UnmarshalBinary replaces the index contents with the encoded data.
func (x *FlatL2) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return errors.New("index data truncated: missing header")
	}
	if !bytes.Equal(data[:8], magic[:]) {
		return errors.New("index data has unknown format")
	}
	if v := binary.LittleEndian.Uint16(data[8:]); v != formatVersion {
		return fmt.Errorf("unsupported index format version %d", v)
	}

	dim := int(binary.LittleEndian.Uint32(data[10:]))
	count := binary.LittleEndian.Uint64(data[14:])
	if dim == 0 && count != 0 {
		return errors.New("index data has vectors but zero dimension")
	}

	body := data[headerSize:]
	want := uint64(dim) * count * 4
	if uint64(len(body)) != want {
		return fmt.Errorf("index data has %d payload bytes, expected %d: %w", len(body), want, io.ErrUnexpectedEOF)
	}

	values := make([]float32, len(body)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}

	x.dim = dim
	x.data = values
	return nil
}

// Decode builds an index from MarshalBinary output.
func Decode(data []byte) (*FlatL2, error) {
	x := NewFlatL2()
	if err := x.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return x, nil
}
