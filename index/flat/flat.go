package flat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/viant/tenant-vec/index"
	"github.com/viant/tenant-vec/vector"
)

const (
	magic      uint32 = 0x4c465654 // "TVFL"
	headerSize        = 16
	flagNorm   uint32 = 1
)

// Index is a brute-force vector index ranking by squared L2 distance.
// Vectors live in one contiguous row-major buffer; position i occupies
// data[i*dim : (i+1)*dim].
type Index struct {
	data      []float32
	dim       int
	count     int
	normalize bool
	built     bool
}

// New creates an empty index. With normalize set, vectors and queries are
// L2-normalized and scores are cosine-equivalent similarities.
func New(normalize bool) *Index {
	return &Index{normalize: normalize}
}

// Build replaces the index contents with vectors.
func (i *Index) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		return index.ErrEmptyInput
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("flat: zero-length vector: %w", index.ErrEmptyInput)
	}
	if err := checkDims(vectors, dim); err != nil {
		return err
	}
	i.data = i.appendRows(make([]float32, 0, len(vectors)*dim), vectors)
	i.dim = dim
	i.count = len(vectors)
	i.built = true
	return nil
}

// Push appends vectors; they are searchable as soon as Push returns.
func (i *Index) Push(vectors [][]float32) error {
	if !i.built {
		return index.ErrNotBuilt
	}
	if err := checkDims(vectors, i.dim); err != nil {
		return err
	}
	i.data = i.appendRows(i.data, vectors)
	i.count += len(vectors)
	return nil
}

// SearchTopK returns top-k positions by score. With normalization the score
// is 1 - 0.5*d2, otherwise it is -d2.
func (i *Index) SearchTopK(query []float32, k int) ([]int, []float64, error) {
	q, err := i.prepareQuery(query)
	if err != nil {
		return nil, nil, err
	}
	if k <= 0 {
		return nil, nil, nil
	}
	if k > i.count {
		k = i.count
	}
	type scored struct {
		pos   int
		score float64
	}
	scoreds := make([]scored, i.count)
	for pos := 0; pos < i.count; pos++ {
		scoreds[pos] = scored{pos: pos, score: i.score(squaredL2(q, i.row(pos)))}
	}
	slices.SortFunc(scoreds, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return a.pos - b.pos
	})
	positions := make([]int, k)
	scores := make([]float64, k)
	for n := 0; n < k; n++ {
		positions[n] = scoreds[n].pos
		scores[n] = scoreds[n].score
	}
	return positions, scores, nil
}

// SearchThreshold runs a range search per query.
func (i *Index) SearchThreshold(queries [][]float32, threshold float64) ([]*roaring.Bitmap, error) {
	prepared := make([][]float32, len(queries))
	for n, query := range queries {
		q, err := i.prepareQuery(query)
		if err != nil {
			return nil, err
		}
		prepared[n] = q
	}
	out := make([]*roaring.Bitmap, len(prepared))
	for n, q := range prepared {
		set := roaring.New()
		for pos := 0; pos < i.count; pos++ {
			if squaredL2(q, i.row(pos)) <= threshold {
				set.Add(uint32(pos))
			}
		}
		out[n] = set
	}
	return out, nil
}

// Count returns the number of stored vectors.
func (i *Index) Count() int { return i.count }

// Dim returns the index dimension.
func (i *Index) Dim() int { return i.dim }

// Built reports whether the index holds a usable structure.
func (i *Index) Built() bool { return i.built }

// Normalized reports the normalization policy.
func (i *Index) Normalized() bool { return i.normalize }

// Clone returns a copy sharing the vector buffer. The copy's buffer is capped
// at its length, so appending to either side never touches the other.
func (i *Index) Clone() index.Index {
	c := *i
	c.data = i.data[:len(i.data):len(i.data)]
	return &c
}

// Vector returns a copy of the stored (possibly normalized) vector at pos.
func (i *Index) Vector(pos int) ([]float32, bool) {
	if pos < 0 || pos >= i.count {
		return nil, false
	}
	return slices.Clone(i.row(pos)), true
}

// MarshalBinary stores: magic(uint32), flags(uint32), dim(uint32), n(uint32),
// vec(float32[dim])^n, crc32(uint32) of all preceding bytes.
func (i *Index) MarshalBinary() ([]byte, error) {
	if !i.built {
		return nil, index.ErrNotBuilt
	}
	out := make([]byte, headerSize+4*len(i.data)+4)
	var flags uint32
	if i.normalize {
		flags |= flagNorm
	}
	binary.LittleEndian.PutUint32(out[0:4], magic)
	binary.LittleEndian.PutUint32(out[4:8], flags)
	binary.LittleEndian.PutUint32(out[8:12], uint32(i.dim))
	binary.LittleEndian.PutUint32(out[12:16], uint32(i.count))
	off := headerSize
	for _, v := range i.data {
		binary.LittleEndian.PutUint32(out[off:off+4], math.Float32bits(v))
		off += 4
	}
	binary.LittleEndian.PutUint32(out[off:], crc32.ChecksumIEEE(out[:off]))
	return out, nil
}

// UnmarshalBinary restores the index from bytes produced by MarshalBinary.
// Stored vectors are already normalized and are taken as is.
func (i *Index) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize+4 {
		return errors.New("flat: invalid data")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != magic {
		return errors.New("flat: bad magic")
	}
	flags := binary.LittleEndian.Uint32(data[4:8])
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	n := int(binary.LittleEndian.Uint32(data[12:16]))
	if dim == 0 || n == 0 {
		return errors.New("flat: empty index")
	}
	cells := uint64(dim) * uint64(n)
	if cells != uint64(len(data)-headerSize-4)/4 || (len(data)-headerSize-4)%4 != 0 {
		return fmt.Errorf("flat: truncated: have %d bytes for %d x %d vectors", len(data), n, dim)
	}
	want := headerSize + 4*int(cells) + 4
	if len(data) != want {
		return fmt.Errorf("flat: truncated: have %d bytes, want %d", len(data), want)
	}
	body := data[:want-4]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(data[want-4:]) {
		return errors.New("flat: checksum mismatch")
	}
	vecs := make([]float32, dim*n)
	off := headerSize
	for j := range vecs {
		vecs[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
		off += 4
	}
	i.data = vecs
	i.dim = dim
	i.count = n
	i.normalize = flags&flagNorm != 0
	i.built = true
	return nil
}

func (i *Index) row(pos int) []float32 {
	return i.data[pos*i.dim : (pos+1)*i.dim]
}

func (i *Index) appendRows(dst []float32, vectors [][]float32) []float32 {
	for _, v := range vectors {
		if i.normalize {
			v = vector.Normalize(v)
		}
		dst = append(dst, v...)
	}
	return dst
}

func (i *Index) prepareQuery(query []float32) ([]float32, error) {
	if !i.built {
		return nil, index.ErrNotBuilt
	}
	if len(query) != i.dim {
		return nil, &index.DimensionMismatchError{Expected: i.dim, Actual: len(query)}
	}
	if i.normalize {
		return vector.Normalize(query), nil
	}
	return query, nil
}

func (i *Index) score(d2 float64) float64 {
	if i.normalize {
		return 1 - 0.5*d2
	}
	return -d2
}

func checkDims(vectors [][]float32, dim int) error {
	for _, v := range vectors {
		if len(v) != dim {
			return &index.DimensionMismatchError{Expected: dim, Actual: len(v)}
		}
	}
	return nil
}

func squaredL2(a, b []float32) float64 {
	var s float64
	for j := range a {
		d := float64(a[j]) - float64(b[j])
		s += d * d
	}
	return s
}

var _ index.Index = (*Index)(nil)
