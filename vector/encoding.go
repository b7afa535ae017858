package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding encodes a vector into the BLOB layout stored in the
// embeddings table: a little-endian sequence of IEEE 754 float32 values
// without a length prefix. The dimension is kept in its own column.
func EncodeEmbedding(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b, nil
}

// DecodeEmbedding decodes a BLOB produced by EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector: invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// MalformedRecordError reports a record whose decoded vector does not match
// its declared dimension.
type MalformedRecordError struct {
	ID       int64
	Declared int
	Actual   int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("vector: record %d: declared dim %d, decoded %d", e.ID, e.Declared, e.Actual)
}

// DecodeRecord decodes r.Vector and checks it against r.Dim. Blobs whose
// length is not a multiple of 4 and dimension disagreements both yield a
// *MalformedRecordError.
func DecodeRecord(r Record) ([]float32, error) {
	if len(r.Vector)%4 != 0 {
		return nil, &MalformedRecordError{ID: r.ID, Declared: r.Dim, Actual: -1}
	}
	vec, err := DecodeEmbedding(r.Vector)
	if err != nil {
		return nil, err
	}
	if len(vec) != r.Dim || r.Dim == 0 {
		return nil, &MalformedRecordError{ID: r.ID, Declared: r.Dim, Actual: len(vec)}
	}
	return vec, nil
}
