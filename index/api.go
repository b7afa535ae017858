package index

import "github.com/RoaringBitmap/roaring/v2"

// Index defines an exact vector index addressed by insertion position.
// Positions are assigned in insertion order starting at 0; mapping them to
// external identifiers is the caller's concern.
type Index interface {
	// Build replaces the index contents with vectors. vectors must be a
	// non-empty rectangular collection; the first vector fixes the dimension.
	Build(vectors [][]float32) error

	// Push appends vectors to a built index. Every vector must match Dim.
	// On error the index is left unchanged.
	Push(vectors [][]float32) error

	// SearchTopK returns up to k positions ordered by decreasing score along
	// with their scores. k is clamped to Count.
	SearchTopK(query []float32, k int) (positions []int, scores []float64, err error)

	// SearchThreshold returns, per query, the set of positions whose squared
	// L2 distance to the query is <= threshold.
	SearchThreshold(queries [][]float32, threshold float64) ([]*roaring.Bitmap, error)

	// Count returns the number of stored vectors.
	Count() int

	// Dim returns the established dimension, or 0 before Build.
	Dim() int

	// Built reports whether Build has succeeded at least once.
	Built() bool

	// Normalized reports whether vectors and queries are L2-normalized.
	Normalized() bool

	// Clone returns an independent copy; pushing into the copy never changes
	// what the receiver returns.
	Clone() Index

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}
