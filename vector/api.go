package vector

import (
	"context"
)

// Status values stored on image rows. Only StatusReady rows feed an index.
const (
	StatusReady      = "READY"
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusFailed     = "FAILED"
)

// Record is a single embedding row as delivered by a Source. Vector holds the
// encoded embedding (see EncodeEmbedding) and Dim the dimension declared by
// the producer; the two may disagree for malformed rows.
type Record struct {
	// ID is the external identifier of the embedded item.
	ID int64

	// Vector is the little-endian float32 BLOB.
	Vector []byte

	// Dim is the declared vector dimension.
	Dim int
}

// Source is the source of truth for tenant embeddings. Implementations must
// return only ready records, ordered by ascending ID so that positions in a
// rebuilt index are stable.
type Source interface {
	// ReadyRecords returns every ready record owned by tenantID.
	ReadyRecords(ctx context.Context, tenantID int64) ([]Record, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, tenantID int64) ([]Record, error)

// ReadyRecords calls fn.
func (fn SourceFunc) ReadyRecords(ctx context.Context, tenantID int64) ([]Record, error) {
	return fn(ctx, tenantID)
}
