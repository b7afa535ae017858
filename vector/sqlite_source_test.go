package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tenant-vec/engine"
)

func newTestSource(t *testing.T) *SQLiteSource {
	t.Helper()
	db, err := engine.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	src, err := NewSQLiteSource(db)
	require.NoError(t, err)
	return src
}

func TestSQLiteSource_ReadyRecords(t *testing.T) {
	ctx := context.Background()
	src := newTestSource(t)

	a, err := src.AddImage(ctx, 1, "a.png", StatusReady)
	require.NoError(t, err)
	b, err := src.AddImage(ctx, 1, "b.png", StatusPending)
	require.NoError(t, err)
	c, err := src.AddImage(ctx, 1, "c.png", "")
	require.NoError(t, err)
	other, err := src.AddImage(ctx, 2, "d.png", StatusReady)
	require.NoError(t, err)
	noEmbedding, err := src.AddImage(ctx, 1, "e.png", StatusReady)
	require.NoError(t, err)

	require.NoError(t, src.PutEmbedding(ctx, c, []float32{0, 1}, "hash"))
	require.NoError(t, src.PutEmbedding(ctx, a, []float32{1, 0}, "hash"))
	require.NoError(t, src.PutEmbedding(ctx, b, []float32{1, 1}, "hash"))
	require.NoError(t, src.PutEmbedding(ctx, other, []float32{1, 1}, "hash"))
	_ = noEmbedding

	recs, err := src.ReadyRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, a, recs[0].ID)
	assert.Equal(t, c, recs[1].ID)
	assert.Equal(t, 2, recs[0].Dim)

	vec, err := DecodeRecord(recs[1])
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vec)

	// Promote b and replace its embedding.
	require.NoError(t, src.SetStatus(ctx, b, StatusReady))
	require.NoError(t, src.PutEmbedding(ctx, b, []float32{0.5, 0.5}, "hash-v2"))
	recs, err = src.ReadyRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []int64{a, b, c}, []int64{recs[0].ID, recs[1].ID, recs[2].ID})

	assert.Error(t, src.SetStatus(ctx, 999, StatusReady))
	assert.Error(t, src.PutEmbedding(ctx, a, nil, "hash"))
}

func TestSQLiteSource_ScoreBySQL(t *testing.T) {
	ctx := context.Background()
	src := newTestSource(t)

	ids := map[string]int64{}
	for name, vec := range map[string][]float32{
		"A": {1, 0},
		"B": {0, 1},
		"C": {0.7071, 0.7071},
	} {
		id, err := src.AddImage(ctx, 5, name, StatusReady)
		require.NoError(t, err)
		require.NoError(t, src.PutEmbedding(ctx, id, vec, "test"))
		ids[name] = id
	}

	got, err := src.ScoreBySQL(ctx, 5, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids["A"], got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, ids["C"], got[1].ID)
	assert.InDelta(t, 0.7071, got[1].Score, 1e-3)
	assert.Equal(t, ids["B"], got[2].ID)
	assert.InDelta(t, 0.0, got[2].Score, 1e-6)

	got, err = src.ScoreBySQL(ctx, 5, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
