package embed

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tenant-vec/config"
	"github.com/viant/tenant-vec/vector"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHash_EmbedText(t *testing.T) {
	h, err := NewHash(64)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := h.EmbedText(ctx, "red bicycle in the park")
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, norm(a), 1e-5)

	again, err := h.EmbedText(ctx, "Red  BICYCLE, in the park!")
	require.NoError(t, err)
	assert.Equal(t, a, again, "case and punctuation do not matter")

	near, err := h.EmbedText(ctx, "red bicycle in the garden")
	require.NoError(t, err)
	far, err := h.EmbedText(ctx, "quarterly revenue report")
	require.NoError(t, err)
	simNear, err := vector.CosineSimilarity(a, near)
	require.NoError(t, err)
	simFar, err := vector.CosineSimilarity(a, far)
	require.NoError(t, err)
	assert.Greater(t, simNear, simFar)

	_, err = h.EmbedText(ctx, "  ,.! ")
	assert.ErrorIs(t, err, ErrNothingToEmbed)
}

func TestHash_EmbedText_TokenLengths(t *testing.T) {
	h, err := NewHash(32)
	require.NoError(t, err)
	ctx := context.Background()
	// every tail length of the 4-byte hash block, including tokens at the end
	// of their backing array
	for n := 1; n <= 17; n++ {
		v, err := h.EmbedText(ctx, strings.Repeat("x", n))
		require.NoError(t, err, n)
		assert.InDelta(t, 1.0, norm(v), 1e-5, n)
	}
}

func TestHash_EmbedText_StopWords(t *testing.T) {
	h, err := NewHash(128, WithLanguage("en"))
	require.NoError(t, err)
	ctx := context.Background()

	with, err := h.EmbedText(ctx, "the cat on the mat")
	require.NoError(t, err)
	without, err := h.EmbedText(ctx, "cat mat")
	require.NoError(t, err)
	sim, err := vector.CosineSimilarity(with, without)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-5)
}

func TestHash_EmbedImage(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, 4096)
	for i := range content {
		content[i] = byte(i * 7)
	}
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(a, content, 0o644))
	modified := append([]byte(nil), content...)
	modified[100] ^= 0xff
	require.NoError(t, os.WriteFile(b, modified, 0o644))

	h, err := NewHash(256)
	require.NoError(t, err)
	ctx := context.Background()
	va, err := h.EmbedImage(ctx, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(va), 1e-5)
	vb, err := h.EmbedImage(ctx, b)
	require.NoError(t, err)
	sim, err := vector.CosineSimilarity(va, vb)
	require.NoError(t, err)
	assert.Greater(t, sim, 0.9)

	tiny := filepath.Join(dir, "tiny.bin")
	require.NoError(t, os.WriteFile(tiny, []byte("abc"), 0o644))
	vt, err := h.EmbedImage(ctx, tiny)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(vt), 1e-5)

	empty := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = h.EmbedImage(ctx, empty)
	assert.ErrorIs(t, err, ErrNothingToEmbed)

	_, err = h.EmbedImage(ctx, filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHash_Canceled(t *testing.T) {
	h, err := NewHash(8)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.EmbedText(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	e, err := New(config.Embed{Backend: "hash", Dim: 16, Model: "hash-test"})
	require.NoError(t, err)
	assert.Equal(t, 16, e.Dim())
	assert.Equal(t, "hash-test", e.Model())

	e, err = New(config.Embed{Backend: "HASH", Dim: 8})
	require.NoError(t, err)
	assert.Equal(t, "hash-8", e.Model())

	_, err = New(config.Embed{Backend: "clip", Dim: 512})
	assert.Error(t, err)
	_, err = New(config.Embed{Backend: "hash", Dim: 0})
	assert.Error(t, err)
}
