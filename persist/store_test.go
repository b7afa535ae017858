package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tenant-vec/index/flat"
)

func buildIndex(t *testing.T, n, dim int) *flat.Index {
	t.Helper()
	r := rand.New(rand.NewSource(int64(n*31 + dim)))
	vecs := make([][]float32, n)
	for i := range vecs {
		v := make([]float32, dim)
		for j := range v {
			v[j] = r.Float32()*2 - 1
		}
		vecs[i] = v
	}
	idx := flat.New(true)
	require.NoError(t, idx.Build(vecs))
	return idx
}

func TestFrame_RoundTrip(t *testing.T) {
	raw := make([]byte, 4096)
	for i := range raw {
		raw[i] = byte(i % 7)
	}
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			framed, err := encodeFrame(raw, c)
			require.NoError(t, err)
			if c != CompressionNone {
				assert.Less(t, len(framed), len(raw))
			}
			got, err := decodeFrame(framed)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}
}

func TestFrame_Corrupt(t *testing.T) {
	framed, err := encodeFrame([]byte("payload"), CompressionNone)
	require.NoError(t, err)

	_, err = decodeFrame(framed[:5])
	assert.Error(t, err)
	_, err = decodeFrame(append([]byte("XXXX"), framed[4:]...))
	assert.Error(t, err)
	_, err = decodeFrame(framed[:len(framed)-1])
	assert.Error(t, err)
}

func TestFrame_CorruptRawLength(t *testing.T) {
	raw := bytes.Repeat([]byte("tenant-vec"), 8<<10)
	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		framed, err := encodeFrame(raw, c)
		require.NoError(t, err, c)
		require.Equal(t, byte(c), framed[5], "payload must stay compressed")
		binary.LittleEndian.PutUint32(framed[6:10], 0xFFFFFFF0)

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		_, err = decodeFrame(framed)
		runtime.ReadMemStats(&after)
		assert.Error(t, err, c)
		assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20), "%v allocated from a corrupt length", c)
	}
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]Compression{
		"":     CompressionNone,
		"none": CompressionNone,
		"LZ4":  CompressionLZ4,
		"zstd": CompressionZSTD,
	} {
		got, err := ParseCompression(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
}

func TestSaveLoadIndex_QueryEquivalence(t *testing.T) {
	idx := buildIndex(t, 40, 8)
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		path := filepath.Join(t.TempDir(), IndexFileName)
		require.NoError(t, SaveIndex(path, idx, c))

		restored := flat.New(true)
		require.NoError(t, LoadIndex(path, restored))

		q := []float32{0.1, -0.2, 0.3, 0.4, -0.5, 0.6, 0.7, -0.8}
		p1, s1, err := idx.SearchTopK(q, 10)
		require.NoError(t, err)
		p2, s2, err := restored.SearchTopK(q, 10)
		require.NoError(t, err)
		assert.Equal(t, p1, p2, c.String())
		assert.Equal(t, s1, s2, c.String())
	}
}

func TestLoadIndex_Errors(t *testing.T) {
	dir := t.TempDir()

	err := LoadIndex(filepath.Join(dir, "missing"), flat.New(true))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.ErrorIs(t, LoadIndex(empty, flat.New(true)), ErrSerialization)

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("not an index at all"), 0o644))
	err = LoadIndex(garbage, flat.New(true))
	assert.ErrorIs(t, err, ErrSerialization)
	var se *SerializationError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, garbage, se.Path)
}

func TestDecodeIDs(t *testing.T) {
	ids, err := DecodeIDs([]byte(" [3, 1, 2] "))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = DecodeIDs([]byte("[]"))
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, bad := range []string{"", "{}", "null", `["a"]`, "[1,", "[null, 2]", "[1, null]"} {
		_, err := DecodeIDs([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestDir_SaveLoad(t *testing.T) {
	d := NewDir(t.TempDir(), CompressionZSTD)
	idx := buildIndex(t, 5, 4)
	ids := []int64{10, 20, 30, 40, 50}

	require.NoError(t, d.Save(7, idx, ids))
	indexPath, idsPath := d.Paths(7)
	assert.FileExists(t, indexPath)
	assert.FileExists(t, idsPath)
	assert.Equal(t, filepath.Join(d.Root(), "tenant_7"), filepath.Dir(indexPath))

	raw, err := os.ReadFile(idsPath)
	require.NoError(t, err)
	assert.JSONEq(t, "[10,20,30,40,50]", string(raw))

	restored := flat.New(true)
	got, err := d.Load(7, restored)
	require.NoError(t, err)
	assert.Equal(t, ids, got)
	assert.Equal(t, 5, restored.Count())

	entries, err := os.ReadDir(d.TenantDir(7))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")

	require.NoError(t, d.Remove(7))
	_, err = d.Load(7, flat.New(true))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDir_Load_Inconsistent(t *testing.T) {
	d := NewDir(t.TempDir(), CompressionNone)
	require.NoError(t, d.Save(1, buildIndex(t, 3, 2), []int64{1, 2, 3}))

	_, idsPath := d.Paths(1)
	require.NoError(t, SaveIDs(idsPath, []int64{1, 2}))
	_, err := d.Load(1, flat.New(true))
	assert.ErrorIs(t, err, ErrSerialization)

	require.NoError(t, os.WriteFile(idsPath, []byte("{\"ids\":[1,2,3]}"), 0o644))
	_, err = d.Load(1, flat.New(true))
	assert.ErrorIs(t, err, ErrSerialization)

	require.NoError(t, os.Remove(idsPath))
	_, err = d.Load(1, flat.New(true))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDir_Save_RejectsMismatchedIDs(t *testing.T) {
	d := NewDir(t.TempDir(), CompressionNone)
	assert.Error(t, d.Save(1, buildIndex(t, 3, 2), []int64{1}))
	_, err := os.Stat(d.TenantDir(1))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
