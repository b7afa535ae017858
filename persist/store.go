package persist

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/edsrzf/mmap-go"
	gojson "github.com/goccy/go-json"
	"github.com/viant/tenant-vec/index"
)

const (
	// IndexFileName is the binary engine file inside a tenant directory.
	IndexFileName = "index.flat"
	// IDsFileName is the JSON id-map file inside a tenant directory.
	IDsFileName = "ids.json"

	tenantDirPrefix = "tenant_"
)

// EncodeIndex serializes idx into a frame.
func EncodeIndex(idx index.Index, c Compression) ([]byte, error) {
	raw, err := idx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return encodeFrame(raw, c)
}

// DecodeIndex restores into from a frame produced by EncodeIndex.
func DecodeIndex(data []byte, into index.Index) error {
	raw, err := decodeFrame(data)
	if err != nil {
		return err
	}
	if err := into.UnmarshalBinary(raw); err != nil {
		return err
	}
	if !into.Built() {
		return errors.New("decoded index is not built")
	}
	return nil
}

// SaveIndex atomically writes idx to path.
func SaveIndex(path string, idx index.Index, c Compression) error {
	data, err := EncodeIndex(idx, c)
	if err != nil {
		return err
	}
	return writeFiles(namedWrite{target: path, data: data})
}

// LoadIndex maps path read-only and decodes it into into. A missing file is
// reported as is (errors.Is(err, os.ErrNotExist)); anything else that keeps
// the file from decoding is an ErrSerialization.
func LoadIndex(path string, into index.Index) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return corrupt(path, errors.New("empty file"))
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return corrupt(path, err)
	}
	defer func() { _ = m.Unmap() }()
	if err := DecodeIndex(m, into); err != nil {
		return corrupt(path, err)
	}
	return nil
}

// EncodeIDs renders ids as a JSON array.
func EncodeIDs(ids []int64) ([]byte, error) {
	if ids == nil {
		ids = []int64{}
	}
	return gojson.Marshal(ids)
}

// DecodeIDs parses a JSON array of integers.
func DecodeIDs(data []byte) ([]int64, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("id map is not a JSON array")
	}
	var raw []*int64
	if err := gojson.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	ids := make([]int64, len(raw))
	for n, id := range raw {
		if id == nil {
			return nil, fmt.Errorf("id map entry %d is null", n)
		}
		ids[n] = *id
	}
	return ids, nil
}

// SaveIDs atomically writes ids to path.
func SaveIDs(path string, ids []int64) error {
	data, err := EncodeIDs(ids)
	if err != nil {
		return err
	}
	return writeFiles(namedWrite{target: path, data: data})
}

// LoadIDs reads the id map at path.
func LoadIDs(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ids, err := DecodeIDs(data)
	if err != nil {
		return nil, corrupt(path, err)
	}
	return ids, nil
}

// Dir lays tenant files out under a root directory as
// <root>/tenant_<id>/{index.flat,ids.json}.
type Dir struct {
	root        string
	compression Compression
}

// NewDir creates a Dir rooted at root. The root is created lazily.
func NewDir(root string, c Compression) *Dir {
	return &Dir{root: root, compression: c}
}

// Root returns the root directory.
func (d *Dir) Root() string { return d.root }

// TenantDir returns the directory holding a tenant's files.
func (d *Dir) TenantDir(tenantID int64) string {
	return filepath.Join(d.root, tenantDirPrefix+strconv.FormatInt(tenantID, 10))
}

// Paths returns the index and id-map paths of a tenant.
func (d *Dir) Paths(tenantID int64) (indexPath, idsPath string) {
	dir := d.TenantDir(tenantID)
	return filepath.Join(dir, IndexFileName), filepath.Join(dir, IDsFileName)
}

// Save persists idx and ids as one unit: both are fully written to temp
// files before either target is replaced.
func (d *Dir) Save(tenantID int64, idx index.Index, ids []int64) error {
	if len(ids) != idx.Count() {
		return fmt.Errorf("persist: tenant %d: %d ids for %d vectors", tenantID, len(ids), idx.Count())
	}
	indexPath, idsPath := d.Paths(tenantID)
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return err
	}
	indexData, err := EncodeIndex(idx, d.compression)
	if err != nil {
		return err
	}
	idsData, err := EncodeIDs(ids)
	if err != nil {
		return err
	}
	return writeFiles(
		namedWrite{target: indexPath, data: indexData},
		namedWrite{target: idsPath, data: idsData},
	)
}

// Load restores a tenant's index into into and returns its ids. When either
// file is missing the error satisfies errors.Is(err, os.ErrNotExist). A pair
// whose id count disagrees with the vector count, as left by an interrupted
// Save, is an ErrSerialization.
func (d *Dir) Load(tenantID int64, into index.Index) ([]int64, error) {
	indexPath, idsPath := d.Paths(tenantID)
	for _, p := range []string{indexPath, idsPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, err
		}
	}
	ids, err := LoadIDs(idsPath)
	if err != nil {
		return nil, err
	}
	if err := LoadIndex(indexPath, into); err != nil {
		return nil, err
	}
	if len(ids) != into.Count() {
		return nil, corrupt(idsPath, fmt.Errorf("%d ids for %d vectors", len(ids), into.Count()))
	}
	return ids, nil
}

// Remove deletes a tenant's files.
func (d *Dir) Remove(tenantID int64) error {
	return os.RemoveAll(d.TenantDir(tenantID))
}
