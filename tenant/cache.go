package tenant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/viant/tenant-vec/index"
	"github.com/viant/tenant-vec/internal/logging"
	"github.com/viant/tenant-vec/persist"
	"github.com/viant/tenant-vec/vector"
	"golang.org/x/sync/singleflight"
)

// Entry is a resolved tenant index. IDs[i] is the external id of the vector
// at position i. An Entry is never modified once published.
type Entry struct {
	Index index.Index
	IDs   []int64
	Dim   int
}

// Match is a search hit.
type Match struct {
	ID    int64
	Score float64
}

// Stats describes a cached tenant index.
type Stats struct {
	Count int
	Dim   int
}

// Cache holds tenant indexes for the lifetime of the process.
type Cache struct {
	source    vector.Source
	dir       *persist.Dir
	normalize bool
	factory   func(normalize bool) index.Index
	logger    *logging.Logger

	mu    sync.RWMutex
	slots map[int64]*slot
	loads singleflight.Group
}

type slot struct {
	entry   atomic.Pointer[Entry]
	writeMu sync.Mutex
}

// New creates a Cache reading tenant data from source.
func New(source vector.Source, opts ...Option) *Cache {
	c := &Cache{
		source:    source,
		normalize: true,
		factory:   defaultFactory,
		logger:    logging.Noop(),
		slots:     make(map[int64]*slot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) slot(tenantID int64) *slot {
	c.mu.RLock()
	s := c.slots[tenantID]
	c.mu.RUnlock()
	if s != nil {
		return s
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s = c.slots[tenantID]; s == nil {
		s = &slot{}
		c.slots[tenantID] = s
	}
	return s
}

// EnsureIndex returns the tenant's index, loading it from disk or rebuilding
// it from the source when it is not in memory. It returns (nil, nil) when the
// tenant has no usable vectors. Concurrent callers share one load.
func (c *Cache) EnsureIndex(ctx context.Context, tenantID int64) (*Entry, error) {
	s := c.slot(tenantID)
	if e := s.entry.Load(); e != nil {
		return e, nil
	}
	v, err, _ := c.loads.Do(strconv.FormatInt(tenantID, 10), func() (any, error) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		return c.ensureLocked(ctx, tenantID, s)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// ensureLocked resolves and publishes the tenant's entry. The caller holds
// s.writeMu, so the files a load writes are never older than the published
// entry.
func (c *Cache) ensureLocked(ctx context.Context, tenantID int64, s *slot) (*Entry, error) {
	if e := s.entry.Load(); e != nil {
		return e, nil
	}
	e, err := c.resolve(ctx, tenantID)
	if err != nil || e == nil {
		return nil, err
	}
	s.entry.Store(e)
	return e, nil
}

// Require is EnsureIndex with the empty outcome reported as ErrNoIndex.
func (c *Cache) Require(ctx context.Context, tenantID int64) (*Entry, error) {
	e, err := c.EnsureIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w for tenant %d", ErrNoIndex, tenantID)
	}
	return e, nil
}

func (c *Cache) resolve(ctx context.Context, tenantID int64) (*Entry, error) {
	log := c.logger.WithTenant(tenantID)
	if e := c.loadFromDisk(ctx, tenantID, log); e != nil {
		if err := c.save(tenantID, e); err != nil {
			log.WarnContext(ctx, "rewriting loaded index failed", "error", err)
		}
		log.LogLoad(ctx, "disk", e.Index.Count(), e.Dim)
		return e, nil
	}
	e, err := c.rebuild(ctx, tenantID, log)
	if err != nil || e == nil {
		return nil, err
	}
	log.LogLoad(ctx, "source", e.Index.Count(), e.Dim)
	return e, nil
}

// loadFromDisk returns nil when the persisted files are missing or unusable.
func (c *Cache) loadFromDisk(ctx context.Context, tenantID int64, log *logging.Logger) *Entry {
	if c.dir == nil {
		return nil
	}
	idx := c.factory(c.normalize)
	ids, err := c.dir.Load(tenantID, idx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			indexPath, _ := c.dir.Paths(tenantID)
			var se *persist.SerializationError
			if errors.As(err, &se) {
				indexPath = se.Path
			}
			log.LogCorrupt(ctx, indexPath, err)
		}
		return nil
	}
	if idx.Normalized() != c.normalize {
		log.InfoContext(ctx, "persisted index normalization differs, rebuilding",
			"persisted", idx.Normalized(),
			"configured", c.normalize,
		)
		return nil
	}
	return &Entry{Index: idx, IDs: ids, Dim: idx.Dim()}
}

// rebuild derives a fresh entry from the source and persists it. It returns
// nil when the source yields no usable vectors.
func (c *Cache) rebuild(ctx context.Context, tenantID int64, log *logging.Logger) (*Entry, error) {
	records, err := c.source.ReadyRecords(ctx, tenantID)
	if err != nil {
		log.LogRebuild(ctx, 0, 0, err)
		return nil, fmt.Errorf("tenant: read source for tenant %d: %w", tenantID, err)
	}
	vectors := make([][]float32, 0, len(records))
	ids := make([]int64, 0, len(records))
	skipped := 0
	for _, r := range records {
		v, err := vector.DecodeRecord(r)
		if err != nil {
			log.LogSkip(ctx, r.ID, err)
			skipped++
			continue
		}
		vectors = append(vectors, v)
		ids = append(ids, r.ID)
	}
	if len(vectors) == 0 {
		log.LogRebuild(ctx, len(records), skipped, nil)
		return nil, nil
	}
	idx := c.factory(c.normalize)
	if err := idx.Build(vectors); err != nil {
		log.LogRebuild(ctx, len(records), skipped, err)
		return nil, fmt.Errorf("tenant: build tenant %d: %w", tenantID, err)
	}
	e := &Entry{Index: idx, IDs: ids, Dim: idx.Dim()}
	if err := c.save(tenantID, e); err != nil {
		log.LogRebuild(ctx, len(records), skipped, err)
		return nil, err
	}
	log.LogRebuild(ctx, len(records), skipped, nil)
	return e, nil
}

func (c *Cache) save(tenantID int64, e *Entry) error {
	if c.dir == nil {
		return nil
	}
	if err := c.dir.Save(tenantID, e.Index, e.IDs); err != nil {
		return fmt.Errorf("tenant: persist tenant %d: %w", tenantID, err)
	}
	return nil
}

// Push appends vectors under the given ids. A tenant without an index is
// bootstrapped from exactly these vectors. Ids the tenant already holds, and
// repeats within the batch, are skipped. Push either fully succeeds or leaves
// memory and disk as they were.
func (c *Cache) Push(ctx context.Context, tenantID int64, vectors [][]float32, ids []int64) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("%w: %d vectors, %d ids", ErrInputLengthMismatch, len(vectors), len(ids))
	}
	if len(vectors) == 0 {
		return nil
	}
	s := c.slot(tenantID)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	log := c.logger.WithTenant(tenantID)
	cur, err := c.ensureLocked(ctx, tenantID, s)
	if err != nil {
		log.LogPush(ctx, 0, 0, 0, err)
		return err
	}

	var known []int64
	if cur != nil {
		known = cur.IDs
	}
	requested := len(ids)
	vectors, ids = skipKnown(vectors, ids, known)
	duplicates := requested - len(ids)
	if len(vectors) == 0 {
		log.LogPush(ctx, 0, duplicates, cur.Index.Count(), nil)
		return nil
	}

	var next *Entry
	if cur == nil {
		idx := c.factory(c.normalize)
		if err := idx.Build(vectors); err != nil {
			log.LogPush(ctx, 0, duplicates, 0, err)
			return fmt.Errorf("tenant: bootstrap tenant %d: %w", tenantID, err)
		}
		next = &Entry{Index: idx, IDs: ids, Dim: idx.Dim()}
	} else {
		idx := cur.Index.Clone()
		if err := idx.Push(vectors); err != nil {
			log.LogPush(ctx, 0, duplicates, cur.Index.Count(), err)
			return fmt.Errorf("tenant: push tenant %d: %w", tenantID, err)
		}
		merged := make([]int64, 0, len(cur.IDs)+len(ids))
		merged = append(append(merged, cur.IDs...), ids...)
		next = &Entry{Index: idx, IDs: merged, Dim: idx.Dim()}
	}
	if err := c.save(tenantID, next); err != nil {
		log.LogPush(ctx, 0, duplicates, len(known), err)
		return err
	}
	s.entry.Store(next)
	log.LogPush(ctx, len(ids), duplicates, next.Index.Count(), nil)
	return nil
}

// skipKnown drops pairs whose id is in known or repeats an earlier id of the
// batch.
func skipKnown(vectors [][]float32, ids []int64, known []int64) ([][]float32, []int64) {
	seen := make(map[int64]struct{}, len(known)+len(ids))
	for _, id := range known {
		seen[id] = struct{}{}
	}
	outVecs := make([][]float32, 0, len(vectors))
	outIDs := make([]int64, 0, len(ids))
	for n, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		outVecs = append(outVecs, vectors[n])
		outIDs = append(outIDs, id)
	}
	return outVecs, outIDs
}

// Rebuild re-derives the tenant's index from the source, replacing both the
// cached and the persisted copy. It reports false, leaving the cache as it
// was, when the source yields no usable vectors.
func (c *Cache) Rebuild(ctx context.Context, tenantID int64) (bool, error) {
	s := c.slot(tenantID)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	e, err := c.rebuild(ctx, tenantID, c.logger.WithTenant(tenantID))
	if err != nil || e == nil {
		return false, err
	}
	s.entry.Store(e)
	return true, nil
}

// SearchTopK returns up to k matches ordered by descending score. A tenant
// without an index yields no matches.
func (c *Cache) SearchTopK(ctx context.Context, tenantID int64, query []float32, k int) ([]Match, error) {
	e, err := c.EnsureIndex(ctx, tenantID)
	if err != nil || e == nil {
		return nil, err
	}
	log := c.logger.WithTenant(tenantID)
	positions, scores, err := e.Index.SearchTopK(query, k)
	if err != nil {
		log.LogSearch(ctx, k, 0, err)
		return nil, fmt.Errorf("tenant: search tenant %d: %w", tenantID, err)
	}
	matches := make([]Match, 0, len(positions))
	for n, pos := range positions {
		if pos < 0 || pos >= len(e.IDs) {
			log.ErrorContext(ctx, "dropping out-of-range position",
				"position", pos,
				"ids", len(e.IDs),
			)
			continue
		}
		matches = append(matches, Match{ID: e.IDs[pos], Score: scores[n]})
	}
	log.LogSearch(ctx, k, len(matches), nil)
	return matches, nil
}

// SearchNearDuplicates returns, in ascending order, the ids whose vectors lie
// within squared L2 distance threshold of query.
func (c *Cache) SearchNearDuplicates(ctx context.Context, tenantID int64, query []float32, threshold float64) ([]int64, error) {
	e, err := c.EnsureIndex(ctx, tenantID)
	if err != nil || e == nil {
		return nil, err
	}
	sets, err := e.Index.SearchThreshold([][]float32{query}, threshold)
	if err != nil {
		return nil, fmt.Errorf("tenant: range search tenant %d: %w", tenantID, err)
	}
	var out []int64
	it := sets[0].Iterator()
	for it.HasNext() {
		pos := int(it.Next())
		if pos < len(e.IDs) {
			out = append(out, e.IDs[pos])
		}
	}
	slices.Sort(out)
	return out, nil
}

// Stats reports the cached index of a tenant without loading it.
func (c *Cache) Stats(tenantID int64) (Stats, bool) {
	e := c.slot(tenantID).entry.Load()
	if e == nil {
		return Stats{}, false
	}
	return Stats{Count: e.Index.Count(), Dim: e.Dim}, true
}

// Evict drops the in-memory index of a tenant; persisted files are kept.
func (c *Cache) Evict(tenantID int64) {
	s := c.slot(tenantID)
	s.writeMu.Lock()
	s.entry.Store(nil)
	s.writeMu.Unlock()
}
