package tenant

import (
	"github.com/viant/tenant-vec/index"
	"github.com/viant/tenant-vec/index/flat"
	"github.com/viant/tenant-vec/internal/logging"
	"github.com/viant/tenant-vec/persist"
)

// Option configures a Cache.
type Option func(*Cache)

// WithDir persists tenant indexes under d. Without a Dir the cache only
// keeps indexes in memory.
func WithDir(d *persist.Dir) Option {
	return func(c *Cache) { c.dir = d }
}

// WithNormalize sets the normalization policy of new indexes (default true).
func WithNormalize(normalize bool) Option {
	return func(c *Cache) { c.normalize = normalize }
}

// WithIndexFactory replaces the engine used for new indexes.
func WithIndexFactory(fn func(normalize bool) index.Index) Option {
	return func(c *Cache) {
		if fn != nil {
			c.factory = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

func defaultFactory(normalize bool) index.Index {
	return flat.New(normalize)
}
