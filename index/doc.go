// Package index defines a minimal abstraction for exact vector indexes that
// can be built from embeddings, extended in place, queried for top-k or range
// matches, and serialized for persistence. The flat subpackage provides the
// brute-force implementation used by the tenant cache.
package index
