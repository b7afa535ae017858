// Package tenant caches one vector index per tenant.
//
// An index is resolved lazily: from memory, then from the tenant's persisted
// files, then by rebuilding it from the source store. A tenant with no usable
// vectors resolves to a nil *Entry and a nil error. Cached entries are
// immutable; Push builds a new entry from a clone of the current one, writes it
// to disk and swaps it in atomically, so searches never observe a partial
// append.
package tenant
