// Package persist stores tenant index state on the local filesystem. Each
// tenant owns one directory holding a binary index file and a JSON array of
// external ids. Both files are replaced through temp files and renames, and
// any decode failure is reported as ErrSerialization so callers can fall back
// to rebuilding from the source of truth.
//
// The binary index file is a small frame around the engine's own
// MarshalBinary output:
//
//	magic "TVIX" | version u8 | compression u8 | raw length u32 | payload
//
// with payload compressed by LZ4 or Zstandard when configured. The layout is
// not a cross-version contract.
package persist
