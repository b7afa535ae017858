// Package vector defines the source-of-truth side of the tenant index:
//   - Record model and Source interface consumed by the tenant cache
//   - SQLiteSource: images/embeddings tables on SQLite
//   - Schema helpers for those tables
//   - Embedding encoding (BLOB), normalization and distance functions
package vector
