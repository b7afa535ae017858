package vector

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteSource is a Source backed by the images and embeddings tables. It
// also carries the small write surface the ingestion side needs to register
// images and attach embeddings.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource creates a SQLite-backed Source. It ensures the schema exists
// in the provided database.
func NewSQLiteSource(db *sql.DB) (*SQLiteSource, error) {
	if db == nil {
		return nil, fmt.Errorf("vector: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteSource{db: db}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteSource) DB() *sql.DB { return s.db }

// AddImage inserts an image row for owner and returns its id.
func (s *SQLiteSource) AddImage(ctx context.Context, ownerID int64, filename, status string) (int64, error) {
	if status == "" {
		status = StatusReady
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO images(owner_id, filename, status) VALUES(?, ?, ?)`, ownerID, filename, status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SetStatus updates the status of an image row.
func (s *SQLiteSource) SetStatus(ctx context.Context, imageID int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE images SET status = ? WHERE id = ?`, status, imageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("vector: image %d not found", imageID)
	}
	return nil
}

// PutEmbedding stores (or replaces) the embedding of an image.
func (s *SQLiteSource) PutEmbedding(ctx context.Context, imageID int64, vec []float32, model string) error {
	if len(vec) == 0 {
		return fmt.Errorf("vector: PutEmbedding called with empty vector for image %d", imageID)
	}
	blob, err := EncodeEmbedding(vec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO embeddings(image_id, vec, dim, model_version)
VALUES (?, ?, ?, ?)
ON CONFLICT(image_id) DO UPDATE SET
  vec = excluded.vec,
  dim = excluded.dim,
  model_version = excluded.model_version`, imageID, blob, len(vec), model)
	return err
}

// ReadyRecords returns the owner's READY images that have an embedding,
// ordered by image id.
func (s *SQLiteSource) ReadyRecords(ctx context.Context, tenantID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT i.id, e.vec, e.dim
FROM images i
JOIN embeddings e ON e.image_id = i.id
WHERE i.owner_id = ? AND i.status = ?
ORDER BY i.id ASC`, tenantID, StatusReady)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Vector, &r.Dim); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScoredID is an id with its SQL-computed cosine similarity.
type ScoredID struct {
	ID    int64
	Score float64
}

// ScoreBySQL ranks the owner's ready embeddings by vec_cosine against query
// entirely inside SQLite. It is an exact reference path that does not touch
// any in-memory index; rows with a zero-magnitude embedding are skipped.
func (s *SQLiteSource) ScoreBySQL(ctx context.Context, tenantID int64, query []float32, k int) ([]ScoredID, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := EncodeEmbedding(query)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, score FROM (
  SELECT i.id AS id, vec_cosine(e.vec, ?) AS score
  FROM images i
  JOIN embeddings e ON e.image_id = i.id
  WHERE i.owner_id = ? AND i.status = ? AND e.dim = ?
)
WHERE score IS NOT NULL
ORDER BY score DESC, id ASC
LIMIT ?`, q, tenantID, StatusReady, len(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoredID
	for rows.Next() {
		var r ScoredID
		if err := rows.Scan(&r.ID, &r.Score); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ensure SQLiteSource satisfies the Source interface.
var _ Source = (*SQLiteSource)(nil)
