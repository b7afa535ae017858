package vector

import (
	"database/sql"
)

const imagesSchema = `
CREATE TABLE IF NOT EXISTS images (
    id         INTEGER PRIMARY KEY,
    owner_id   INTEGER NOT NULL,
    filename   TEXT,
    status     TEXT NOT NULL DEFAULT 'READY',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const imagesOwnerIndex = `
CREATE INDEX IF NOT EXISTS images_owner_status ON images(owner_id, status);
`

const embeddingsSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
    id            INTEGER PRIMARY KEY,
    image_id      INTEGER NOT NULL UNIQUE REFERENCES images(id),
    vec           BLOB NOT NULL,
    dim           INTEGER NOT NULL,
    model_version TEXT
);
`

// EnsureSchema creates the images and embeddings tables in the provided
// database if they do not already exist.
func EnsureSchema(db *sql.DB) error {
	for _, ddl := range []string{imagesSchema, imagesOwnerIndex, embeddingsSchema} {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}
