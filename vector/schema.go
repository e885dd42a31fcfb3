package vector

import (
	"database/sql"
)

const docsSchema = `
CREATE TABLE IF NOT EXISTS docs (
    id TEXT PRIMARY KEY,
    content TEXT,
    meta TEXT,
    embedding BLOB
);
`

// EnsureSchema creates the docs table in the provided database if it does
// not already exist. Insertion order (rowid) doubles as the candidate
// arrival order used for deterministic tie-breaking.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(docsSchema)
	return err
}
