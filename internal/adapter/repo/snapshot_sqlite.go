package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"canvasd/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS canvas_documents (
	document_id TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	blob        BLOB NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);`

// SnapshotRepositorySQLite implements domain.SnapshotStore on a local
// SQLite database. It is intended for development and test environments
// where PostgreSQL is not available.
type SnapshotRepositorySQLite struct {
	db *sql.DB
}

// NewSnapshotRepositorySQLite opens (or creates) the database at path and
// ensures the document table exists. Use ":memory:" for an ephemeral store.
func NewSnapshotRepositorySQLite(path string) (*SnapshotRepositorySQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// SQLite is single-writer, and :memory: databases are per-connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return &SnapshotRepositorySQLite{db: db}, nil
}

// Save upserts the document's snapshot and metadata. created_at survives
// overwrites; updated_at always advances.
func (r *SnapshotRepositorySQLite) Save(ctx context.Context, doc domain.Document, blob []byte) error {
	query := `
INSERT INTO canvas_documents (document_id, title, blob, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (document_id)
DO UPDATE SET title = excluded.title, blob = excluded.blob, updated_at = excluded.updated_at;
`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, doc.ID, doc.Title, blob, now, now)
	return err
}

// Load fetches the document's latest snapshot.
func (r *SnapshotRepositorySQLite) Load(ctx context.Context, documentID string) (*domain.Snapshot, error) {
	query := `
SELECT document_id, title, blob, created_at, updated_at
FROM canvas_documents
WHERE document_id = ?;
`
	row := r.db.QueryRowContext(ctx, query, documentID)

	var snap domain.Snapshot
	if err := row.Scan(
		&snap.Document.ID,
		&snap.Document.Title,
		&snap.Blob,
		&snap.Document.CreatedAt,
		&snap.Document.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// Close releases the underlying database handle.
func (r *SnapshotRepositorySQLite) Close() error {
	return r.db.Close()
}
