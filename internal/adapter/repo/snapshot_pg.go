package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canvasd/internal/domain"
)

// SnapshotRepositoryPG implements domain.SnapshotStore using PostgreSQL.
type SnapshotRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository constructs a snapshot repository backed by the pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepositoryPG {
	return &SnapshotRepositoryPG{pool: pool}
}

// Save upserts the document's snapshot and metadata. created_at survives
// overwrites; updated_at always advances.
func (r *SnapshotRepositoryPG) Save(ctx context.Context, doc domain.Document, blob []byte) error {
	query := `
INSERT INTO canvas_documents (document_id, title, blob, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (document_id)
DO UPDATE SET title = EXCLUDED.title, blob = EXCLUDED.blob, updated_at = NOW();
`
	_, err := r.pool.Exec(ctx, query, doc.ID, doc.Title, blob)
	return err
}

// Load fetches the document's latest snapshot.
func (r *SnapshotRepositoryPG) Load(ctx context.Context, documentID string) (*domain.Snapshot, error) {
	query := `
SELECT document_id, title, blob, created_at, updated_at
FROM canvas_documents
WHERE document_id = $1;
`
	row := r.pool.QueryRow(ctx, query, documentID)

	var snap domain.Snapshot
	if err := row.Scan(
		&snap.Document.ID,
		&snap.Document.Title,
		&snap.Blob,
		&snap.Document.CreatedAt,
		&snap.Document.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}
