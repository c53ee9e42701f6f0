package domain

import "context"

// Snapshot is the latest persisted canvas state of one document, together
// with the document's metadata.
type Snapshot struct {
	Document Document
	Blob     []byte
}

// SnapshotStore persists the newest snapshot per document. Save replaces
// any previous snapshot and refreshes the document's updated-at stamp,
// keeping its created-at; Load returns ErrNotFound when the document has
// never been saved.
type SnapshotStore interface {
	Save(ctx context.Context, doc Document, blob []byte) error
	Load(ctx context.Context, documentID string) (*Snapshot, error)
}
