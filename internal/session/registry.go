package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"canvasd/internal/canvas"
	"canvasd/internal/domain"
	"canvasd/internal/editor"
	"canvasd/internal/editor/autosave"
	"canvasd/internal/editor/history"
)

// Config tunes every session the registry opens.
type Config struct {
	Store            domain.SnapshotStore
	HistoryLimit     int           // zero means history.DefaultLimit
	AutosaveInterval time.Duration // zero means autosave.DefaultInterval
	Logger           zerolog.Logger
}

// Registry owns the open editing sessions, keyed by session id.
type Registry struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, sessions: make(map[string]*Session)}
}

// Open starts a session for the document, restoring the latest persisted
// snapshot when one exists so the history seed entry is the persisted
// state. An empty documentID starts a fresh document; an empty title
// keeps the stored title, falling back to domain.DefaultTitle.
func (r *Registry) Open(ctx context.Context, documentID, title string) (*Session, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}

	c := canvas.New()
	var doc domain.Document
	snap, err := r.cfg.Store.Load(ctx, documentID)
	switch {
	case err == nil:
		if err := c.Deserialize(snap.Blob); err != nil {
			return nil, fmt.Errorf("session: restore document %s: %w", documentID, err)
		}
		doc = snap.Document
		if title != "" {
			doc.Title = title
		}
	case errors.Is(err, domain.ErrNotFound):
		if title == "" {
			title = domain.DefaultTitle
		}
		now := time.Now().UTC()
		doc = domain.Document{ID: documentID, Title: title, CreatedAt: now, UpdatedAt: now}
	default:
		return nil, fmt.Errorf("session: load snapshot: %w", err)
	}

	logger := r.cfg.Logger.With().Str("document_id", doc.ID).Logger()

	saver, err := autosave.New(autosave.Config{
		Surface:  c,
		Interval: r.cfg.AutosaveInterval,
		Logger:   logger,
		Persist: func(ctx context.Context, blob editor.StateBlob) error {
			return r.cfg.Store.Save(ctx, doc, blob)
		},
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:       uuid.NewString(),
		Document: doc,
		canvas:   c,
		history:  history.New(r.cfg.HistoryLimit),
		saver:    saver,
	}
	s.detach = s.history.Attach(c)
	s.unsubSave = c.Subscribe(saver.OnMutation)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s, nil
}

// Get returns the open session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Close removes the session from the registry and closes it, flushing any
// pending snapshot.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return domain.ErrNotFound
	}
	return s.Close(ctx)
}

// CloseAll drains every open session, flushing pending snapshots. Used on
// shutdown; failures are logged, not returned, so one broken session does
// not stop the drain.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			r.cfg.Logger.Error().Err(err).
				Str("session_id", s.ID).
				Str("document_id", s.Document.ID).
				Msg("final flush failed")
		}
	}
}
