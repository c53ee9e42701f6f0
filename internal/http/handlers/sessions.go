package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"canvasd/internal/canvas"
	"canvasd/internal/domain"
	"canvasd/internal/session"
)

type sessionResponse struct {
	SessionID  string          `json:"session_id"`
	DocumentID string          `json:"document_id"`
	Title      string          `json:"title"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Objects    []canvas.Object `json:"objects"`
	CanUndo    bool            `json:"can_undo"`
	CanRedo    bool            `json:"can_redo"`
}

func sessionResponseFrom(s *session.Session, state session.State) sessionResponse {
	return sessionResponse{
		SessionID:  s.ID,
		DocumentID: s.Document.ID,
		Title:      s.Document.Title,
		CreatedAt:  s.Document.CreatedAt,
		UpdatedAt:  s.Document.UpdatedAt,
		Objects:    state.Objects,
		CanUndo:    state.CanUndo,
		CanRedo:    state.CanRedo,
	}
}

// SessionCreate opens an editing session, restoring the document's latest
// snapshot when one exists. An empty or missing document_id starts a fresh
// document; an empty title keeps the stored one.
func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"document_id"`
		Title      string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := a.Sessions.Open(r.Context(), req.DocumentID, req.Title)
	if err != nil {
		a.Log.Error().Err(err).Msg("open session")
		a.error(w, http.StatusInternalServerError, "could not open session")
		return
	}

	state, err := s.State()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "could not read session state")
		return
	}
	a.json(w, http.StatusCreated, sessionResponseFrom(s, state))
}

// SessionState returns the session's objects and undo/redo availability.
func (a *App) SessionState(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	state, err := s.State()
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionResponseFrom(s, state))
}

// SessionClose ends the session, flushing any pending snapshot.
func (a *App) SessionClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Sessions.Close(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "session not found")
			return
		}
		a.Log.Error().Err(err).Str("session_id", id).Msg("close session")
		a.error(w, http.StatusBadGateway, "final save failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stepResponse struct {
	Applied bool `json:"applied"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// SessionUndo steps the canvas back one history entry. Undo past the start
// of the history is a no-op, reported via "applied": false.
func (a *App) SessionUndo(w http.ResponseWriter, r *http.Request) {
	a.step(w, r, (*session.Session).Undo)
}

// SessionRedo reapplies the next history entry.
func (a *App) SessionRedo(w http.ResponseWriter, r *http.Request) {
	a.step(w, r, (*session.Session).Redo)
}

func (a *App) step(w http.ResponseWriter, r *http.Request, op func(*session.Session) (bool, error)) {
	s, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	applied, err := op(s)
	if err != nil {
		a.sessionError(w, err)
		return
	}
	state, err := s.State()
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, stepResponse{Applied: applied, CanUndo: state.CanUndo, CanRedo: state.CanRedo})
}

// SessionSave flushes the current state immediately, bypassing the
// autosave debounce.
func (a *App) SessionSave(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.Save(r.Context()); err != nil {
		if errors.Is(err, domain.ErrSessionClosed) {
			a.error(w, http.StatusConflict, "session closed")
			return
		}
		a.Log.Error().Err(err).Str("session_id", s.ID).Msg("manual save failed")
		a.error(w, http.StatusBadGateway, "save failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "saved"})
}

// ObjectAdd appends a drawable object to the session's canvas.
func (a *App) ObjectAdd(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Kind       string         `json:"kind"`
		Properties map[string]any `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	obj, err := s.AddObject(req.Kind, req.Properties)
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusCreated, obj)
}

// ObjectModify merges property updates into an object.
func (a *App) ObjectModify(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	obj, err := s.ModifyObject(chi.URLParam(r, "objectID"), req.Properties)
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, obj)
}

// ObjectRemove deletes an object from the canvas.
func (a *App) ObjectRemove(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.RemoveObject(chi.URLParam(r, "objectID")); err != nil {
		a.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := a.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (a *App) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionClosed):
		a.error(w, http.StatusConflict, "session closed")
	case errors.Is(err, canvas.ErrObjectNotFound):
		a.error(w, http.StatusNotFound, "object not found")
	case errors.Is(err, domain.ErrInvalidObject):
		a.error(w, http.StatusBadRequest, "invalid object")
	default:
		a.Log.Error().Err(err).Msg("session operation failed")
		a.error(w, http.StatusInternalServerError, "internal error")
	}
}
