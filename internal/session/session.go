// Package session wires one canvas to its undo history and autosave
// scheduler and serializes access to the trio. A session owns the wiring
// the editor core leaves to its host: the mutation signal feeds both
// components, and programmatic restores during undo/redo fire no signal.
package session

import (
	"context"
	"sync"

	"canvasd/internal/canvas"
	"canvasd/internal/domain"
	"canvasd/internal/editor/autosave"
	"canvasd/internal/editor/history"
)

// State is a point-in-time view of a session for API responses.
type State struct {
	Objects []canvas.Object `json:"objects"`
	CanUndo bool            `json:"can_undo"`
	CanRedo bool            `json:"can_redo"`
}

// Session is one editing session over a document's canvas. All operations
// are serialized behind the session lock; only the persistence call inside
// a flush runs outside it.
type Session struct {
	ID       string
	Document domain.Document

	mu        sync.Mutex
	canvas    *canvas.Canvas
	history   *history.Manager
	saver     *autosave.Scheduler
	detach    func()
	unsubSave func()
	closed    bool
}

// AddObject appends a new object to the canvas. The mutation records a
// history entry and arms the autosave timer.
func (s *Session) AddObject(kind string, props map[string]any) (canvas.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return canvas.Object{}, domain.ErrSessionClosed
	}
	return s.canvas.Add(kind, props)
}

// RemoveObject deletes an object from the canvas.
func (s *Session) RemoveObject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	return s.canvas.Remove(id)
}

// ModifyObject merges property updates into an object.
func (s *Session) ModifyObject(id string, props map[string]any) (canvas.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return canvas.Object{}, domain.ErrSessionClosed
	}
	return s.canvas.Modify(id, props)
}

// Undo steps the canvas back one history entry and reports whether a step
// was applied. At the start of the history it is a no-op.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, domain.ErrSessionClosed
	}
	return s.history.Undo()
}

// Redo reapplies the next history entry and reports whether a step was
// applied.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, domain.ErrSessionClosed
	}
	return s.history.Redo()
}

// Save flushes the current state immediately, bypassing the debounce
// window. The flush runs outside the session lock so edits are not blocked
// while persistence is in flight.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	saver := s.saver
	s.mu.Unlock()

	return saver.Flush(ctx)
}

// State returns the current objects and undo/redo availability.
func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, domain.ErrSessionClosed
	}
	return State{
		Objects: s.canvas.Objects(),
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
	}, nil
}

// Close detaches the history listener, cancels the autosave timer and
// performs a final flush so the last edit is not lost. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.detach()
	s.unsubSave()
	saver := s.saver
	s.mu.Unlock()

	return saver.Teardown(ctx)
}
