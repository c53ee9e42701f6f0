// Package history maintains a bounded, linear undo/redo log of surface
// snapshots.
package history

import "canvasd/internal/editor"

// DefaultLimit bounds the number of snapshots retained per session.
const DefaultLimit = 50

// Manager records surface snapshots into a single log with a cursor
// marking the currently applied state. The log is strictly linear:
// recording while undone discards the redo branch, and at capacity the
// oldest snapshot is evicted first.
//
// Manager is not safe for concurrent use; the session layer serializes
// access to it.
type Manager struct {
	limit   int
	surface editor.Surface
	log     []editor.StateBlob
	pos     int
}

// New creates a detached manager. A limit of zero or less falls back to
// DefaultLimit.
func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit, pos: -1}
}

// Attach subscribes the manager to the surface's mutation signal and seeds
// the log with the surface's current state. The returned detach function
// removes the subscription; after it runs the manager records and restores
// nothing. Detach is safe to call more than once.
func (m *Manager) Attach(s editor.Surface) (detach func()) {
	m.surface = s
	m.log = m.log[:0]
	m.pos = -1

	cancel := s.Subscribe(m.Record)
	m.Record()

	var done bool
	return func() {
		if done {
			return
		}
		done = true
		cancel()
		m.surface = nil
	}
}

// Record captures the surface state as a new log entry. Any redo branch is
// discarded first; a fresh record always invalidates redo.
func (m *Manager) Record() {
	if m.surface == nil {
		return
	}
	blob := m.surface.Serialize()
	m.log = append(m.log[:m.pos+1], blob)
	m.pos = len(m.log) - 1

	if len(m.log) > m.limit {
		excess := len(m.log) - m.limit
		m.log = m.log[excess:]
		m.pos -= excess
	}
}

// Undo restores the previous snapshot and reports whether a step was
// applied. At the start of the log it is a silent no-op: no restore, no
// error.
func (m *Manager) Undo() (bool, error) {
	if !m.CanUndo() {
		return false, nil
	}
	if err := m.surface.Deserialize(m.log[m.pos-1]); err != nil {
		return false, err
	}
	m.pos--
	return true, nil
}

// Redo restores the next snapshot and reports whether a step was applied.
// At the end of the log it is a silent no-op.
func (m *Manager) Redo() (bool, error) {
	if !m.CanRedo() {
		return false, nil
	}
	if err := m.surface.Deserialize(m.log[m.pos+1]); err != nil {
		return false, err
	}
	m.pos++
	return true, nil
}

// CanUndo reports whether a previous snapshot exists.
func (m *Manager) CanUndo() bool {
	return m.surface != nil && m.pos > 0
}

// CanRedo reports whether an undone snapshot can be reapplied.
func (m *Manager) CanRedo() bool {
	return m.surface != nil && m.pos >= 0 && m.pos < len(m.log)-1
}

// Len returns the number of retained snapshots.
func (m *Manager) Len() int {
	return len(m.log)
}
