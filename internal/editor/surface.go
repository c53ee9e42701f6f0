// Package editor defines the contracts shared by the history and autosave
// components: an opaque serialized snapshot and the surface producing it.
package editor

import "bytes"

// StateBlob is a serialized snapshot of the full editable surface at one
// instant. It is treated as an immutable value; snapshots are canonical
// byte sequences, so structural equality is byte equality.
type StateBlob []byte

// Equal reports whether two snapshots represent the same state.
func (b StateBlob) Equal(other StateBlob) bool {
	return bytes.Equal(b, other)
}

// Surface is the editable drawing surface as seen by the history and
// autosave components. Implementations fire the mutation signal on every
// user-visible edit (object add, remove, or property change) and never
// from Deserialize: a programmatic restore is not an edit.
type Surface interface {
	// Serialize captures the current surface state.
	Serialize() StateBlob

	// Deserialize replaces the surface state with a previously captured
	// snapshot. It completes synchronously and fires no mutation signal.
	Deserialize(blob StateBlob) error

	// Subscribe registers fn to run after every mutation. The returned
	// cancel removes the subscription; calling it again is a no-op.
	Subscribe(fn func()) (cancel func())
}
