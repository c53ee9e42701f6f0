// Package canvas implements the editable surface: an ordered set of
// drawable objects with canonical JSON snapshots and a mutation signal.
// It owns no rendering; property maps are carried opaquely for whatever
// renders them.
package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"canvasd/internal/domain"
	"canvasd/internal/editor"
)

// Object kinds accepted by Add.
const (
	KindRect     = "rect"
	KindCircle   = "circle"
	KindTriangle = "triangle"
	KindText     = "text"
	KindImage    = "image"
)

const snapshotVersion = 1

// Validation failures wrap domain.ErrInvalidObject so handlers can map
// the whole family on one sentinel.
var (
	ErrObjectNotFound = errors.New("canvas: object not found")
	ErrUnknownKind    = fmt.Errorf("%w: unknown kind", domain.ErrInvalidObject)
)

// Object is one drawable element. Properties hold the geometry and style
// attributes the renderer understands (left, top, fill, skewX, ...); the
// canvas does not interpret them.
type Object struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Properties map[string]any `json:"properties,omitempty"`
}

// snapshot is the serialized form of a full canvas state. Objects keep
// insertion order and property keys marshal sorted, so two equal states
// produce equal bytes.
type snapshot struct {
	Version int      `json:"version"`
	Objects []Object `json:"objects"`
}

// Canvas holds objects in insertion order and notifies subscribers after
// every mutation. It is safe for concurrent use; subscribers run outside
// the canvas lock.
type Canvas struct {
	mu        sync.Mutex
	objects   []Object
	listeners map[int]func()
	nextSub   int
}

// New creates an empty canvas.
func New() *Canvas {
	return &Canvas{listeners: make(map[int]func())}
}

func validKind(kind string) bool {
	switch kind {
	case KindRect, KindCircle, KindTriangle, KindText, KindImage:
		return true
	}
	return false
}

// Add appends a new object of the given kind and returns it with a fresh
// id. Properties are validated to be JSON-serializable on the way in so
// snapshots cannot fail later.
func (c *Canvas) Add(kind string, props map[string]any) (Object, error) {
	if !validKind(kind) {
		return Object{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if _, err := json.Marshal(props); err != nil {
		return Object{}, fmt.Errorf("%w: properties not serializable: %v", domain.ErrInvalidObject, err)
	}

	obj := Object{ID: uuid.NewString(), Kind: kind, Properties: cloneProps(props)}

	c.mu.Lock()
	c.objects = append(c.objects, obj)
	c.mu.Unlock()

	c.notify()
	return obj, nil
}

// Remove deletes the object with the given id.
func (c *Canvas) Remove(id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrObjectNotFound
	}
	c.objects = append(c.objects[:idx], c.objects[idx+1:]...)
	c.mu.Unlock()

	c.notify()
	return nil
}

// Modify merges property updates into the object with the given id and
// returns the updated object.
func (c *Canvas) Modify(id string, props map[string]any) (Object, error) {
	if _, err := json.Marshal(props); err != nil {
		return Object{}, fmt.Errorf("%w: properties not serializable: %v", domain.ErrInvalidObject, err)
	}

	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return Object{}, ErrObjectNotFound
	}
	obj := &c.objects[idx]
	if obj.Properties == nil {
		obj.Properties = make(map[string]any, len(props))
	}
	for k, v := range props {
		obj.Properties[k] = v
	}
	updated := cloneObject(*obj)
	c.mu.Unlock()

	c.notify()
	return updated, nil
}

// Objects returns a copy of the current object list in insertion order.
func (c *Canvas) Objects() []Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneObjects(c.objects)
}

// Serialize captures the full canvas state as a canonical JSON snapshot.
func (c *Canvas) Serialize() editor.StateBlob {
	c.mu.Lock()
	snap := snapshot{Version: snapshotVersion, Objects: cloneObjects(c.objects)}
	c.mu.Unlock()

	// Properties are validated on entry, so this marshal cannot fail.
	b, _ := json.Marshal(snap)
	return b
}

// Deserialize replaces the object set with the snapshot's. No mutation
// signal fires: a programmatic restore is not an edit.
func (c *Canvas) Deserialize(blob editor.StateBlob) error {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("canvas: decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("canvas: unsupported snapshot version %d", snap.Version)
	}

	c.mu.Lock()
	c.objects = cloneObjects(snap.Objects)
	c.mu.Unlock()
	return nil
}

// Subscribe registers fn to run after every mutation. The returned cancel
// removes the subscription and is safe to call more than once.
func (c *Canvas) Subscribe(fn func()) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// notify invokes subscribers outside the canvas lock. Invocation order
// between subscribers is unspecified.
func (c *Canvas) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// indexOf must be called with the lock held.
func (c *Canvas) indexOf(id string) int {
	for i := range c.objects {
		if c.objects[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func cloneObject(obj Object) Object {
	obj.Properties = cloneProps(obj.Properties)
	return obj
}

func cloneObjects(objs []Object) []Object {
	out := make([]Object, len(objs))
	for i, obj := range objs {
		out[i] = cloneObject(obj)
	}
	return out
}
