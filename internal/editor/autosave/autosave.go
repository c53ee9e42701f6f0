// Package autosave persists surface snapshots on a debounced schedule:
// rapid edits keep deferring the flush, a quiet period triggers it, and a
// snapshot equal to the last persisted one is never sent again.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"canvasd/internal/editor"
)

// DefaultInterval is the quiet period between the last edit and the
// automatic flush.
const DefaultInterval = 30 * time.Second

// PersistFunc writes one snapshot to durable storage. The scheduler never
// retries on its own; a later edit cycle picks the content up again.
type PersistFunc func(ctx context.Context, blob editor.StateBlob) error

// Config wires a Scheduler to its surface and storage.
type Config struct {
	Surface  editor.Surface
	Persist  PersistFunc
	Interval time.Duration // zero means DefaultInterval
	Logger   zerolog.Logger
}

// Scheduler debounces mutation signals into persistence calls. At most one
// persistence call is in flight at a time; an attempt while one is running
// is dropped, not queued.
type Scheduler struct {
	surface  editor.Surface
	persist  PersistFunc
	interval time.Duration
	log      zerolog.Logger

	mu          sync.Mutex
	timer       *time.Timer
	lastFlushed editor.StateBlob
	inFlight    bool
	closed      bool
}

// New validates the config and constructs a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Surface == nil {
		return nil, errors.New("autosave: surface is required")
	}
	if cfg.Persist == nil {
		return nil, errors.New("autosave: persist func is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Scheduler{
		surface:  cfg.Surface,
		persist:  cfg.Persist,
		interval: cfg.Interval,
		log:      cfg.Logger,
	}, nil
}

// OnMutation (re)arms the debounce timer. A pending timer is cancelled and
// replaced, so at most one flush deadline exists at a time. After Teardown
// it does nothing.
func (s *Scheduler) OnMutation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("autosave flush failed")
		}
	})
}

// Flush persists the current surface state. It returns nil immediately
// when a flush is already in flight or when the state equals the last
// persisted snapshot. A persistence failure is returned to the caller and
// leaves the last-persisted marker untouched, so the next differing flush
// naturally carries the content again.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil
	}
	blob := s.surface.Serialize()
	if blob.Equal(s.lastFlushed) {
		s.mu.Unlock()
		return nil
	}
	s.inFlight = true
	s.mu.Unlock()

	err := s.persist(ctx, blob)

	s.mu.Lock()
	s.inFlight = false
	if err == nil {
		s.lastFlushed = blob
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("autosave: persist snapshot: %w", err)
	}
	return nil
}

// Teardown cancels any pending timer, performs a final flush and waits for
// it, bounded by ctx. If a flush is already in flight its content stands
// and the final flush is dropped. The scheduler accepts no further
// mutations afterwards. Idempotent.
func (s *Scheduler) Teardown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return s.Flush(ctx)
}
