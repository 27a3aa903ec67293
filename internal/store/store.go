// SPDX-License-Identifier: MIT
/*
Package store holds the most recent finished Recording for external
consumers (the observation-submission flow, the CLI). At most one
Recording is current at a time; replacing or clearing it releases the
previous value's transient resources and notifies subscribers.
*/
package store

import (
	"sync"
	"time"

	"leopold/internal/dsp"
	applog "leopold/internal/log"
)

// Recording is the immutable artifact of one completed capture session.
type Recording struct {
	// WAV is the complete encoded container, ready for upload or
	// playback.
	WAV []byte

	// Duration is the captured length in seconds, frames / rate.
	Duration float64

	// Features is the extracted descriptor set, nil when computation
	// was disabled or failed.
	Features *dsp.Features

	// CreatedAt is when the session finalized.
	CreatedAt time.Time

	// Path is the mirrored on-disk WAV, empty when mirroring was off.
	Path string

	// Cleanup releases transient resources tied to this Recording
	// (preview files and the like). The store invokes it when the
	// Recording is superseded or cleared. May be nil.
	Cleanup func() error
}

// Store is the hand-off point between the recording pipeline and the
// out-of-scope submission flow.
type Store struct {
	mu        sync.RWMutex
	current   *Recording
	listeners map[int]func(*Recording)
	nextID    int
}

func New() *Store {
	return &Store{listeners: make(map[int]func(*Recording))}
}

// Current returns the held Recording, nil if none.
func (s *Store) Current() *Recording {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrent replaces the held Recording, releasing the previous one's
// resources and notifying subscribers with the new value.
func (s *Store) SetCurrent(rec *Recording) {
	s.mu.Lock()
	prev := s.current
	s.current = rec
	fns := s.snapshotLocked()
	s.mu.Unlock()

	release(prev)
	for _, fn := range fns {
		fn(rec)
	}
}

// Clear releases and drops the held Recording. A no-op when nothing is
// held; subscribers are notified only on an actual change.
func (s *Store) Clear() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	var fns []func(*Recording)
	if prev != nil {
		fns = s.snapshotLocked()
	}
	s.mu.Unlock()

	release(prev)
	for _, fn := range fns {
		fn(nil)
	}
}

// Subscribe registers fn to run on every change, with the new value
// (nil on clear). The returned function unsubscribes.
func (s *Store) Subscribe(fn func(*Recording)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// snapshotLocked copies the listener set so notification runs outside
// the lock. Callers must hold mu.
func (s *Store) snapshotLocked() []func(*Recording) {
	fns := make([]func(*Recording), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func release(rec *Recording) {
	if rec == nil || rec.Cleanup == nil {
		return
	}
	if err := rec.Cleanup(); err != nil {
		applog.Warnf("store: releasing previous recording: %v", err)
	}
}
