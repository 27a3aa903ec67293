// SPDX-License-Identifier: MIT
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"leopold/internal/capture"
	"leopold/internal/config"
	"leopold/internal/dsp"
	applog "leopold/internal/log"
	"leopold/internal/signal"
	"leopold/internal/store"
	"leopold/internal/wavenc"
)

var (
	// ErrSessionActive reports a Start while a session is running.
	// One session owns the device at a time.
	ErrSessionActive = errors.New("session: a session is already active")

	// ErrNotRecording reports a Stop or Cancel with nothing to act on.
	ErrNotRecording = errors.New("session: no active recording")
)

type ctrlKind int

const (
	ctrlStop ctrlKind = iota
	ctrlCancel
)

type ctrlMsg struct {
	kind ctrlKind
	resp chan error
}

// Controller drives one recording session at a time through
// Idle → RequestingPermission → Recording → Stopped/Error, owning the
// capture stream for the session's lifetime and publishing progress
// events along the way.
type Controller struct {
	cfg    *config.Config
	device capture.Device
	store  *store.Store
	window dsp.WindowType

	mu            sync.Mutex
	status        Status
	elapsed       float64
	level         float64
	reason        string
	active        *liveSession
	pendingCancel bool
	listeners     map[int]func(Event)
	nextID        int
}

// liveSession is the per-session state owned by the run loop.
type liveSession struct {
	stream    capture.Stream
	assembler *signal.Assembler
	mirror    *wavenc.StreamWriter
	ctrl      chan ctrlMsg
	done      chan struct{}
}

// NewController wires a controller to its device and store. The window
// name comes pre-validated from config.
func NewController(cfg *config.Config, dev capture.Device, st *store.Store) *Controller {
	wt, _ := dsp.ParseWindowType(cfg.Recording.Window)
	return &Controller{
		cfg:       cfg,
		device:    dev,
		store:     st,
		window:    wt,
		status:    StatusIdle,
		listeners: make(map[int]func(Event)),
	}
}

// Snapshot returns the current state for polling consumers. Push
// consumers use AddListener instead.
func (c *Controller) Snapshot() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Event{
		Status:         c.status,
		ElapsedSeconds: c.elapsed,
		LiveLevel:      c.level,
		Reason:         c.reason,
	}
}

// AddListener registers fn for every event. Listeners run on the
// controller's goroutines and must return quickly and never call back
// into the controller. The returned function unregisters.
func (c *Controller) AddListener(fn func(Event)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Start begins a new session: device acquisition first (the one
// externally blocking step, it may prompt the user), then the record
// loop. Fails with ErrSessionActive when a session is running;
// acquisition failures land in StatusError with a human-readable
// reason.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.active != nil || c.status == StatusRequestingPermission {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.pendingCancel = false
	ev := Event{Status: StatusRequestingPermission}
	c.applyLocked(ev)
	fns := c.listenersLocked()
	c.mu.Unlock()
	c.fanOut(fns, ev)

	stream, err := c.device.Acquire(capture.StreamConfig{
		SampleRate:      c.cfg.Audio.SampleRate,
		ChannelCount:    c.cfg.Audio.ChannelCount,
		FramesPerBuffer: c.cfg.Audio.FramesPerBuffer,
	})

	c.mu.Lock()
	canceled := c.pendingCancel
	c.pendingCancel = false
	c.mu.Unlock()

	if err != nil {
		if canceled {
			c.publish(Event{Status: StatusIdle})
			return nil
		}
		c.publish(Event{Status: StatusError, Reason: reasonFor(err)})
		return err
	}
	if canceled {
		stream.Release()
		c.publish(Event{Status: StatusIdle})
		return nil
	}

	asm, err := signal.NewAssembler(c.cfg.Audio.SampleRate, c.cfg.Audio.ChannelCount)
	if err != nil {
		stream.Release()
		c.publish(Event{Status: StatusError, Reason: reasonFor(err)})
		return err
	}

	s := &liveSession{
		stream:    stream,
		assembler: asm,
		mirror:    c.openMirror(),
		ctrl:      make(chan ctrlMsg),
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.active = s
	c.mu.Unlock()
	c.publish(Event{Status: StatusRecording})

	go c.run(s)
	return nil
}

// Stop ends the active recording and runs the finalize pipeline. The
// error reflects finalization; a session that already ended on its own
// is not an error.
func (c *Controller) Stop() error {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	if s == nil {
		return ErrNotRecording
	}

	resp := make(chan error, 1)
	select {
	case s.ctrl <- ctrlMsg{kind: ctrlStop, resp: resp}:
		return <-resp
	case <-s.done:
		return nil
	}
}

// Cancel discards the active session and returns to Idle without
// producing a Recording. Effective before the next buffered chunk is
// processed. During permission requests the cancellation applies as
// soon as acquisition resolves.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	s := c.active
	if s == nil {
		if c.status == StatusRequestingPermission {
			c.pendingCancel = true
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		return ErrNotRecording
	}
	c.mu.Unlock()

	resp := make(chan error, 1)
	select {
	case s.ctrl <- ctrlMsg{kind: ctrlCancel, resp: resp}:
		return <-resp
	case <-s.done:
		return nil
	}
}

// Close tears the controller down, discarding any active session.
func (c *Controller) Close() error {
	err := c.Cancel()
	if err != nil && !errors.Is(err, ErrNotRecording) {
		return err
	}
	return nil
}

// run is the single consumer of the capture stream. Control requests
// are checked ahead of buffered audio so Stop and Cancel act before the
// next chunk; the ticker drives metering and the auto-stop check.
func (c *Controller) run(s *liveSession) {
	defer close(s.done)

	ticker := time.NewTicker(c.cfg.TickInterval())
	defer ticker.Stop()

	var lastChunk []float64
	for {
		select {
		case msg := <-s.ctrl:
			c.handleCtrl(s, msg)
			return
		default:
		}

		select {
		case msg := <-s.ctrl:
			c.handleCtrl(s, msg)
			return

		case chunk, ok := <-s.stream.Chunks():
			if !ok {
				err := s.stream.Err()
				if err == nil {
					err = fmt.Errorf("%w: input stream ended unexpectedly", capture.ErrDevice)
				}
				c.fail(s, err)
				return
			}
			if err := s.assembler.Append(chunk); err != nil {
				c.fail(s, fmt.Errorf("%w: malformed chunk: %v", capture.ErrDevice, err))
				return
			}
			if s.mirror != nil {
				if err := s.mirror.WriteChunk(chunk); err != nil {
					applog.Warnf("session: disk mirror failed, continuing in memory: %v", err)
					c.discardMirror(s)
				}
			}
			lastChunk = chunk

		case <-ticker.C:
			elapsed := s.assembler.Duration()
			c.publish(Event{
				Status:         StatusRecording,
				ElapsedSeconds: elapsed,
				LiveLevel:      chunkLevel(lastChunk),
				Bands:          bandLevels(lastChunk, c.cfg.Audio.ChannelCount, c.window),
			})
			if elapsed >= c.cfg.Recording.MaxDurationSeconds {
				if err := c.finalize(s); err != nil {
					applog.Errorf("session: auto-stop finalize failed: %v", err)
				}
				return
			}
		}
	}
}

func (c *Controller) handleCtrl(s *liveSession, msg ctrlMsg) {
	switch msg.kind {
	case ctrlStop:
		msg.resp <- c.finalize(s)
	case ctrlCancel:
		c.cancel(s)
		msg.resp <- nil
	}
}

// publish stores ev as the current snapshot and fans it out.
func (c *Controller) publish(ev Event) {
	c.mu.Lock()
	c.applyLocked(ev)
	fns := c.listenersLocked()
	c.mu.Unlock()
	c.fanOut(fns, ev)
}

func (c *Controller) applyLocked(ev Event) {
	c.status = ev.Status
	c.elapsed = ev.ElapsedSeconds
	c.level = ev.LiveLevel
	c.reason = ev.Reason
}

func (c *Controller) listenersLocked() []func(Event) {
	fns := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Controller) fanOut(fns []func(Event), ev Event) {
	for _, fn := range fns {
		fn(ev)
	}
}

func (c *Controller) clearActive() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}
