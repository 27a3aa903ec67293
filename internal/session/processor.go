// SPDX-License-Identifier: MIT
package session

import (
	"errors"
	"os"
	"time"

	"leopold/internal/capture"
	"leopold/internal/dsp"
	applog "leopold/internal/log"
	"leopold/internal/store"
	"leopold/internal/wavenc"
)

// finalize releases the device, then runs the processing pipeline:
// assemble, extract features, encode, publish to the store. The device
// is released before any processing so it is freed even when encoding
// fails. Feature extraction is best effort; encoding is not.
func (c *Controller) finalize(s *liveSession) error {
	if err := s.stream.Release(); err != nil {
		applog.Warnf("session: releasing capture stream: %v", err)
	}

	buf, err := s.assembler.Finalize()
	if err != nil {
		c.discardMirror(s)
		c.clearActive()
		c.publish(Event{Status: StatusError, Reason: "recording assembly failed: " + err.Error()})
		return err
	}

	var features *dsp.Features
	if c.cfg.Recording.ComputeFeatures && buf.Frames() > 0 {
		f, ferr := dsp.ExtractFeatures(buf.Mono(), buf.SampleRate(), c.window)
		if ferr != nil {
			applog.Warnf("session: feature extraction skipped: %v", ferr)
		} else {
			features = f
		}
	}

	wavBytes, err := wavenc.Encode(buf)
	if err != nil {
		c.discardMirror(s)
		c.clearActive()
		applog.Errorf("session: WAV encoding failed: %v", err)
		c.publish(Event{Status: StatusError, Reason: "encoding failed: " + err.Error()})
		return err
	}

	var path string
	if s.mirror != nil {
		path = s.mirror.Path()
		if cerr := s.mirror.Close(); cerr != nil {
			applog.Warnf("session: closing mirror file: %v", cerr)
			path = ""
		}
		s.mirror = nil
	}

	c.store.SetCurrent(&store.Recording{
		WAV:       wavBytes,
		Duration:  buf.Duration(),
		Features:  features,
		CreatedAt: time.Now(),
		Path:      path,
	})

	c.clearActive()
	c.publish(Event{Status: StatusStopped, ElapsedSeconds: buf.Duration()})
	applog.Infof("session: recorded %.2fs (%d bytes)", buf.Duration(), len(wavBytes))
	return nil
}

// cancel discards all accumulated audio and returns to Idle. The store
// keeps whatever recording it already holds.
func (c *Controller) cancel(s *liveSession) {
	if err := s.stream.Release(); err != nil {
		applog.Warnf("session: releasing capture stream: %v", err)
	}
	s.assembler.Reset()
	c.discardMirror(s)
	c.clearActive()
	c.publish(Event{Status: StatusIdle})
	applog.Infof("session: canceled, no recording produced")
}

// fail handles mid-session device loss: release, discard, report.
func (c *Controller) fail(s *liveSession, err error) {
	if relErr := s.stream.Release(); relErr != nil {
		applog.Warnf("session: releasing capture stream: %v", relErr)
	}
	s.assembler.Reset()
	c.discardMirror(s)
	c.clearActive()
	c.publish(Event{Status: StatusError, Reason: reasonFor(err)})
	applog.Errorf("session: %v", err)
}

// openMirror creates the on-disk stream writer when mirroring is
// enabled. Mirror setup failures degrade to in-memory recording.
func (c *Controller) openMirror() *wavenc.StreamWriter {
	if !c.cfg.Recording.MirrorToDisk {
		return nil
	}
	if err := os.MkdirAll(c.cfg.Recording.OutputDir, 0o755); err != nil {
		applog.Warnf("session: creating output directory: %v", err)
		return nil
	}
	path := c.cfg.OutputPath(time.Now())
	w, err := wavenc.NewStreamWriter(path, c.cfg.Audio.SampleRate, c.cfg.Audio.ChannelCount)
	if err != nil {
		applog.Warnf("session: opening mirror file: %v", err)
		return nil
	}
	applog.Debugf("session: mirroring to %s", path)
	return w
}

// discardMirror closes and removes a partial mirror file.
func (c *Controller) discardMirror(s *liveSession) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Close(); err != nil {
		applog.Warnf("session: closing mirror file: %v", err)
	}
	if err := os.Remove(s.mirror.Path()); err != nil {
		applog.Warnf("session: removing partial mirror file: %v", err)
	}
	s.mirror = nil
}

// reasonFor maps pipeline errors to the human-readable reasons carried
// on error events, so a UI can guide the user instead of showing a raw
// failure string.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, capture.ErrPermission):
		return "microphone access denied or unavailable - check input permissions and device selection"
	case errors.Is(err, capture.ErrDevice):
		return "the audio device failed during recording - check the microphone connection"
	default:
		return err.Error()
	}
}
