// SPDX-License-Identifier: MIT
/*
Package session owns the recording state machine: it acquires the
capture device, accumulates chunks in arrival order, meters live level
on a fixed tick, auto-stops at the configured ceiling and, on stop,
assembles the buffer, extracts features, encodes WAV and publishes the
finished Recording to the store.
*/
package session

// Status is the controller's externally visible state.
type Status int

const (
	StatusIdle Status = iota
	StatusRequestingPermission
	StatusRecording
	StatusStopped
	StatusError
)

// String returns the wire name used in events and logs.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRequestingPermission:
		return "requesting-permission"
	case StatusRecording:
		return "recording"
	case StatusStopped:
		return "stopped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText makes Status render as its wire name in JSON events.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event is one progress update: emitted on every state transition and
// on every tick while recording. Consumers see controller state no more
// than one tick interval stale.
type Event struct {
	Status         Status    `json:"status"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	LiveLevel      float64   `json:"liveLevel"`
	Bands          []float64 `json:"bands,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}
