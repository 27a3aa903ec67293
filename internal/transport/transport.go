// SPDX-License-Identifier: MIT
/*
Package transport ships session events to external consumers: a
WebSocket hub for observation UIs and a debug logging sink. Transports
never block the session loop; under pressure they drop rather than
stall.
*/
package transport

// Transport delivers session events to one consumer. Implementations
// must be safe for concurrent use and must not block in Send.
type Transport interface {
	Send(data any) error
	Close() error
}

// Fanout forwards every event to each transport in order. Send errors
// are swallowed per transport so one bad sink cannot starve the rest.
type Fanout []Transport

func (f Fanout) Send(data any) error {
	for _, t := range f {
		_ = t.Send(data)
	}
	return nil
}

// Close closes every transport and returns the first error seen.
func (f Fanout) Close() error {
	var first error
	for _, t := range f {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Transport = (Fanout)(nil)
