// SPDX-License-Identifier: MIT
package transport

import (
	applog "leopold/internal/log"
)

// LoggingTransport writes every event to the application log at debug
// level. Useful as a liveness trace in headless runs.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

// Send logs the event. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	applog.Debugf("transport: %+v", data)
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
