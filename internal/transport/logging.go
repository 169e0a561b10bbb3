// SPDX-License-Identifier: MIT
package transport

import (
	applog "notedetect/internal/log"
	"notedetect/internal/note"
)

// LoggingTransport implements the Transport interface by logging events to
// the console. Always registered so a bare invocation still shows output.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

// Send logs the event through the application logger.
func (lt *LoggingTransport) Send(event note.Event) error {
	applog.Infof("note %s %s (midi %d, %.2f Hz)",
		event.Type, event.Name, event.Note, event.Frequency)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
