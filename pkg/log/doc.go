// Package log provides structured event logging for the supervisor.
//
// This package defines the Logger interface and Event type for capturing
// supervisor-level events (transport state changes, sensor measurements,
// storage saves, errors) across every component. It is separate from
// ad-hoc debug printing: event capture gives a complete, machine-readable
// trace for field diagnosis.
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary file
//	fileLogger, _ := log.NewFileLogger("/var/log/supervisor/device.clog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Log files use CBOR encoding.
package log
