// Package log provides structured acquisition event capture.
//
// This package defines the Logger interface and Event types for
// recording what a camera session does: acquisition state changes,
// delivered frames, feature reads and writes, and errors. It is
// separate from operational logging (slog) - event capture produces a
// complete machine-readable trace for debugging and offline analysis.
//
// # Basic Usage
//
// Sessions are given a Logger implementation:
//
//	// For development: log to console via slog
//	cam.SetEventLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to a binary file
//	l, _ := log.NewFileLogger("/var/log/gencam/cam0.clog")
//	cam.SetEventLogger(l)
//
//	// Both at once
//	cam.SetEventLogger(log.NewMultiLogger(adapter, l))
//
// # File Format
//
// Log files are a concatenated stream of CBOR-encoded events with
// integer keys. Reader streams them back, optionally filtered.
package log
