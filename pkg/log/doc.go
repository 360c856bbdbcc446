// Package log provides structured supervision-event logging for pushwire.
//
// Events capture the connection supervisor's observable behavior: state
// transitions, connect attempts in both phases, and detected drops with a
// runtime-counters snapshot. They are encoded as CBOR with integer keys
// for compactness, written append-only by FileLogger, and read back with
// Reader for the pushwire-log analyzer.
//
// Applications that only want console output can wrap an *slog.Logger in
// SlogAdapter, or fan out to several sinks with MultiLogger.
package log
