// Package logging assembles structured slog loggers and formatting helpers used
// across saitan.
//
// It owns the configurable console/JSON handlers and routes output to stderr
// (plus an optional log file) so the archival report on stdout stays clean.
// Context-aware helpers tag log lines with the run ID and current action. The
// package also provides a no-op logger for tests and wiring code that cannot fail.
package logging
