// Package logging assembles structured slog loggers and formatting helpers used
// across reelsmith.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with run IDs, stages, and correlation IDs. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Console output goes to stderr so that command results printed on stdout stay
// machine-readable. When a log directory is configured, every record is also
// appended as JSON to reelsmith.log there.
package logging
