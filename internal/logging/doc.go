// Package logging assembles structured slog loggers and formatting helpers used
// across ffglitch.
//
// It owns the configurable console/JSON handlers, an optional size-rotated log
// file, and context-aware helpers so stage code can tag log lines with the run
// ID, stage, and feature. NewHCLogger bridges go-plugin's hclog output back
// into slog. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
