// Package history keeps a SQLite journal of pipeline runs.
//
// Each run records what was glitched (input, feature, transform, output),
// whether the sidecar cache was reused, how many frames the transform
// touched, and how the run ended. A failed run also records the retained
// temporary document so it can be found later. The `ffglitch history`
// command reads the journal.
package history
