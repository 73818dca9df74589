// Package pipeline wires the extract, transform, and apply stages into one run.
//
// A run derives the sidecar path, takes the sidecar lock, reuses a valid
// sidecar or exports a fresh one with ffedit, applies the transform to every
// frame that carries the requested feature, writes the mutated document to a
// temporary file, and hands it back to ffedit to produce the output. The
// temporary file is removed only when the apply pass succeeded and the caller
// did not ask to keep it.
//
// Runs are sequential. Every run gets a UUID that tags its log lines, its
// temporary file name, its journal entry, and its metrics.
package pipeline
