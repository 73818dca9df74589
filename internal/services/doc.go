// Package services defines shared utilities consumed by the pipeline stages and
// the external tool integration.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the selected feature
//     for logging.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable (configuration, external tool, malformed document,
//     transform) all the way up to the CLI exit code.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
