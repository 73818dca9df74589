// Package config loads, normalizes, and validates ffglitch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FFEDIT_PATH. The Config type centralizes every knob the CLI and pipeline
// need: the ffedit binary and its options, the sidecar cache policy, document
// checks, logging, the run journal, and metrics output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
