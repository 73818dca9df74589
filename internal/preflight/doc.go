// Package preflight provides readiness checks for the external tool and the
// filesystem paths ffglitch writes into.
//
// These checks run in two contexts:
//   - The pipeline runner calls RunAll before extracting anything, so a
//     missing ffedit or an unwritable output directory fails fast instead of
//     after a long export.
//   - The CLI "ffglitch doctor" command prints every result.
//
// Optional paths (history, metrics, log file) are only checked when configured.
package preflight
