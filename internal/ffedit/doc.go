// Package ffedit wraps the external ffedit binary that exports codec
// feature data to a sidecar document and applies an edited document back
// onto a media file.
//
// Both passes block until the subprocess exits; the exit status is the only
// success signal. A non-zero exit becomes a *ToolError carrying the argv,
// exit code and a tail of the tool's output, and matches
// services.ErrExternalTool. In verbose mode the command line is logged at
// info level and the tool's output is streamed to the configured writer.
package ffedit
