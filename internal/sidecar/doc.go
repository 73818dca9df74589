// Package sidecar decides whether a previously exported ffedit document can
// be reused for an input file.
//
// The sidecar for clip.avi lives at clip.json. It is reusable only when its
// feature list is exactly the requested feature and its sha1sum matches the
// input's current content. Misses are values (MissReason), never errors; a
// present but unreadable sidecar is a malformed-document error unless the
// validator was built with WithCorruptAsMiss.
//
// Lock serialises concurrent runs on the same input through a flock on a
// per-sidecar file in the temp directory.
package sidecar
