// Package transform runs a user transform across every frame of a sidecar
// document that carries the selected feature.
//
// A Transform receives the frame's typed payload and an explicit
// FrameContext; it edits the payload in place. Frames without the feature
// are skipped. With strict shape checking the Stage rejects any edit that
// changes array lengths, nesting or null positions, because ffedit can only
// apply a document shaped exactly like the one it exported.
//
// Transforms come from the built-in registry or from an external plugin
// binary speaking the go-plugin net/rpc protocol (see Serve).
package transform
