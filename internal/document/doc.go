// Package document models the sidecar JSON that ffedit exports and applies.
//
// A Document carries provenance (sha1sum, features) and a list of streams,
// each holding per-frame feature payloads. Frames keep their payloads as raw
// JSON until a caller asks for a typed view through Frame.Payload, so keys
// this package does not understand survive a load/save round trip untouched.
//
// Typed payloads exist for the features whose shape transforms care about:
// motion vectors (mv, mv_delta) with a tagged entry variant, quantized
// coefficients (q_dc, q_dct), quantization tables (dqt), macroblock grids
// (mb) and slice quantizers (qscale). Everything else decodes to Raw.
//
// Shape computes an order-insensitive structural signature used to make sure
// a transform never changes array dimensionality, and Validate checks a
// document against the embedded CUE schema.
package document
