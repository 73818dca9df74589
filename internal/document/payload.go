package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is a typed view of one frame's feature data.
type Payload interface {
	json.Marshaler
	json.Unmarshaler
}

// NewPayload returns an empty payload of the type used for feature.
func NewPayload(feature string) Payload {
	switch feature {
	case "mv", "mv_delta":
		return &MotionVectors{}
	case "q_dc", "q_dct":
		return &Coefficients{}
	case "dqt":
		return &Matrix{}
	case "mb":
		return &Macroblocks{}
	case "qscale":
		return &QScale{}
	default:
		return &Raw{}
	}
}

// DecodePayload parses raw as the payload type for feature. A null payload
// decodes to the type's zero value.
func DecodePayload(feature string, raw json.RawMessage) (Payload, error) {
	p := NewPayload(feature)
	if isNull(raw) {
		return p, nil
	}
	if err := p.UnmarshalJSON(raw); err != nil {
		return nil, malformed("decode "+feature, err)
	}
	return p, nil
}

// IsNull reports whether raw is the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return isNull(raw)
}

// EncodePayload serializes p.
func EncodePayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage(jsonNull), nil
	}
	data, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Raw holds a payload this package has no typed model for.
type Raw struct {
	Data json.RawMessage
}

// MarshalJSON implements json.Marshaler.
func (r *Raw) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return jsonNull, nil
	}
	if !json.Valid(r.Data) {
		return nil, fmt.Errorf("raw payload is not valid JSON")
	}
	return r.Data, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Raw) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("raw payload is not valid JSON")
	}
	r.Data = append(json.RawMessage(nil), data...)
	return nil
}
