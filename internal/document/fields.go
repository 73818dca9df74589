package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

var jsonNull = []byte("null")

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// splitFields decodes a JSON object and pulls out the named keys. Keys whose
// value is null stay in extra so they round-trip with their original spelling.
func splitFields(data []byte, keys ...string) (known, extra map[string]json.RawMessage, err error) {
	if isNull(data) {
		return nil, nil, fmt.Errorf("expected object, got null")
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, nil, err
	}
	known = make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		raw, ok := extra[key]
		if !ok || isNull(raw) {
			continue
		}
		known[key] = raw
		delete(extra, key)
	}
	if len(extra) == 0 {
		extra = nil
	}
	return known, extra, nil
}

// joinFields merges typed values over the preserved extras. encoding/json
// sorts map keys, which keeps the output deterministic.
func joinFields(extra map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	out := make(map[string]any, len(extra)+len(known))
	for key, raw := range extra {
		out[key] = raw
	}
	maps.Copy(out, known)
	return json.Marshal(out)
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for key, raw := range extra {
		out[key] = append(json.RawMessage(nil), raw...)
	}
	return out
}
