package document

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Shape returns a structural signature of a JSON value. Two values share a
// signature when they have the same nesting, array lengths, object keys and
// null positions; scalar values and object key order do not matter.
func Shape(raw []byte) (uint64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	d := xxhash.New()
	writeShape(d, v)
	return d.Sum64(), nil
}

// PayloadShape is Shape applied to an encoded payload.
func PayloadShape(p Payload) (uint64, error) {
	raw, err := EncodePayload(p)
	if err != nil {
		return 0, err
	}
	return Shape(raw)
}

func writeShape(d *xxhash.Digest, v any) {
	var lenBuf [binary.MaxVarintLen64]byte
	switch t := v.(type) {
	case nil:
		_, _ = d.Write([]byte{'z'})
	case bool:
		_, _ = d.Write([]byte{'b'})
	case json.Number:
		_, _ = d.Write([]byte{'n'})
	case string:
		_, _ = d.Write([]byte{'s'})
	case []any:
		_, _ = d.Write([]byte{'['})
		n := binary.PutUvarint(lenBuf[:], uint64(len(t)))
		_, _ = d.Write(lenBuf[:n])
		for _, elem := range t {
			writeShape(d, elem)
		}
		_, _ = d.Write([]byte{']'})
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		_, _ = d.Write([]byte{'{'})
		for _, key := range keys {
			_, _ = d.WriteString(key)
			_, _ = d.Write([]byte{':'})
			writeShape(d, t[key])
		}
		_, _ = d.Write([]byte{'}'})
	}
}
