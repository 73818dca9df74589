package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"ffglitch/internal/services"
)

// Wire-format keys.
const (
	KeyFeatures = "features"
	KeySHA1Sum  = "sha1sum"
	KeyStreams  = "streams"
	KeyFrames   = "frames"
	KeyVersion  = "ffedit_version"
	KeyFilename = "filename"
)

// Document is a parsed sidecar. Root keys other than features, sha1sum and
// streams are kept in Extra.
type Document struct {
	SHA1Sum  string
	Features []string
	Streams  []Stream
	Extra    map[string]json.RawMessage

	hasSHA1Sum bool
}

// Stream holds the frames of one media stream.
type Stream struct {
	Frames []Frame
	Extra  map[string]json.RawMessage
}

// Frame maps feature names (and bookkeeping keys such as pts) to raw JSON.
type Frame map[string]json.RawMessage

// Load reads and decodes the sidecar at path. A missing file is returned as
// an fs.ErrNotExist error so callers can tell absence from corruption.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses sidecar JSON. Failures match services.ErrMalformedDocument.
func Decode(data []byte) (*Document, error) {
	known, extra, err := splitFields(data, KeyFeatures, KeySHA1Sum, KeyStreams)
	if err != nil {
		return nil, malformed("decode root", err)
	}
	doc := &Document{Extra: extra}
	if raw, ok := known[KeyFeatures]; ok {
		if err := json.Unmarshal(raw, &doc.Features); err != nil {
			return nil, malformed("decode features", err)
		}
	}
	if raw, ok := known[KeySHA1Sum]; ok {
		if err := json.Unmarshal(raw, &doc.SHA1Sum); err != nil {
			return nil, malformed("decode sha1sum", err)
		}
		doc.hasSHA1Sum = true
	}
	if raw, ok := known[KeyStreams]; ok {
		if err := json.Unmarshal(raw, &doc.Streams); err != nil {
			return nil, malformed("decode streams", err)
		}
	}
	return doc, nil
}

// Encode serializes the document. Pretty output is indented by two spaces.
func Encode(doc *Document, pretty bool) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("encode: nil document")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if d.Features != nil {
		known[KeyFeatures] = d.Features
	}
	if d.hasSHA1Sum || d.SHA1Sum != "" {
		known[KeySHA1Sum] = d.SHA1Sum
	}
	if d.Streams != nil {
		known[KeyStreams] = d.Streams
	}
	return joinFields(d.Extra, known)
}

// Version returns the ffedit_version root key when present.
func (d *Document) Version() string {
	return d.extraString(KeyVersion)
}

// Filename returns the source filename recorded by ffedit, if any.
func (d *Document) Filename() string {
	return d.extraString(KeyFilename)
}

func (d *Document) extraString(key string) string {
	raw, ok := d.Extra[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// FramesWith counts the frames, across all streams, that carry feature.
func (d *Document) FramesWith(feature string) int {
	return lo.SumBy(d.Streams, func(s Stream) int {
		return lo.CountBy(s.Frames, func(f Frame) bool { return f.Has(feature) })
	})
}

// FrameCount returns the total number of frames across streams.
func (d *Document) FrameCount() int {
	return lo.SumBy(d.Streams, func(s Stream) int { return len(s.Frames) })
}

// MarshalJSON implements json.Marshaler.
func (s Stream) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if s.Frames != nil {
		known[KeyFrames] = s.Frames
	}
	return joinFields(s.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Stream) UnmarshalJSON(data []byte) error {
	known, extra, err := splitFields(data, KeyFrames)
	if err != nil {
		return err
	}
	s.Extra = extra
	s.Frames = nil
	if raw, ok := known[KeyFrames]; ok {
		if err := json.Unmarshal(raw, &s.Frames); err != nil {
			return fmt.Errorf("frames: %w", err)
		}
	}
	return nil
}

// Has reports whether the frame carries key, even when its value is null.
func (f Frame) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Keys returns the frame's keys in sorted order.
func (f Frame) Keys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Int64 reads an integer bookkeeping key such as pts, dts or pkt_pos.
func (f Frame) Int64(key string) (int64, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Payload decodes the typed payload stored under feature.
func (f Frame) Payload(feature string) (Payload, error) {
	raw, ok := f[feature]
	if !ok {
		return nil, fmt.Errorf("frame has no %q payload", feature)
	}
	return DecodePayload(feature, raw)
}

// SetPayload encodes p and stores it under feature.
func (f Frame) SetPayload(feature string, p Payload) error {
	raw, err := EncodePayload(p)
	if err != nil {
		return err
	}
	f[feature] = raw
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		SHA1Sum:    d.SHA1Sum,
		Features:   slices.Clone(d.Features),
		Extra:      cloneExtra(d.Extra),
		hasSHA1Sum: d.hasSHA1Sum,
	}
	if d.Streams != nil {
		out.Streams = make([]Stream, len(d.Streams))
		for i, s := range d.Streams {
			out.Streams[i] = Stream{Extra: cloneExtra(s.Extra)}
			if s.Frames != nil {
				out.Streams[i].Frames = make([]Frame, len(s.Frames))
				for j, frame := range s.Frames {
					out.Streams[i].Frames[j] = Frame(cloneExtra(frame))
				}
			}
		}
	}
	return out
}

func malformed(op string, err error) error {
	return services.Wrap(services.ErrMalformedDocument, "document", op, "sidecar is not a valid ffedit document", err)
}
