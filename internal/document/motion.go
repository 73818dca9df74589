package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MV is a single (dx, dy) displacement.
type MV struct {
	DX int
	DY int
}

// MVKind tags the variant held by an MVEntry.
type MVKind uint8

const (
	// MVNone means the macroblock has no vector.
	MVNone MVKind = iota
	// MVSingle is one vector for the whole macroblock.
	MVSingle
	// MVSplit is one vector per prediction sub-block.
	MVSplit
)

// MVEntry is one macroblock's motion data. The variant is fixed at decode
// time; callers switch on Kind instead of inspecting JSON shapes.
type MVEntry struct {
	Kind   MVKind
	Vector MV
	Parts  []MV

	// emptyList remembers that an MVNone entry was spelled [] instead of null.
	emptyList bool
	// holes keeps the original spelling ([] or null) of split sub-blocks
	// that carry no vector. Nil, or aligned with Parts.
	holes []json.RawMessage
}

// Single builds an MVSingle entry.
func Single(dx, dy int) MVEntry {
	return MVEntry{Kind: MVSingle, Vector: MV{DX: dx, DY: dy}}
}

// Split builds an MVSplit entry.
func Split(parts ...MV) MVEntry {
	return MVEntry{Kind: MVSplit, Parts: parts}
}

// PartEmpty reports whether sub-block i of a split entry carries no vector.
func (e *MVEntry) PartEmpty(i int) bool {
	return i < len(e.holes) && e.holes[i] != nil
}

// Vectors returns pointers to every vector in the entry so callers can edit
// them in place regardless of variant.
func (e *MVEntry) Vectors() []*MV {
	switch e.Kind {
	case MVSingle:
		return []*MV{&e.Vector}
	case MVSplit:
		out := make([]*MV, 0, len(e.Parts))
		for i := range e.Parts {
			if e.PartEmpty(i) {
				continue
			}
			out = append(out, &e.Parts[i])
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (e MVEntry) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case MVSingle:
		return json.Marshal([2]int{e.Vector.DX, e.Vector.DY})
	case MVSplit:
		parts := make([]any, len(e.Parts))
		for i, p := range e.Parts {
			if e.PartEmpty(i) {
				parts[i] = e.holes[i]
				continue
			}
			parts[i] = [2]int{p.DX, p.DY}
		}
		return json.Marshal(parts)
	default:
		if e.emptyList {
			return []byte("[]"), nil
		}
		return jsonNull, nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *MVEntry) UnmarshalJSON(data []byte) error {
	*e = MVEntry{}
	if isNull(data) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return fmt.Errorf("motion vector entry: %w", err)
	}
	if len(elems) == 0 {
		e.emptyList = true
		return nil
	}
	if first := bytes.TrimSpace(elems[0]); bytes.HasPrefix(first, []byte("[")) || isNull(first) {
		parts := make([]MV, len(elems))
		var holes []json.RawMessage
		for i, elem := range elems {
			if hole := emptySubBlock(elem); hole != nil {
				if holes == nil {
					holes = make([]json.RawMessage, len(elems))
				}
				holes[i] = hole
				continue
			}
			mv, err := decodePair(elem)
			if err != nil {
				return fmt.Errorf("motion vector sub-block %d: %w", i, err)
			}
			parts[i] = mv
		}
		e.Kind = MVSplit
		e.Parts = parts
		e.holes = holes
		return nil
	}
	mv, err := decodePair(data)
	if err != nil {
		return fmt.Errorf("motion vector: %w", err)
	}
	e.Kind = MVSingle
	e.Vector = mv
	return nil
}

// emptySubBlock returns the spelling of a sub-block without a vector, or nil.
func emptySubBlock(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if isNull(trimmed) {
		return json.RawMessage(jsonNull)
	}
	var elems []json.RawMessage
	if bytes.HasPrefix(trimmed, []byte("[")) && json.Unmarshal(trimmed, &elems) == nil && len(elems) == 0 {
		return json.RawMessage("[]")
	}
	return nil
}

func decodePair(data []byte) (MV, error) {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return MV{}, err
	}
	if len(pair) != 2 {
		return MV{}, errors.New("expected [dx, dy]")
	}
	return MV{DX: pair[0], DY: pair[1]}, nil
}

// MVGrid is rows of per-macroblock entries.
type MVGrid [][]MVEntry

// Each calls fn for every vector in the grid, in row-major order. Entries
// without vectors are skipped.
func (g MVGrid) Each(fn func(mv *MV)) {
	for y := range g {
		for x := range g[y] {
			for _, mv := range g[y][x].Vectors() {
				fn(mv)
			}
		}
	}
}

// MotionVectors is the mv and mv_delta payload.
type MotionVectors struct {
	// Forward and Backward are nil when the key is absent.
	Forward  MVGrid
	Backward MVGrid
	Extra    map[string]json.RawMessage
}

const (
	keyForward  = "forward"
	keyBackward = "backward"
)

// MarshalJSON implements json.Marshaler.
func (m *MotionVectors) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if m.Forward != nil {
		known[keyForward] = m.Forward
	}
	if m.Backward != nil {
		known[keyBackward] = m.Backward
	}
	return joinFields(m.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MotionVectors) UnmarshalJSON(data []byte) error {
	known, extra, err := splitFields(data, keyForward, keyBackward)
	if err != nil {
		return err
	}
	*m = MotionVectors{Extra: extra}
	if raw, ok := known[keyForward]; ok {
		if err := json.Unmarshal(raw, &m.Forward); err != nil {
			return fmt.Errorf("forward: %w", err)
		}
		if m.Forward == nil {
			m.Forward = MVGrid{}
		}
	}
	if raw, ok := known[keyBackward]; ok {
		if err := json.Unmarshal(raw, &m.Backward); err != nil {
			return fmt.Errorf("backward: %w", err)
		}
		if m.Backward == nil {
			m.Backward = MVGrid{}
		}
	}
	return nil
}
