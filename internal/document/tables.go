package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Matrix is the dqt payload: a 2-D quantization table.
type Matrix struct {
	Data  [][]int
	Extra map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if m.Data != nil {
		known[keyData] = m.Data
	}
	return joinFields(m.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	known, extra, err := splitFields(data, keyData)
	if err != nil {
		return err
	}
	*m = Matrix{Extra: extra}
	if raw, ok := known[keyData]; ok {
		m.Data = [][]int{}
		if err := json.Unmarshal(raw, &m.Data); err != nil {
			return fmt.Errorf("data: %w", err)
		}
	}
	return nil
}

// QScale is the qscale payload: one quantizer per slice.
type QScale struct {
	Slice []int
	Extra map[string]json.RawMessage
}

const keySlice = "slice"

// MarshalJSON implements json.Marshaler.
func (q *QScale) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if q.Slice != nil {
		known[keySlice] = q.Slice
	}
	return joinFields(q.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *QScale) UnmarshalJSON(data []byte) error {
	known, extra, err := splitFields(data, keySlice)
	if err != nil {
		return err
	}
	*q = QScale{Extra: extra}
	if raw, ok := known[keySlice]; ok {
		q.Slice = []int{}
		if err := json.Unmarshal(raw, &q.Slice); err != nil {
			return fmt.Errorf("slice: %w", err)
		}
	}
	return nil
}

// Cell is one macroblock code. Codes are usually integers but the exporter
// is free to emit other JSON values, so cells keep their raw encoding.
type Cell json.RawMessage

// IntCell builds a numeric cell.
func IntCell(v int64) Cell {
	return Cell(strconv.FormatInt(v, 10))
}

// Int returns the cell as an integer when it holds one.
func (c Cell) Int() (int64, bool) {
	v, err := strconv.ParseInt(string(bytes.TrimSpace(c)), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Compare orders numeric cells before non-numeric ones; numbers compare by
// value and everything else by its encoding.
func (c Cell) Compare(other Cell) int {
	a, aok := c.Int()
	b, bok := other.Int()
	switch {
	case aok && bok:
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	case aok:
		return -1
	case bok:
		return 1
	default:
		return bytes.Compare(c, other)
	}
}

// MarshalJSON implements json.Marshaler.
func (c Cell) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return jsonNull, nil
	}
	return c, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cell) UnmarshalJSON(data []byte) error {
	*c = append((*c)[:0], bytes.TrimSpace(data)...)
	return nil
}

// Macroblocks is the mb payload: a grid of macroblock codes. Other keys such
// as sizes are preserved in Extra.
type Macroblocks struct {
	Data  [][]Cell
	Extra map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler.
func (m *Macroblocks) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if m.Data != nil {
		known[keyData] = m.Data
	}
	return joinFields(m.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Macroblocks) UnmarshalJSON(data []byte) error {
	known, extra, err := splitFields(data, keyData)
	if err != nil {
		return err
	}
	*m = Macroblocks{Extra: extra}
	if raw, ok := known[keyData]; ok {
		m.Data = [][]Cell{}
		if err := json.Unmarshal(raw, &m.Data); err != nil {
			return fmt.Errorf("data: %w", err)
		}
	}
	return nil
}
