package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockKind tags the variant held by a Block.
type BlockKind uint8

const (
	// BlockNull is a block with no coefficients (JSON null).
	BlockNull BlockKind = iota
	// BlockScalar is a bare DC value.
	BlockScalar
	// BlockList is a DC value followed by the AC run.
	BlockList
)

// Block is one block of quantized coefficients.
type Block struct {
	Kind   BlockKind
	Values []int
}

// Scalar builds a BlockScalar.
func Scalar(v int) Block {
	return Block{Kind: BlockScalar, Values: []int{v}}
}

// List builds a BlockList.
func List(values ...int) Block {
	return Block{Kind: BlockList, Values: values}
}

// DC returns the first coefficient.
func (b *Block) DC() (int, bool) {
	if b.Kind == BlockNull || len(b.Values) == 0 {
		return 0, false
	}
	return b.Values[0], true
}

// SetDC overwrites the first coefficient. It is a no-op for empty blocks.
func (b *Block) SetDC(v int) {
	if b.Kind == BlockNull || len(b.Values) == 0 {
		return
	}
	b.Values[0] = v
}

// AC returns the AC run of a list block. The slice aliases the block.
func (b *Block) AC() []int {
	if b.Kind != BlockList || len(b.Values) < 2 {
		return nil
	}
	return b.Values[1:]
}

// MarshalJSON implements json.Marshaler.
func (b Block) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BlockScalar:
		if len(b.Values) != 1 {
			return nil, fmt.Errorf("scalar block holds %d values", len(b.Values))
		}
		return json.Marshal(b.Values[0])
	case BlockList:
		if b.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(b.Values)
	default:
		return jsonNull, nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Block) UnmarshalJSON(data []byte) error {
	*b = Block{}
	trimmed := bytes.TrimSpace(data)
	switch {
	case isNull(trimmed):
		return nil
	case bytes.HasPrefix(trimmed, []byte("[")):
		values := []int{}
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fmt.Errorf("coefficient block: %w", err)
		}
		b.Kind = BlockList
		b.Values = values
		return nil
	default:
		var v int
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("coefficient block: %w", err)
		}
		b.Kind = BlockScalar
		b.Values = []int{v}
		return nil
	}
}

// Plane is rows of blocks for one colour plane.
type Plane [][]Block

// Coefficients is the q_dc and q_dct payload. Data usually holds the Y, Cb
// and Cr planes in that order.
type Coefficients struct {
	Data  []Plane
	Extra map[string]json.RawMessage
}

const keyData = "data"

// Each calls fn for every block of every plane in row-major order.
func (c *Coefficients) Each(fn func(plane int, b *Block)) {
	for p := range c.Data {
		for y := range c.Data[p] {
			for x := range c.Data[p][y] {
				fn(p, &c.Data[p][y][x])
			}
		}
	}
}

// MarshalJSON implements json.Marshaler.
func (c *Coefficients) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if c.Data != nil {
		known[keyData] = c.Data
	}
	return joinFields(c.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coefficients) UnmarshalJSON(data []byte) error {
	known, extra, err := splitFields(data, keyData)
	if err != nil {
		return err
	}
	*c = Coefficients{Extra: extra}
	if raw, ok := known[keyData]; ok {
		c.Data = []Plane{}
		if err := json.Unmarshal(raw, &c.Data); err != nil {
			return fmt.Errorf("data: %w", err)
		}
	}
	return nil
}
