package transform

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"ffglitch/internal/document"
)

// Builtin is a transform compiled into ffglitch.
type Builtin struct {
	Name        string
	Description string
	// Features lists the features the transform understands; empty means any.
	Features []string
	New      func() Transform
}

// Supports reports whether the built-in can run on feature.
func (b Builtin) Supports(feature string) bool {
	return len(b.Features) == 0 || lo.Contains(b.Features, feature)
}

var builtins = []Builtin{
	{
		Name:        "mv-sink-and-rise",
		Description: "zero the horizontal component of every forward motion vector",
		Features:    []string{"mv", "mv_delta"},
		New:         func() Transform { return Func(sinkAndRise) },
	},
	{
		Name:        "mv-zero",
		Description: "zero every forward and backward motion vector",
		Features:    []string{"mv", "mv_delta"},
		New:         func() Transform { return Func(zeroVectors) },
	},
	{
		Name:        "dc-invert",
		Description: "negate the DC coefficient of every block",
		Features:    []string{"q_dc", "q_dct"},
		New:         func() Transform { return Func(invertDC) },
	},
	{
		Name:        "dct-ac-sort",
		Description: "sort the AC run of every block, keeping DC first",
		Features:    []string{"q_dct"},
		New:         func() Transform { return Func(sortAC) },
	},
	{
		Name:        "dqt-max0",
		Description: "set the first quantization table entry to 63",
		Features:    []string{"dqt"},
		New:         func() Transform { return Func(maxDQT) },
	},
	{
		Name:        "mb-sort",
		Description: "sort macroblock codes across the frame",
		Features:    []string{"mb"},
		New:         func() Transform { return Func(sortMacroblocks) },
	},
	{
		Name:        "qscale-max0",
		Description: "set the first slice quantizer to 63",
		Features:    []string{"qscale"},
		New:         func() Transform { return Func(maxQScale) },
	},
	{
		Name:        "identity",
		Description: "leave every payload untouched",
		New: func() Transform {
			return Func(func(context.Context, document.Payload, FrameContext) error { return nil })
		},
	},
}

// Builtins returns the registry in listing order.
func Builtins() []Builtin {
	out := make([]Builtin, len(builtins))
	copy(out, builtins)
	return out
}

// LookupBuiltin finds a built-in by name.
func LookupBuiltin(name string) (Builtin, bool) {
	return lo.Find(builtins, func(b Builtin) bool { return b.Name == name })
}

func payloadAs[T document.Payload](payload document.Payload, fc FrameContext) (T, error) {
	typed, ok := payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("feature %q: unexpected payload type %T", fc.Feature, payload)
	}
	return typed, nil
}

func sinkAndRise(_ context.Context, payload document.Payload, fc FrameContext) error {
	mv, err := payloadAs[*document.MotionVectors](payload, fc)
	if err != nil {
		return err
	}
	mv.Forward.Each(func(v *document.MV) { v.DX = 0 })
	return nil
}

func zeroVectors(_ context.Context, payload document.Payload, fc FrameContext) error {
	mv, err := payloadAs[*document.MotionVectors](payload, fc)
	if err != nil {
		return err
	}
	zero := func(v *document.MV) { *v = document.MV{} }
	mv.Forward.Each(zero)
	mv.Backward.Each(zero)
	return nil
}

func invertDC(_ context.Context, payload document.Payload, fc FrameContext) error {
	coeffs, err := payloadAs[*document.Coefficients](payload, fc)
	if err != nil {
		return err
	}
	coeffs.Each(func(_ int, b *document.Block) {
		if dc, ok := b.DC(); ok {
			b.SetDC(-dc)
		}
	})
	return nil
}

func sortAC(_ context.Context, payload document.Payload, fc FrameContext) error {
	coeffs, err := payloadAs[*document.Coefficients](payload, fc)
	if err != nil {
		return err
	}
	coeffs.Each(func(_ int, b *document.Block) {
		slices.Sort(b.AC())
	})
	return nil
}

func maxDQT(_ context.Context, payload document.Payload, fc FrameContext) error {
	m, err := payloadAs[*document.Matrix](payload, fc)
	if err != nil {
		return err
	}
	if len(m.Data) > 0 && len(m.Data[0]) > 0 {
		m.Data[0][0] = 63
	}
	return nil
}

func maxQScale(_ context.Context, payload document.Payload, fc FrameContext) error {
	q, err := payloadAs[*document.QScale](payload, fc)
	if err != nil {
		return err
	}
	if len(q.Slice) > 0 {
		q.Slice[0] = 63
	}
	return nil
}

// sortMacroblocks flattens the grid, sorts it and repacks it using the
// width of the first row.
func sortMacroblocks(_ context.Context, payload document.Payload, fc FrameContext) error {
	mb, err := payloadAs[*document.Macroblocks](payload, fc)
	if err != nil {
		return err
	}
	if len(mb.Data) == 0 || len(mb.Data[0]) == 0 {
		return nil
	}
	flat := lo.Flatten(mb.Data)
	slices.SortStableFunc(flat, document.Cell.Compare)
	mb.Data = lo.Chunk(flat, len(mb.Data[0]))
	return nil
}
