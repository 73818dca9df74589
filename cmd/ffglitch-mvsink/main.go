// Command ffglitch-mvsink is an example transform plugin. It zeroes the
// horizontal component of every forward motion vector, so blocks only move
// up and down.
//
//	ffglitch -i clip.mpg -f mv -s ./ffglitch-mvsink -o glitched.mpg
package main

import (
	"context"
	"fmt"

	"ffglitch/internal/document"
	"ffglitch/internal/transform"
)

func main() {
	transform.Serve(transform.Info{
		Name:     "mvsink",
		Features: []string{"mv", "mv_delta"},
	}, transform.Func(sink))
}

func sink(_ context.Context, payload document.Payload, fc transform.FrameContext) error {
	mv, ok := payload.(*document.MotionVectors)
	if !ok {
		return fmt.Errorf("stream %d frame %d: expected motion vectors, got %T", fc.StreamIndex, fc.FrameIndex, payload)
	}
	mv.Forward.Each(func(v *document.MV) {
		v.DX = 0
	})
	return nil
}
