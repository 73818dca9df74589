package transform

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"ffglitch/internal/document"
	"ffglitch/internal/logging"
	"ffglitch/internal/services"
)

// FrameContext describes where a payload lives. Frame and Stream are the
// enclosing values; transforms should treat them as read-only.
type FrameContext struct {
	Feature     string
	StreamIndex int
	FrameIndex  int
	Frame       document.Frame
	Stream      *document.Stream
}

// Transform edits one frame's payload in place.
type Transform interface {
	TransformFrame(ctx context.Context, payload document.Payload, fc FrameContext) error
}

// Func adapts a function to Transform.
type Func func(ctx context.Context, payload document.Payload, fc FrameContext) error

// TransformFrame implements Transform.
func (f Func) TransformFrame(ctx context.Context, payload document.Payload, fc FrameContext) error {
	return f(ctx, payload, fc)
}

// Stats summarises one Apply call.
type Stats struct {
	Streams     int
	Frames      int
	Transformed int
	Skipped     int
	Elapsed     time.Duration
}

// Stage applies a transform across a document.
type Stage struct {
	logger      *slog.Logger
	strictShape bool
	progress    func(done, total int)
}

// Option configures a Stage.
type Option func(*Stage)

// WithLogger sets the stage logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictShape rejects edits that change a payload's structure.
func WithStrictShape(enabled bool) Option {
	return func(s *Stage) { s.strictShape = enabled }
}

// WithProgress registers a callback invoked after every frame.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Stage) { s.progress = fn }
}

// NewStage constructs a Stage.
func NewStage(opts ...Option) *Stage {
	s := &Stage{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "transform")
	return s
}

// Apply runs t on every frame carrying feature, mutating doc in place.
// Iteration is in stream then frame order. The first failure aborts.
func (s *Stage) Apply(ctx context.Context, doc *document.Document, t Transform, feature string) (Stats, error) {
	start := time.Now()
	stats := Stats{Streams: len(doc.Streams), Frames: doc.FrameCount()}
	if t == nil {
		return stats, services.Wrap(services.ErrConfiguration, "transform", "apply", "no transform supplied", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	done := 0
	for si := range doc.Streams {
		stream := &doc.Streams[si]
		for fi, frame := range stream.Frames {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			applied, err := s.applyFrame(ctx, t, feature, si, fi, frame, stream)
			if err != nil {
				return stats, err
			}
			if applied {
				stats.Transformed++
			} else {
				stats.Skipped++
			}
			done++
			if s.progress != nil {
				s.progress(done, stats.Frames)
			}
		}
	}

	stats.Elapsed = time.Since(start)
	logger.Info("transform applied",
		logging.Int("frames", stats.Frames),
		logging.Int("transformed", stats.Transformed),
		logging.Int("skipped", stats.Skipped),
		logging.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}

func (s *Stage) applyFrame(ctx context.Context, t Transform, feature string, si, fi int, frame document.Frame, stream *document.Stream) (bool, error) {
	raw, ok := frame[feature]
	if !ok {
		return false, nil
	}
	location := fmt.Sprintf("stream %d frame %d", si, fi)

	payload, err := document.DecodePayload(feature, raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", location, err)
	}

	var before uint64
	if s.strictShape {
		if before, err = document.Shape(raw); err != nil {
			return false, services.Wrap(services.ErrMalformedDocument, "transform", location, "payload shape", err)
		}
	}

	fc := FrameContext{
		Feature:     feature,
		StreamIndex: si,
		FrameIndex:  fi,
		Frame:       frame,
		Stream:      stream,
	}
	if err := invoke(ctx, t, payload, fc); err != nil {
		return false, services.Wrap(services.ErrTransform, "transform", location, "", err)
	}

	updated, err := document.EncodePayload(payload)
	if err != nil {
		return false, services.Wrap(services.ErrTransform, "transform", location, "encode payload", err)
	}
	if document.IsNull(raw) {
		// An untouched null payload keeps its null spelling.
		pristine, err := document.EncodePayload(document.NewPayload(feature))
		if err == nil && bytes.Equal(updated, pristine) {
			updated = raw
		}
	}
	if s.strictShape {
		after, err := document.Shape(updated)
		if err != nil {
			return false, services.Wrap(services.ErrTransform, "transform", location, "payload shape", err)
		}
		if after != before {
			return false, services.Wrap(services.ErrTransform, "transform", location,
				"payload shape changed; ffedit requires the exported array layout", nil)
		}
	}
	frame[feature] = updated
	return true, nil
}

func invoke(ctx context.Context, t Transform, payload document.Payload, fc FrameContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return t.TransformFrame(ctx, payload, fc)
}

