package transform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ffglitch/internal/document"
	"ffglitch/internal/services"
	"ffglitch/internal/transform"
)

const sha = "a9993e364706816aba3e25717850c26c9cd0d89d"

func decode(t *testing.T, data string) *document.Document {
	t.Helper()
	doc, err := document.Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc
}

func encode(t *testing.T, doc *document.Document) string {
	t.Helper()
	out, err := document.Encode(doc, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return string(out)
}

func TestApplyZeroesFirstElement(t *testing.T) {
	doc := decode(t, `{"features":["mv"],"sha1sum":"`+sha+`","streams":[{"frames":[{"mv":{"forward":[[[4,2]],[[0,0]]]}}]}]}`)
	want := decode(t, `{"features":["mv"],"sha1sum":"`+sha+`","streams":[{"frames":[{"mv":{"forward":[[[0,2]],[[0,0]]]}}]}]}`)

	stage := transform.NewStage(transform.WithStrictShape(true))
	stats, err := stage.Apply(context.Background(), doc, transform.Func(func(_ context.Context, p document.Payload, _ transform.FrameContext) error {
		p.(*document.MotionVectors).Forward.Each(func(v *document.MV) { v.DX = 0 })
		return nil
	}), "mv")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if stats.Transformed != 1 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if diff := cmp.Diff(encode(t, want), encode(t, doc)); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyVisitsFramesCarryingFeature(t *testing.T) {
	doc := decode(t, `{"features":["qscale"],"sha1sum":"`+sha+`","streams":[{"frames":[
		{"pts":0,"qscale":{"slice":[2,3]}},
		{"pts":1},
		{"pts":2,"qscale":null}
	]}]}`)
	before := encode(t, doc)

	var seen []int
	stage := transform.NewStage()
	stats, err := stage.Apply(context.Background(), doc, transform.Func(func(_ context.Context, _ document.Payload, fc transform.FrameContext) error {
		seen = append(seen, fc.FrameIndex)
		return nil
	}), "qscale")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff([]int{0, 2}, seen); diff != "" {
		t.Fatalf("visited frames mismatch (-want +got):\n%s", diff)
	}
	if stats.Transformed != 2 || stats.Skipped != 1 || stats.Frames != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if diff := cmp.Diff(before, encode(t, doc)); diff != "" {
		t.Fatalf("identity transform changed document (-want +got):\n%s", diff)
	}
}

func TestApplyNullPayloadCanBeFilled(t *testing.T) {
	doc := decode(t, `{"features":["mv"],"sha1sum":"`+sha+`","streams":[{"frames":[{"pts":0,"mv":null}]}]}`)

	called := 0
	stats, err := transform.NewStage().Apply(context.Background(), doc, transform.Func(func(_ context.Context, p document.Payload, _ transform.FrameContext) error {
		called++
		mv := p.(*document.MotionVectors)
		if mv.Forward != nil {
			t.Fatalf("expected empty forward grid, got %v", mv.Forward)
		}
		mv.Forward = document.MVGrid{{document.Single(1, 1)}}
		return nil
	}), "mv")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if called != 1 || stats.Transformed != 1 {
		t.Fatalf("called=%d stats=%+v", called, stats)
	}
	got := string(doc.Streams[0].Frames[0]["mv"])
	if got != `{"forward":[[[1,1]]]}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestApplyPassesExplicitContext(t *testing.T) {
	doc := decode(t, `{"features":["mb"],"sha1sum":"`+sha+`","streams":[
		{"frames":[{"pts":10,"mb":{"data":[[1]]}}]},
		{"frames":[{"pts":20},{"pts":30,"mb":{"data":[[2]]}}]}
	]}`)

	type visit struct {
		Stream, Frame int
		PTS           int64
		Frames        int
	}
	var visits []visit
	_, err := transform.NewStage().Apply(context.Background(), doc, transform.Func(func(_ context.Context, _ document.Payload, fc transform.FrameContext) error {
		pts, _ := fc.Frame.Int64("pts")
		visits = append(visits, visit{Stream: fc.StreamIndex, Frame: fc.FrameIndex, PTS: pts, Frames: len(fc.Stream.Frames)})
		return nil
	}), "mb")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []visit{{0, 0, 10, 1}, {1, 1, 30, 2}}
	if diff := cmp.Diff(want, visits); diff != "" {
		t.Fatalf("visits mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRejectsShapeChange(t *testing.T) {
	doc := decode(t, `{"features":["qscale"],"sha1sum":"`+sha+`","streams":[{"frames":[{"qscale":{"slice":[2,3]}}]}]}`)
	grow := transform.Func(func(_ context.Context, p document.Payload, _ transform.FrameContext) error {
		q := p.(*document.QScale)
		q.Slice = append(q.Slice, 9)
		return nil
	})

	_, err := transform.NewStage(transform.WithStrictShape(true)).Apply(context.Background(), doc, grow, "qscale")
	if !errors.Is(err, services.ErrTransform) {
		t.Fatalf("expected transform error, got %v", err)
	}

	lenient := decode(t, `{"features":["qscale"],"sha1sum":"`+sha+`","streams":[{"frames":[{"qscale":{"slice":[2,3]}}]}]}`)
	if _, err := transform.NewStage().Apply(context.Background(), lenient, grow, "qscale"); err != nil {
		t.Fatalf("expected lenient stage to accept shape change, got %v", err)
	}
}

func TestApplyPropagatesTransformFailure(t *testing.T) {
	doc := decode(t, `{"features":["mb"],"sha1sum":"`+sha+`","streams":[{"frames":[{"mb":{"data":[[1]]}},{"mb":{"data":[[2]]}}]}]}`)
	calls := 0
	boom := errors.New("boom")
	_, err := transform.NewStage().Apply(context.Background(), doc, transform.Func(func(context.Context, document.Payload, transform.FrameContext) error {
		calls++
		return boom
	}), "mb")
	if !errors.Is(err, services.ErrTransform) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transform error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected abort after first failure, got %d calls", calls)
	}
	if services.ExitCode(err) != services.ExitTransform {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
}

func TestApplyRecoversPanics(t *testing.T) {
	doc := decode(t, `{"features":["mb"],"sha1sum":"`+sha+`","streams":[{"frames":[{"mb":{"data":[[1]]}}]}]}`)
	_, err := transform.NewStage().Apply(context.Background(), doc, transform.Func(func(context.Context, document.Payload, transform.FrameContext) error {
		var m map[string]int
		m["x"] = 1
		return nil
	}), "mb")
	if !errors.Is(err, services.ErrTransform) {
		t.Fatalf("expected transform error from panic, got %v", err)
	}
}

func TestApplyMalformedPayload(t *testing.T) {
	doc := decode(t, `{"features":["mv"],"sha1sum":"`+sha+`","streams":[{"frames":[{"mv":{"forward":[[[1,2,3]]]}}]}]}`)
	_, err := transform.NewStage().Apply(context.Background(), doc, transform.Func(func(context.Context, document.Payload, transform.FrameContext) error {
		return nil
	}), "mv")
	if !errors.Is(err, services.ErrMalformedDocument) {
		t.Fatalf("expected malformed document error, got %v", err)
	}
}

func TestApplyReportsProgressAndHonoursCancel(t *testing.T) {
	doc := decode(t, `{"features":["mb"],"sha1sum":"`+sha+`","streams":[{"frames":[{"mb":{"data":[[1]]}},{"pts":1},{"mb":{"data":[[2]]}}]}]}`)
	var progress [][2]int
	stage := transform.NewStage(transform.WithProgress(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))
	identity, _ := transform.LookupBuiltin("identity")
	if _, err := stage.Apply(context.Background(), doc, identity.New(), "mb"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff([][2]int{{1, 3}, {2, 3}, {3, 3}}, progress); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := stage.Apply(ctx, doc, identity.New(), "mb"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	input := `{"features":["q_dct"],"sha1sum":"` + sha + `","streams":[{"frames":[{"q_dct":{"data":[[[[9,5,1,3],[4,2]]],[[[1]]],[[null]]]}}]}]}`
	sorter, _ := transform.LookupBuiltin("dct-ac-sort")

	var outputs []string
	for range 3 {
		doc := decode(t, input)
		if _, err := transform.NewStage(transform.WithStrictShape(true)).Apply(context.Background(), doc, sorter.New(), "q_dct"); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		outputs = append(outputs, encode(t, doc))
	}
	if outputs[0] != outputs[1] || outputs[1] != outputs[2] {
		t.Fatalf("non-deterministic output: %q", outputs)
	}
}

func TestApplyRequiresTransform(t *testing.T) {
	doc := decode(t, `{"features":["mb"],"sha1sum":"`+sha+`","streams":[]}`)
	if _, err := transform.NewStage().Apply(context.Background(), doc, nil, "mb"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
