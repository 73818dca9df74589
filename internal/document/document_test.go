package document_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ffglitch/internal/document"
	"ffglitch/internal/services"
)

const exampleSHA = "a9993e364706816aba3e25717850c26c9cd0d89d"

func TestZeroFirstComponentOfEveryVector(t *testing.T) {
	input := `{"features":["mv"],"sha1sum":"` + exampleSHA + `","streams":[{"frames":[{"mv":{"forward":[[[4,2]],[[0,0]]]}}]}]}`
	want := `{"features":["mv"],"sha1sum":"` + exampleSHA + `","streams":[{"frames":[{"mv":{"forward":[[[0,2]],[[0,0]]]}}]}]}`

	doc, err := document.Decode([]byte(input))
	require.NoError(t, err)

	frame := doc.Streams[0].Frames[0]
	payload, err := frame.Payload("mv")
	require.NoError(t, err)
	mv, ok := payload.(*document.MotionVectors)
	require.True(t, ok, "expected *MotionVectors, got %T", payload)
	mv.Forward.Each(func(v *document.MV) { v.DX = 0 })
	require.NoError(t, frame.SetPayload("mv", mv))

	out, err := document.Encode(doc, false)
	require.NoError(t, err)
	require.JSONEq(t, want, string(out))
}

func TestRoundTripPreservesUnknownKeys(t *testing.T) {
	input := `{
		"ffedit_version": "ffglitch-0.9.4",
		"filename": "clip.mpg",
		"features": ["mv"],
		"sha1sum": "` + exampleSHA + `",
		"streams": [{
			"codec": "mpeg2video",
			"frames": [
				{"pkt_pos": 4096, "pts": 0, "dts": -1, "mv": {"fcode": [1, 1], "forward": [[null, [], [1, -1]]]}},
				{"pkt_pos": 8192, "pts": 1}
			]
		}]
	}`

	doc, err := document.Decode([]byte(input))
	require.NoError(t, err)
	require.Equal(t, "ffglitch-0.9.4", doc.Version())
	require.Equal(t, "clip.mpg", doc.Filename())
	require.Equal(t, 2, doc.FrameCount())

	first := doc.Streams[0].Frames[0]
	pts, ok := first.Int64("pkt_pos")
	require.True(t, ok)
	require.EqualValues(t, 4096, pts)

	payload, err := first.Payload("mv")
	require.NoError(t, err)
	require.NoError(t, first.SetPayload("mv", payload))

	out, err := document.Encode(doc, true)
	require.NoError(t, err)
	require.JSONEq(t, input, string(out))
}

func TestMotionVectorEntryVariants(t *testing.T) {
	var grid document.MVGrid
	require.NoError(t, json.Unmarshal([]byte(`[[null, [], [3, 4], [[1, 2], [5, 6]]]]`), &grid))

	row := grid[0]
	kinds := []document.MVKind{row[0].Kind, row[1].Kind, row[2].Kind, row[3].Kind}
	wantKinds := []document.MVKind{document.MVNone, document.MVNone, document.MVSingle, document.MVSplit}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, document.MV{DX: 3, DY: 4}, row[2].Vector)
	require.Equal(t, []document.MV{{DX: 1, DY: 2}, {DX: 5, DY: 6}}, row[3].Parts)

	var visited int
	grid.Each(func(mv *document.MV) { visited++ })
	require.Equal(t, 3, visited)

	out, err := json.Marshal(grid)
	require.NoError(t, err)
	require.JSONEq(t, `[[null, [], [3, 4], [[1, 2], [5, 6]]]]`, string(out))
}

func TestMotionVectorSplitWithEmptySubBlocks(t *testing.T) {
	const raw = `[[[[1, 2], []], [null, [3, 4]]]]`
	var grid document.MVGrid
	require.NoError(t, json.Unmarshal([]byte(raw), &grid))

	first, second := grid[0][0], grid[0][1]
	require.Equal(t, document.MVSplit, first.Kind)
	require.Equal(t, document.MVSplit, second.Kind)
	require.False(t, first.PartEmpty(0))
	require.True(t, first.PartEmpty(1))
	require.True(t, second.PartEmpty(0))

	grid.Each(func(mv *document.MV) { mv.DX = -mv.DX })
	require.Equal(t, document.MV{DX: -1, DY: 2}, grid[0][0].Parts[0])
	require.Equal(t, document.MV{DX: -3, DY: 4}, grid[0][1].Parts[1])

	out, err := json.Marshal(grid)
	require.NoError(t, err)
	require.JSONEq(t, `[[[[-1, 2], []], [null, [-3, 4]]]]`, string(out))
}

func TestMotionVectorEntryRejectsBadPairs(t *testing.T) {
	var entry document.MVEntry
	require.Error(t, json.Unmarshal([]byte(`[1, 2, 3]`), &entry))
	require.Error(t, json.Unmarshal([]byte(`[[1, 2], [3]]`), &entry))
}

func TestCoefficientBlocks(t *testing.T) {
	raw := json.RawMessage(`{"data": [[[12, null, [5, 3, -1, 0], []]], [[7]], [[-2]]]}`)
	payload, err := document.DecodePayload("q_dct", raw)
	require.NoError(t, err)

	coeffs := payload.(*document.Coefficients)
	require.Len(t, coeffs.Data, 3)

	row := coeffs.Data[0][0]
	require.Equal(t, document.BlockScalar, row[0].Kind)
	require.Equal(t, document.BlockNull, row[1].Kind)
	require.Equal(t, document.BlockList, row[2].Kind)
	require.Equal(t, []int{3, -1, 0}, row[2].AC())

	dc, ok := row[2].DC()
	require.True(t, ok)
	require.Equal(t, 5, dc)
	_, ok = row[1].DC()
	require.False(t, ok)

	coeffs.Each(func(_ int, b *document.Block) {
		if v, ok := b.DC(); ok {
			b.SetDC(-v)
		}
	})
	out, err := document.EncodePayload(coeffs)
	require.NoError(t, err)
	require.JSONEq(t, `{"data": [[[-12, null, [-5, 3, -1, 0], []]], [[-7]], [[2]]]}`, string(out))
}

func TestPayloadTypesByFeature(t *testing.T) {
	cases := map[string]any{
		"mv":       &document.MotionVectors{},
		"mv_delta": &document.MotionVectors{},
		"q_dc":     &document.Coefficients{},
		"q_dct":    &document.Coefficients{},
		"dqt":      &document.Matrix{},
		"mb":       &document.Macroblocks{},
		"qscale":   &document.QScale{},
		"info":     &document.Raw{},
		"dht":      &document.Raw{},
	}
	for feature, want := range cases {
		got := document.NewPayload(feature)
		require.IsType(t, want, got, "feature %s", feature)
	}
}

func TestMacroblockCellsKeepSizes(t *testing.T) {
	raw := json.RawMessage(`{"data": [[3, 1], [2, "skip"]], "sizes": [[10, 12], [8, 0]]}`)
	payload, err := document.DecodePayload("mb", raw)
	require.NoError(t, err)

	mb := payload.(*document.Macroblocks)
	v, ok := mb.Data[0][0].Int()
	require.True(t, ok)
	require.EqualValues(t, 3, v)
	_, ok = mb.Data[1][1].Int()
	require.False(t, ok)
	require.Negative(t, mb.Data[0][1].Compare(mb.Data[1][1]))
	require.Positive(t, mb.Data[0][0].Compare(mb.Data[1][0]))

	out, err := document.EncodePayload(mb)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(out))
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	for name, input := range map[string]string{
		"not json":        `{"features": [`,
		"features type":   `{"features": "mv", "sha1sum": "x", "streams": []}`,
		"streams type":    `{"features": ["mv"], "streams": {"frames": []}}`,
		"frames type":     `{"features": ["mv"], "streams": [{"frames": 3}]}`,
		"root not object": `[1, 2]`,
	} {
		_, err := document.Decode([]byte(input))
		require.Error(t, err, name)
		require.True(t, errors.Is(err, services.ErrMalformedDocument), "%s: %v", name, err)
	}
}

func TestDecodePayloadMalformed(t *testing.T) {
	_, err := document.DecodePayload("qscale", json.RawMessage(`{"slice": "high"}`))
	require.ErrorIs(t, err, services.ErrMalformedDocument)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := document.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCloneIsIndependent(t *testing.T) {
	doc, err := document.Decode([]byte(`{"features":["qscale"],"sha1sum":"` + exampleSHA + `","streams":[{"frames":[{"qscale":{"slice":[2,4]}}]}]}`))
	require.NoError(t, err)

	clone := doc.Clone()
	frame := clone.Streams[0].Frames[0]
	require.NoError(t, frame.SetPayload("qscale", &document.QScale{Slice: []int{63, 4}}))

	original, err := document.Encode(doc, false)
	require.NoError(t, err)
	require.JSONEq(t, `{"features":["qscale"],"sha1sum":"`+exampleSHA+`","streams":[{"frames":[{"qscale":{"slice":[2,4]}}]}]}`, string(original))
}

func TestFeatureCatalogue(t *testing.T) {
	want := []string{"info", "q_dct", "q_dc", "mv", "mv_delta", "qscale", "dqt", "dht", "mb"}
	if diff := cmp.Diff(want, document.FeatureNames()); diff != "" {
		t.Fatalf("feature names mismatch (-want +got):\n%s", diff)
	}
	f, ok := document.LookupFeature("q_dc")
	require.True(t, ok)
	require.Equal(t, "quantized DCT coefficients (DC only)", f.Description)
	require.False(t, document.IsKnownFeature("h264_mv"))
}

func TestFramesWithCountsFramesCarryingFeature(t *testing.T) {
	doc, err := document.Decode([]byte(`{"features":["mv"],"sha1sum":"` + exampleSHA + `","streams":[
		{"frames":[{"pts":0,"mv":{"forward":[[[1,2]]]}},{"pts":1},{"pts":2,"mv":{"forward":[[[3,4]]]}}]},
		{"frames":[{"pts":0,"mv":null}]}
	]}`))
	require.NoError(t, err)
	require.Equal(t, 3, doc.FramesWith("mv"))
	require.Zero(t, doc.FramesWith("q_dct"))
}

func TestNullPayloadDecodesToZeroValue(t *testing.T) {
	payload, err := document.DecodePayload("mv", json.RawMessage(`null`))
	require.NoError(t, err)
	mv, ok := payload.(*document.MotionVectors)
	require.True(t, ok, "expected *MotionVectors, got %T", payload)
	require.Nil(t, mv.Forward)
	require.Nil(t, mv.Backward)
}
