package document_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ffglitch/internal/document"
	"ffglitch/internal/services"
)

func TestValidateAcceptsExportedDocument(t *testing.T) {
	data := []byte(`{
		"ffedit_version": "ffglitch-0.9.4",
		"filename": "clip.mpg",
		"features": ["mv"],
		"sha1sum": "` + exampleSHA + `",
		"streams": [{"frames": [
			{"pkt_pos": 0, "pts": 0, "dts": 0, "mv": {"forward": [[null, [], [1, 2], [[1, 2], [3, 4]]]], "fcode": [1, 1]}},
			{"pkt_pos": 100, "pts": 1, "dts": 1, "q_dct": {"data": [[[1, [1, 2, 3], null]], [[2]], [[3]]]}},
			{"dqt": {"data": [[16, 11], [12, 12]]}, "qscale": {"slice": [2, 4]}, "mb": {"data": [[1, 2]], "sizes": [[3, 4]]}}
		]}]
	}`)
	require.NoError(t, document.Validate("clip.json", data))
}

func TestValidateRejectsBadShapes(t *testing.T) {
	for name, data := range map[string]string{
		"missing sha1sum": `{"features": ["mv"], "streams": []}`,
		"features string": `{"features": "mv", "sha1sum": "x", "streams": []}`,
		"triple vector":   `{"features": ["mv"], "sha1sum": "x", "streams": [{"frames": [{"mv": {"forward": [[[1, 2, 3]]]}}]}]}`,
		"qscale strings":  `{"features": ["qscale"], "sha1sum": "x", "streams": [{"frames": [{"qscale": {"slice": ["a"]}}]}]}`,
		"not json":        `{"features": [`,
	} {
		err := document.Validate("bad.json", []byte(data))
		require.Error(t, err, name)
		require.ErrorIs(t, err, services.ErrMalformedDocument, name)
	}
}
