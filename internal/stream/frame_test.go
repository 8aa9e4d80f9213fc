package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Frame
	}{
		{"reasoning trims trailing newlines", `data: {"type":"reasoning","content":"step\n\n"}`, ReasoningFrame{Text: "step"}},
		{"reasoning object is re-encoded", `data:{"type":"reasoning","content":{"a": 1}}`, ReasoningFrame{Text: `{"a":1}`}},
		{"status drops payload", `data:{"type":"status","content":"anything"}`, StatusFrame{}},
		{"content keeps whitespace", `data:{"type":"content","content":" hi "}`, ContentFrame{Text: " hi "}},
		{"source is trimmed", `data:{"type":"source","content":"  a.pdf "}`, SourceFrame{Text: "a.pdf"}},
		{"files null path", `data:{"type":"files","content":{"fileName":"a","filePath":null}}`, FilesFrame{FileName: "a"}},
		{"canvas", `data:{"type":"canvas","content":{"canvas-type":"markdown","canvas-source":"# t"}}`, CanvasFrame{CanvasType: canvas.TypeMarkdown, Source: "# t"}},
		{"done without content", `data:{"type":"done"}`, DoneFrame{}},
		{"unknown type", `data:{"type":"heartbeat"}`, UnknownFrame{Name: "heartbeat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, ok, err := ParseLine([]byte(tt.line))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, frame)
		})
	}
}

func TestParseLine_NoFrame(t *testing.T) {
	for _, line := range []string{"", "   ", ": comment", "event: message", `{"type":"content"}`} {
		frame, ok, err := ParseLine([]byte(line))
		assert.False(t, ok, line)
		assert.NoError(t, err)
		assert.Nil(t, frame)
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		`data:{not valid json`,
		`data:{"type":"content","content":42}`,
		`data:{"type":"source","content":{"x":1}}`,
		`data:{"type":"files","content":{"filePath":"/no/name"}}`,
		`data:{"type":"canvas","content":{"canvas-source":"x"}}`,
		`data:{"type":"imageshow","content":"` + "``" + `"}`,
	} {
		_, ok, err := ParseLine([]byte(line))
		assert.True(t, ok, line)
		assert.ErrorIs(t, err, ErrMalformedFrame, line)
	}
}
