// Package stream decodes the agent backend's line-framed response stream and
// applies each frame to the conversation through caller-supplied mutators.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
)

// DataPrefix starts every frame line on the wire.
const DataPrefix = "data:"

// StatusPlaceholder replaces the content of a status frame in the reasoning buffer.
const StatusPlaceholder = " . "

// FrameType is the "type" discriminator of a frame.
type FrameType string

const (
	FrameReasoning FrameType = "reasoning"
	FrameStatus    FrameType = "status"
	FrameContent   FrameType = "content"
	FrameSource    FrameType = "source"
	FrameFiles     FrameType = "files"
	FrameCanvas    FrameType = "canvas"
	FrameImageShow FrameType = "imageshow"
	FrameDone      FrameType = "done"
)

// Frame is one decoded stream event. The concrete types below are the only
// implementations.
type Frame interface {
	Type() FrameType
}

// ReasoningFrame carries intermediate "thinking" text, trailing newlines removed.
type ReasoningFrame struct{ Text string }

// StatusFrame is a progress tick. Its payload is never used.
type StatusFrame struct{}

// ContentFrame carries the next slice of the answer text.
type ContentFrame struct{ Text string }

// SourceFrame carries either a citation name or the URL of the last citation.
type SourceFrame struct{ Text string }

// FilesFrame carries a named citation with an optional path.
type FilesFrame struct {
	FileName string
	FilePath string
}

// CanvasFrame asks for an auxiliary item to be added to the canvas.
type CanvasFrame struct {
	CanvasType canvas.Type
	Source     string
}

// ImageShowFrame asks for an image to be shown on the canvas.
type ImageShowFrame struct{ URL string }

// DoneFrame marks the logical end of the stream.
type DoneFrame struct{}

// UnknownFrame is any frame whose type this client does not recognize.
type UnknownFrame struct{ Name string }

func (ReasoningFrame) Type() FrameType { return FrameReasoning }
func (StatusFrame) Type() FrameType    { return FrameStatus }
func (ContentFrame) Type() FrameType   { return FrameContent }
func (SourceFrame) Type() FrameType    { return FrameSource }
func (FilesFrame) Type() FrameType     { return FrameFiles }
func (CanvasFrame) Type() FrameType    { return FrameCanvas }
func (ImageShowFrame) Type() FrameType { return FrameImageShow }
func (DoneFrame) Type() FrameType      { return FrameDone }
func (f UnknownFrame) Type() FrameType { return FrameType(f.Name) }

// ErrMalformedFrame wraps every decoding failure of a data line.
var ErrMalformedFrame = errors.New("malformed frame")

type envelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type filesPayload struct {
	FileName string  `json:"fileName"`
	FilePath *string `json:"filePath"`
}

type canvasPayload struct {
	CanvasType string          `json:"canvas-type"`
	Source     json.RawMessage `json:"canvas-source"`
}

// ParseLine decodes one line of the stream. ok is false for blank lines and
// lines without the data prefix, which carry no frame.
func ParseLine(line []byte) (frame Frame, ok bool, err error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || !bytes.HasPrefix(trimmed, []byte(DataPrefix)) {
		return nil, false, nil
	}
	frame, err = ParseFrame(bytes.TrimSpace(trimmed[len(DataPrefix):]))
	return frame, true, err
}

// ParseFrame decodes the JSON document that follows the data prefix.
func ParseFrame(payload []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch FrameType(env.Type) {
	case FrameReasoning:
		text, isString, err := stringOrJSON(env.Content)
		if err != nil {
			return nil, malformed(env.Type, err)
		}
		if isString {
			text = strings.TrimRight(text, "\n")
		}
		return ReasoningFrame{Text: text}, nil

	case FrameStatus:
		return StatusFrame{}, nil

	case FrameContent:
		var text string
		if err := json.Unmarshal(env.Content, &text); err != nil {
			return nil, malformed(env.Type, errors.New("expected string content"))
		}
		return ContentFrame{Text: text}, nil

	case FrameSource:
		var text string
		if err := json.Unmarshal(env.Content, &text); err != nil {
			return nil, malformed(env.Type, errors.New("expected string content"))
		}
		return SourceFrame{Text: strings.TrimSpace(text)}, nil

	case FrameFiles:
		return parseFiles(env.Content)

	case FrameCanvas:
		p, err := parseCanvas(env.Content)
		if err != nil {
			return nil, malformed(env.Type, err)
		}
		return CanvasFrame{CanvasType: canvas.Type(p.canvasType), Source: p.source}, nil

	case FrameImageShow:
		return parseImageShow(env.Content)

	case FrameDone:
		return DoneFrame{}, nil

	default:
		return UnknownFrame{Name: env.Type}, nil
	}
}

// parseFiles accepts the payload either as an object or as a JSON string
// holding the same object.
func parseFiles(raw json.RawMessage) (Frame, error) {
	body := []byte(raw)
	var encoded string
	if json.Unmarshal(raw, &encoded) == nil {
		body = []byte(encoded)
	}

	var p filesPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, malformed(string(FrameFiles), err)
	}
	if p.FileName == "" {
		return nil, malformed(string(FrameFiles), errors.New("missing fileName"))
	}
	frame := FilesFrame{FileName: p.FileName}
	if p.FilePath != nil {
		frame.FilePath = *p.FilePath
	}
	return frame, nil
}

type decodedCanvas struct {
	canvasType string
	source     string
}

func parseCanvas(raw json.RawMessage) (decodedCanvas, error) {
	var p canvasPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return decodedCanvas{}, fmt.Errorf("expected object content: %v", err)
	}
	if p.CanvasType == "" {
		return decodedCanvas{}, errors.New("missing canvas-type")
	}
	source, _, err := stringOrJSON(p.Source)
	if err != nil {
		return decodedCanvas{}, err
	}
	if source == "" {
		return decodedCanvas{}, errors.New("missing canvas-source")
	}
	return decodedCanvas{canvasType: p.CanvasType, source: source}, nil
}

func parseImageShow(raw json.RawMessage) (Frame, error) {
	var url string
	if err := json.Unmarshal(raw, &url); err == nil {
		url = strings.Trim(strings.TrimSpace(url), "`")
		if url == "" {
			return nil, malformed(string(FrameImageShow), errors.New("empty image url"))
		}
		return ImageShowFrame{URL: url}, nil
	}

	p, err := parseCanvas(raw)
	if err != nil {
		return nil, malformed(string(FrameImageShow), err)
	}
	return ImageShowFrame{URL: p.source}, nil
}

// stringOrJSON returns a JSON string value as-is and re-encodes any other
// value as compact JSON text. A missing or null value yields "".
func stringOrJSON(raw json.RawMessage) (text string, isString bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false, nil
	}
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return "", false, err
		}
		return text, true, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", false, err
	}
	return buf.String(), false, nil
}

func malformed(frameType string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, frameType, err)
}
