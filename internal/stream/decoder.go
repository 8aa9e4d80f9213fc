package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	"github.com/ConcealedGem/versa-chat-view/internal/metrics"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

// Updater applies a functional transform to the live message list. The
// transform always receives the current list, never a captured snapshot.
type Updater func(func([]model.Message) []model.Message)

// CanvasSink receives canvas and imageshow frames.
type CanvasSink interface {
	Add(canvasType canvas.Type, source string) (canvas.Item, bool)
}

// Options configures one Process call. Update is required.
type Options struct {
	Update              Updater
	SetReasoning        func(reasoning string)
	SetCompletedContent func(content string)

	// MessageIndex targets a specific message (regeneration). When nil the
	// last message of the live list is the target.
	MessageIndex *int

	Canvas  CanvasSink
	Metrics *metrics.Metrics
}

// Decoder applies frames of one stream to the conversation. It keeps the
// running reasoning and content buffers; use a new Decoder per stream.
type Decoder struct {
	opts      Options
	reasoning strings.Builder
	content   strings.Builder
}

// NewDecoder creates a decoder for one stream.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

// Process reads r until end-of-stream and applies every frame in arrival
// order. Malformed frames are logged and skipped. A partial line is held
// until its newline arrives; one still pending at end-of-stream is dropped.
// Process returns ctx.Err() if the context is cancelled between frames and a
// wrapped read error if the body fails; already applied frames stay applied.
func Process(ctx context.Context, r io.Reader, opts Options) error {
	return NewDecoder(opts).Run(ctx, r)
}

// Run is Process on an existing decoder.
func (d *Decoder) Run(ctx context.Context, r io.Reader) error {
	if d.opts.Update == nil {
		return errors.New("stream: Options.Update is required")
	}

	start := time.Now()
	defer d.opts.Metrics.RecordStream(start)

	reader := bufio.NewReader(r)
	lines := 0
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(strings.TrimSpace(string(line))) > 0 {
					slog.Warn("Discarding unterminated line at end of stream", "bytes", len(line))
				}
				slog.Debug("Stream finished", "lines", lines, "contentLength", d.content.Len())
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("reading stream: %w", err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		lines++
		d.handleLine(line)
	}
}

func (d *Decoder) handleLine(line []byte) {
	frame, ok, err := ParseLine(line)
	if !ok {
		return
	}
	if err != nil {
		d.opts.Metrics.RecordMalformedFrame()
		slog.Warn("Skipping malformed stream frame", "error", err, "line", truncate(string(line), 200))
		return
	}
	d.Apply(frame)
}

// Apply mutates state for a single frame.
func (d *Decoder) Apply(frame Frame) {
	d.opts.Metrics.RecordFrame(string(frame.Type()))

	switch f := frame.(type) {
	case ReasoningFrame:
		d.appendReasoning(f.Text)

	case StatusFrame:
		d.appendReasoning(StatusPlaceholder)

	case ContentFrame:
		d.content.WriteString(f.Text)
		content := d.content.String()
		if d.opts.SetCompletedContent != nil {
			d.opts.SetCompletedContent(content)
		}
		d.updateTarget(func(m *model.Message) {
			m.Content = model.TextContent(content)
		})

	case SourceFrame:
		d.updateTarget(func(m *model.Message) {
			applySource(m, f.Text)
		})

	case FilesFrame:
		d.updateTarget(func(m *model.Message) {
			upsertSource(m, f.FileName, f.FilePath)
		})

	case CanvasFrame:
		d.addCanvas(f.CanvasType, f.Source)

	case ImageShowFrame:
		d.addCanvas(canvas.TypeImage, f.URL)

	case DoneFrame:
		slog.Debug("Stream done frame received")

	case UnknownFrame:
		slog.Debug("Ignoring unknown stream frame type", "type", f.Name)
	}
}

func (d *Decoder) appendReasoning(text string) {
	d.reasoning.WriteString(text)
	reasoning := d.reasoning.String()
	if d.opts.SetReasoning != nil {
		d.opts.SetReasoning(reasoning)
	}
	d.updateTarget(func(m *model.Message) {
		m.Reasoning = reasoning
	})
}

func (d *Decoder) addCanvas(canvasType canvas.Type, source string) {
	if d.opts.Canvas == nil {
		slog.Debug("No canvas sink configured, dropping canvas frame", "type", canvasType)
		return
	}
	d.opts.Canvas.Add(canvasType, source)
}

// updateTarget resolves the target inside the updater so it always sees the
// live list. The target is copied before mutation; other elements are shared.
func (d *Decoder) updateTarget(mutate func(*model.Message)) {
	d.opts.Update(func(messages []model.Message) []model.Message {
		index := len(messages) - 1
		if d.opts.MessageIndex != nil {
			index = *d.opts.MessageIndex
		}
		if index < 0 || index >= len(messages) {
			slog.Warn("No message at stream target index", "index", index, "count", len(messages))
			return messages
		}
		if messages[index].Role != model.RoleAssistant {
			slog.Warn("Stream target is not an assistant message", "index", index, "role", messages[index].Role)
			return messages
		}

		updated := make([]model.Message, len(messages))
		copy(updated, messages)
		target := messages[index].Clone()
		mutate(&target)
		updated[index] = target
		return updated
	})
}

// applySource handles one source frame. A URL completes the most recent
// citation still lacking one and drops other URL-less entries of that name;
// any other text adds a citation unless one with that name exists.
func applySource(m *model.Message, text string) {
	if text == "" {
		return
	}
	if m.Sources == nil {
		m.Sources = []model.Source{}
	}

	if !isURL(text) {
		for _, s := range m.Sources {
			if s.Name == text {
				return
			}
		}
		m.Sources = append(m.Sources, model.Source{Name: text})
		return
	}

	target := -1
	for i := len(m.Sources) - 1; i >= 0; i-- {
		if m.Sources[i].URL == "" {
			target = i
			break
		}
	}
	if target == -1 {
		slog.Debug("Source URL without a pending citation", "url", text)
		return
	}
	m.Sources[target].URL = text

	name := m.Sources[target].Name
	kept := m.Sources[:0]
	for i, s := range m.Sources {
		if i != target && s.Name == name && s.URL == "" {
			continue
		}
		kept = append(kept, s)
	}
	m.Sources = kept
}

// upsertSource handles one files frame. An empty path never clears a known URL.
func upsertSource(m *model.Message, name, path string) {
	for i := range m.Sources {
		if m.Sources[i].Name == name {
			if path != "" {
				m.Sources[i].URL = path
			}
			return
		}
	}
	m.Sources = append(m.Sources, model.Source{Name: name, URL: path})
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
