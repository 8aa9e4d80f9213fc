// Package render turns conversation messages and canvas items into terminal
// text for the CLI.
package render

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

// Styles accepted by New besides the glamour standard style names.
const (
	StylePlain = "plain"
	StyleAuto  = "auto"
)

// Renderer formats output. With StylePlain markdown is passed through
// unchanged, which keeps piped output free of escape sequences.
type Renderer struct {
	md *glamour.TermRenderer
}

// New builds a renderer for the given style ("plain", "auto", or a glamour
// standard style such as "dark" or "notty") wrapping at width columns.
func New(style string, width int) (*Renderer, error) {
	if style == "" || style == StylePlain {
		return &Renderer{}, nil
	}
	if width <= 0 {
		width = 80
	}

	styleOpt := glamour.WithStandardStyle(style)
	if style == StyleAuto {
		styleOpt = glamour.WithAutoStyle()
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("could not create markdown renderer: %w", err)
	}
	return &Renderer{md: md}, nil
}

// Markdown renders markdown text. Rendering failures fall back to the input.
func (r *Renderer) Markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return out
}

// Message renders one conversational turn with its reasoning and sources.
func (r *Renderer) Message(m model.Message) string {
	var b strings.Builder

	switch {
	case m.IsError:
		b.WriteString("Error: ")
	case m.Role == model.RoleUser:
		b.WriteString("You: ")
	default:
		b.WriteString("Assistant: ")
	}
	b.WriteString("\n")

	if m.Reasoning != "" {
		b.WriteString(r.Markdown(quote(m.Reasoning)))
		b.WriteString("\n")
	}
	b.WriteString(r.Markdown(contentMarkdown(m.Content)))

	if len(m.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, s := range m.Sources {
			if s.URL != "" {
				fmt.Fprintf(&b, "  - %s <%s>\n", s.Name, s.URL)
			} else {
				fmt.Fprintf(&b, "  - %s\n", s.Name)
			}
		}
	}
	return b.String()
}

func contentMarkdown(c model.Content) string {
	if !c.IsMultipart() {
		return c.Text
	}
	lines := make([]string, 0, len(c.Parts))
	for _, p := range c.Parts {
		switch p.Type {
		case model.PartText:
			lines = append(lines, p.Text)
		case model.PartImageURL:
			lines = append(lines, "[image]")
		case model.PartFile:
			if p.File == nil {
				continue
			}
			line := "[file: " + p.File.Name
			if size := FileSize(p.File.FileSizeKB); size != "" {
				line += ", " + size
			}
			lines = append(lines, line+"]")
		}
	}
	return strings.Join(lines, "\n\n")
}

func quote(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

// CanvasItem renders a canvas item. HTML sources are converted to markdown
// first. Remove signals render as the empty string.
func (r *Renderer) CanvasItem(item canvas.Item) (string, error) {
	switch item.Type {
	case canvas.TypeRemoveSignal:
		return "", nil
	case canvas.TypeMarkdown:
		return r.Markdown(item.Source), nil
	case canvas.TypeHTML:
		md, err := htmltomarkdown.ConvertString(item.Source)
		if err != nil {
			return "", fmt.Errorf("could not convert html canvas item %s: %w", item.ID, err)
		}
		return r.Markdown(md), nil
	case canvas.TypeImage:
		return fmt.Sprintf("[image] %s\n", item.Source), nil
	case canvas.TypeFilePreview:
		pages := ""
		if item.TotalPages > 1 {
			pages = fmt.Sprintf(", page %d of %d", max(item.CurrentPage, 1), item.TotalPages)
		}
		return fmt.Sprintf("[preview] %s (%s%s)\n", item.FileName, item.FileType, pages), nil
	default:
		return item.Source + "\n", nil
	}
}

// FileSize formats an upload size given in kilobytes. Nil renders as "".
func FileSize(kb *float64) string {
	if kb == nil || *kb < 0 {
		return ""
	}
	return humanize.Bytes(uint64(*kb * 1000))
}
