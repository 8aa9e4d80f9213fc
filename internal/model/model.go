package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Role identifies the author of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message stores a single turn of the conversation.
type Message struct {
	ID        string   `json:"id,omitempty"`
	Role      Role     `json:"role"`
	Content   Content  `json:"content"`
	Reasoning string   `json:"reasoning,omitempty"`
	Sources   []Source `json:"sources,omitempty"`
	IsError   bool     `json:"isError,omitempty"`
}

// Source is a reference citation attached to an assistant turn.
// Names are unique within one message.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Clone returns a deep copy, so that a snapshot never aliases the live list.
func (m Message) Clone() Message {
	out := m
	if m.Sources != nil {
		out.Sources = make([]Source, len(m.Sources))
		copy(out.Sources, m.Sources)
	}
	out.Content = m.Content.Clone()
	return out
}

// CloneMessages deep-copies a message list.
func CloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}

// NewUserMessage builds a plain-text user turn.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

// NewEmptyAssistantMessage is the placeholder appended before a stream starts.
func NewEmptyAssistantMessage() Message {
	return Message{Role: RoleAssistant, Sources: []Source{}}
}

// PartType is the discriminator of a multi-modal content part.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
	PartFile     PartType = "file"
)

// ContentPart is one element of a multi-modal user turn.
type ContentPart struct {
	Type     PartType  `json:"type" validate:"required,oneof=text image_url file"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
	File     *FileRef  `json:"file,omitempty"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // low, high or auto
}

// FileRef references an uploaded file. The optional fields echo the upload response.
type FileRef struct {
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	FileSizeKB    *float64 `json:"file-size-kb,omitempty"`
	OriginalName  string   `json:"original-name,omitempty"`
	PublicURL     string   `json:"public-url,omitempty"`
	IsLargeTable  *bool    `json:"is-large-table,omitempty"`
	DisplayName   string   `json:"display-name,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	FileSizeBytes *int64   `json:"file-size-bytes,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Content is either a plain string or an ordered list of typed parts.
// A non-nil Parts slice selects the multi-part encoding on the wire.
type Content struct {
	Text  string
	Parts []ContentPart
}

// TextContent wraps a plain string.
func TextContent(s string) Content { return Content{Text: s} }

// PartsContent wraps a list of parts.
func PartsContent(parts ...ContentPart) Content {
	if parts == nil {
		parts = []ContentPart{}
	}
	return Content{Parts: parts}
}

func (c Content) IsMultipart() bool { return c.Parts != nil }

// IsEmpty reports whether there is neither text nor any part.
func (c Content) IsEmpty() bool {
	if c.IsMultipart() {
		return len(c.Parts) == 0
	}
	return c.Text == ""
}

// String flattens the content to its text, joining text parts with newlines.
func (c Content) String() string {
	if !c.IsMultipart() {
		return c.Text
	}
	var texts []string
	for _, p := range c.Parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c Content) Clone() Content {
	if c.Parts == nil {
		return c
	}
	parts := make([]ContentPart, len(c.Parts))
	for i, p := range c.Parts {
		if p.ImageURL != nil {
			img := *p.ImageURL
			p.ImageURL = &img
		}
		if p.File != nil {
			f := *p.File
			p.File = &f
		}
		parts[i] = p
	}
	return Content{Text: c.Text, Parts: parts}
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsMultipart() {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Content{}
		return nil
	}
	if trimmed[0] == '[' {
		var parts []ContentPart
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		*c = PartsContent(parts...)
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*c = Content{Text: s}
	return nil
}

// UploadResponse is the JSON returned by the upload endpoint.
type UploadResponse struct {
	FileName      string   `json:"file-name"`
	FilePath      string   `json:"file-path"`
	FileSizeKB    *float64 `json:"file-size-kb,omitempty"`
	OriginalName  string   `json:"original-name,omitempty"`
	PublicURL     string   `json:"public-url,omitempty"`
	IsLargeTable  *bool    `json:"is-large-table,omitempty"`
	DisplayName   string   `json:"display-name,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	FileSizeBytes *int64   `json:"file-size-bytes,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Assistant is one selectable agent persona on the backend.
type Assistant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status,omitempty"`
	Description string   `json:"description"`
	UseType     []string `json:"use-type,omitempty"`
}

// AssistantList is the payload of the assistants endpoint.
type AssistantList struct {
	Assistants []Assistant `json:"assistants"`
	Active     *Assistant  `json:"active,omitempty"`
}

// ToolField describes one input or output field of a registered tool.
type ToolField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Tool is an agent tool as listed by the backend.
type Tool struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	InputFields  []ToolField `json:"input-fields"`
	OutputFields []ToolField `json:"output-fields"`
	SystemID     string      `json:"system-id,omitempty"`
	Version      string      `json:"version,omitempty"`
	Status       string      `json:"status,omitempty"`
}
