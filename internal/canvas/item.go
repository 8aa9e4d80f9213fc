package canvas

import (
	"path/filepath"
	"strings"
	"time"
)

// Type is the kind of auxiliary content an Item carries.
type Type string

const (
	TypeHTML        Type = "html"
	TypeMarkdown    Type = "markdown"
	TypeImage       Type = "imageshow"
	TypeFilePreview Type = "file-preview"

	// TypeRemoveSignal marks the notification sent to subscribers after an
	// item was removed. Only the ID is meaningful on such a notification.
	TypeRemoveSignal Type = "remove-signal"

	// TypeStatus is reserved for tool-status side-channel payloads. It never
	// produces an Item.
	TypeStatus Type = "status"
)

// FileType is the preview renderer used for a file-preview item.
type FileType string

const (
	FilePDF      FileType = "pdf"
	FileExcel    FileType = "excel"
	FileWord     FileType = "word"
	FileText     FileType = "text"
	FileMarkdown FileType = "markdown"
	FileHTML     FileType = "html"
)

// LocalFilePrefix marks preview sources that refer to a file parsed on this
// machine rather than a server URL.
const LocalFilePrefix = "local-file://"

// Item is a unit of auxiliary content shown alongside the conversation.
type Item struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Collapsed bool      `json:"collapsed"`

	// file-preview only
	FileName    string   `json:"fileName,omitempty"`
	FileType    FileType `json:"fileType,omitempty"`
	TotalPages  int      `json:"totalPages,omitempty"`
	CurrentPage int      `json:"currentPage,omitempty"`
}

// IsRemoveSignal reports whether the item is a removal notification.
func (i Item) IsRemoveSignal() bool { return i.Type == TypeRemoveSignal }

// ToolStatus is the payload of a "status" canvas frame.
type ToolStatus struct {
	ToolName string `json:"toolName"`
	Status   string `json:"status"` // active, inactive or error
}

// FileTypeFromName maps a file name to its preview type by extension.
func FileTypeFromName(name string) (FileType, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "pdf":
		return FilePDF, true
	case "xlsx", "xls":
		return FileExcel, true
	case "docx", "doc":
		return FileWord, true
	case "txt":
		return FileText, true
	case "md", "markdown":
		return FileMarkdown, true
	case "html", "htm":
		return FileHTML, true
	default:
		return "", false
	}
}
