// Package canvas holds the auxiliary render items (HTML, Markdown, images,
// file previews) that stream alongside a conversation.
package canvas

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ConcealedGem/versa-chat-view/internal/events"
	"github.com/ConcealedGem/versa-chat-view/internal/metrics"
)

// Registry is the single store of canvas items for one application instance.
// Item IDs are unique; putting an item with an existing ID replaces it in place.
type Registry struct {
	mu    sync.Mutex
	items []Item

	updates    *events.Bus[Item]
	toolStatus *events.Bus[ToolStatus]

	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		updates:    events.NewBus[Item]("canvas"),
		toolStatus: events.NewBus[ToolStatus]("tool-status"),
		metrics:    m,
		now:        time.Now,
	}
}

// Subscribe registers a listener for add, update, toggle and remove
// notifications. Removals arrive as an Item of TypeRemoveSignal.
func (r *Registry) Subscribe(fn func(Item)) (unsubscribe func()) {
	return r.updates.Subscribe(fn)
}

// SubscribeToolStatus registers a listener for tool-status payloads.
func (r *Registry) SubscribeToolStatus(fn func(ToolStatus)) (unsubscribe func()) {
	return r.toolStatus.Subscribe(fn)
}

// Add creates a new item with a fresh ID. A TypeStatus payload is parsed and
// forwarded to tool-status listeners instead; ok is false in that case.
func (r *Registry) Add(canvasType Type, source string) (item Item, ok bool) {
	switch canvasType {
	case TypeStatus:
		r.publishToolStatus(source)
		return Item{}, false
	case TypeRemoveSignal, "":
		slog.Warn("Refusing to add canvas item with reserved or empty type", "type", canvasType)
		return Item{}, false
	}

	return r.Put(Item{
		ID:     newID("canvas"),
		Type:   canvasType,
		Source: source,
	}), true
}

// AddFilePreview creates a file-preview item on page 1, expanded.
func (r *Registry) AddFilePreview(fileName, url string, fileType FileType, totalPages int) Item {
	if totalPages < 1 {
		totalPages = 1
	}
	return r.Put(Item{
		ID:          newID("file-preview"),
		Type:        TypeFilePreview,
		Source:      url,
		FileName:    fileName,
		FileType:    fileType,
		TotalPages:  totalPages,
		CurrentPage: 1,
	})
}

// Put inserts item, or replaces the existing item with the same ID without
// changing its position. Missing IDs and timestamps are filled in.
func (r *Registry) Put(item Item) Item {
	if item.ID == "" {
		item.ID = newID("canvas")
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = r.now()
	}

	r.mu.Lock()
	replaced := false
	for i := range r.items {
		if r.items[i].ID == item.ID {
			r.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		r.items = append(r.items, item)
	}
	count := len(r.items)
	r.mu.Unlock()

	r.metrics.SetCanvasItems(count)
	slog.Debug("Canvas item stored", "id", item.ID, "type", item.Type, "replaced", replaced)

	r.updates.Publish(item)
	return item
}

// Remove deletes the item and notifies subscribers with a remove signal.
// It reports whether an item was removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	index := -1
	for i := range r.items {
		if r.items[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		r.mu.Unlock()
		return false
	}
	r.items = append(r.items[:index:index], r.items[index+1:]...)
	count := len(r.items)
	r.mu.Unlock()

	r.metrics.SetCanvasItems(count)
	slog.Debug("Canvas item removed", "id", id)

	r.updates.Publish(Item{ID: id, Type: TypeRemoveSignal, Timestamp: r.now()})
	return true
}

// Toggle flips the collapsed flag and notifies subscribers with the updated item.
func (r *Registry) Toggle(id string) (Item, bool) {
	r.mu.Lock()
	var updated Item
	found := false
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Collapsed = !r.items[i].Collapsed
			updated = r.items[i]
			found = true
			break
		}
	}
	r.mu.Unlock()

	if !found {
		return Item{}, false
	}
	r.updates.Publish(updated)
	return updated, true
}

// Get returns the item with the given ID.
func (r *Registry) Get(id string) (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// GetAll returns a copy of all items in insertion order.
func (r *Registry) GetAll() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of stored items.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Clear empties the store. Subscribers are not notified; callers reset
// their own view.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
	r.metrics.SetCanvasItems(0)
	slog.Debug("Canvas cleared")
}

func (r *Registry) publishToolStatus(source string) {
	var status ToolStatus
	if err := json.Unmarshal([]byte(source), &status); err != nil {
		slog.Error("Failed to parse tool status payload", "error", err)
		return
	}
	if status.ToolName == "" || status.Status == "" {
		slog.Debug("Ignoring tool status payload without toolName or status", "source", source)
		return
	}
	r.toolStatus.Publish(status)
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
