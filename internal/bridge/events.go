package bridge

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	"github.com/ConcealedGem/versa-chat-view/internal/chat"
	"github.com/ConcealedGem/versa-chat-view/internal/interfaces"
)

// Event names on the feed.
const (
	EventMessages      = "messages"
	EventCanvas        = "canvas"
	EventCanvasItems   = "canvas-items"
	EventToolStatus    = "tool-status"
	EventLoginRequired = "login-required"
)

const (
	feedBuffer            = 256
	defaultKeepAlivePause = 15 * time.Second
)

type feedEvent struct {
	name string
	data interface{}
}

// EventsHandler serves one server-sent event feed per client that
// multiplexes conversation changes, canvas notifications, tool status and
// login requests.
type EventsHandler struct {
	session interfaces.ChatSession
	canvas  interfaces.CanvasRegistry
	gate    *LoginGate

	// KeepAlive is the interval of comment lines sent to idle clients.
	KeepAlive time.Duration
}

func NewEventsHandler(session interfaces.ChatSession, registry interfaces.CanvasRegistry, gate *LoginGate) *EventsHandler {
	return &EventsHandler{
		session:   session,
		canvas:    registry,
		gate:      gate,
		KeepAlive: defaultKeepAlivePause,
	}
}

// HandleEvents streams the feed until the client disconnects. The first
// events carry the current messages and canvas items, and a pending login
// request if there is one.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		respondWithError(w, fmt.Errorf("response writer does not support streaming"))
		return
	}

	feed := make(chan feedEvent, feedBuffer)
	push := func(name string, data interface{}) {
		select {
		case feed <- feedEvent{name: name, data: data}:
		default:
			slog.Warn("Dropping event for slow client", "event", name)
		}
	}

	unsubscribers := []func(){
		h.session.Subscribe(func(s chat.State) { push(EventMessages, s) }),
		h.canvas.Subscribe(func(item canvas.Item) { push(EventCanvas, item) }),
		h.canvas.SubscribeToolStatus(func(status canvas.ToolStatus) { push(EventToolStatus, status) }),
		h.gate.Subscribe(func(e LoginRequired) { push(EventLoginRequired, e) }),
	}
	defer func() {
		for _, unsubscribe := range unsubscribers {
			if unsubscribe != nil {
				unsubscribe()
			}
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	items := h.canvas.GetAll()
	if items == nil {
		items = []canvas.Item{}
	}
	if err := writeStreamEvent(w, EventMessages, h.session.Snapshot()); err != nil {
		return
	}
	if err := writeStreamEvent(w, EventCanvasItems, items); err != nil {
		return
	}
	if n := h.gate.Pending(); n > 0 {
		if err := writeStreamEvent(w, EventLoginRequired, LoginRequired{Pending: n}); err != nil {
			return
		}
	}

	slog.Info("Event feed client connected", "remote", r.RemoteAddr)
	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("Event feed client disconnected", "remote", r.RemoteAddr)
			return
		case ev := <-feed:
			if err := writeStreamEvent(w, ev.name, ev.data); err != nil {
				slog.Warn("Could not write to event feed, client likely disconnected", "error", err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			w.(http.Flusher).Flush()
		}
	}
}
