// Package bridge is the local HTTP API in front of one conversation session
// and one canvas registry. A browser UI or the CLI drives the session through
// JSON endpoints and follows its progress on a server-sent event feed.
package bridge

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything NewRouter mounts. Metrics and StaticDir are optional.
type Handlers struct {
	Chat    *ChatHandler
	Canvas  *CanvasHandler
	Auth    *AuthHandler
	Agent   *AgentHandler
	Events  *EventsHandler
	Metrics http.Handler
	// StaticDir, when set, is served at the root for the browser UI.
	StaticDir string
}

// NewRouter creates and configures a new chi router with all the bridge's routes.
func NewRouter(h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// --- Conversation ---
			r.Get("/messages", h.Chat.HandleGetMessages)
			r.Post("/messages", h.Chat.HandlePostMessage)
			r.Post("/messages/append", h.Chat.HandleAppend)
			r.Post("/stop", h.Chat.HandleStop)
			r.Post("/regenerate", h.Chat.HandleRegenerate)
			r.Post("/reset", h.Chat.HandleReset)

			// --- Canvas ---
			r.Get("/canvas", h.Canvas.HandleList)
			r.Post("/canvas", h.Canvas.HandleAdd)
			r.Post("/canvas/file-preview", h.Canvas.HandleAddFilePreview)
			r.Post("/canvas/{itemID}/toggle", h.Canvas.HandleToggle)
			r.Delete("/canvas/{itemID}", h.Canvas.HandleRemove)
			r.Delete("/canvas", h.Canvas.HandleClear)

			// --- Auth ---
			r.Post("/login", h.Auth.HandleLogin)
			r.Post("/logout", h.Auth.HandleLogout)

			// --- Agent backend ---
			r.Get("/assistants", h.Agent.HandleListAssistants)
			r.Post("/assistants/switch", h.Agent.HandleSwitchAssistant)
			r.Get("/tools", h.Agent.HandleListTools)
			r.Delete("/tools/{toolName}", h.Agent.HandleDeleteTool)
		})

		// Long-lived or large requests: no timeout.
		r.Group(func(r chi.Router) {
			r.Get("/events", h.Events.HandleEvents)
			r.Post("/upload", h.Agent.HandleUpload)
		})
	})

	if h.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(h.StaticDir))
		r.Handle("/*", http.StripPrefix("/", fileServer))
	}

	return r
}
