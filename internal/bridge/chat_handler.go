package bridge

import (
	"fmt"
	"log/slog"
	"net/http"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/interfaces"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

// SubmitRequest starts a turn with either plain text or content parts.
type SubmitRequest struct {
	Content string              `json:"content"`
	Parts   []model.ContentPart `json:"parts" validate:"omitempty,dive"`
}

// AppendRequest adds a complete message without contacting the backend.
type AppendRequest struct {
	Role    model.Role    `json:"role" validate:"required,oneof=user assistant system"`
	Content model.Content `json:"content"`
}

// ChatHandler exposes the conversation session.
type ChatHandler struct {
	session interfaces.ChatSession
	canvas  interfaces.CanvasRegistry
}

func NewChatHandler(session interfaces.ChatSession, canvas interfaces.CanvasRegistry) *ChatHandler {
	return &ChatHandler{session: session, canvas: canvas}
}

// HandleGetMessages returns the current conversation state.
func (h *ChatHandler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandlePostMessage starts a new turn. The answer arrives on the event feed.
func (h *ChatHandler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	var started bool
	if len(req.Parts) > 0 {
		started = h.session.SendMessage(req.Parts)
	} else {
		started = h.session.Submit(req.Content)
	}
	if !started {
		respondWithError(w, fmt.Errorf("%w: message is empty", app_errors.ErrValidation))
		return
	}
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}

func (h *ChatHandler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	var req AppendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	message := model.Message{Role: req.Role, Content: req.Content}
	if req.Role == model.RoleAssistant {
		message.Sources = []model.Source{}
	}
	h.session.Append(message)
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *ChatHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.session.Stop()
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *ChatHandler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Regenerate(); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}

// HandleReset clears the conversation and the canvas.
func (h *ChatHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reset(r.Context()); err != nil {
		respondWithError(w, err)
		return
	}
	h.canvas.Clear()
	slog.Info("Conversation reset")
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
