package bridge

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/interfaces"
)

type AddCanvasRequest struct {
	Type   canvas.Type `json:"type" validate:"required"`
	Source string      `json:"source"`
}

type FilePreviewRequest struct {
	FileName   string          `json:"fileName" validate:"required"`
	URL        string          `json:"url" validate:"required"`
	FileType   canvas.FileType `json:"fileType" validate:"required,oneof=pdf excel word text markdown html"`
	TotalPages int             `json:"totalPages" validate:"gte=0"`
}

// CanvasHandler exposes the canvas registry.
type CanvasHandler struct {
	registry interfaces.CanvasRegistry
}

func NewCanvasHandler(registry interfaces.CanvasRegistry) *CanvasHandler {
	return &CanvasHandler{registry: registry}
}

func (h *CanvasHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items := h.registry.GetAll()
	if items == nil {
		items = []canvas.Item{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// HandleAdd creates an item. A "status" payload is forwarded to tool-status
// listeners and creates nothing.
func (h *CanvasHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddCanvasRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	item, ok := h.registry.Add(req.Type, req.Source)
	if !ok {
		if req.Type == canvas.TypeStatus {
			respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "forwarded"})
			return
		}
		respondWithError(w, fmt.Errorf("%w: canvas type %q is reserved", app_errors.ErrValidation, req.Type))
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

func (h *CanvasHandler) HandleAddFilePreview(w http.ResponseWriter, r *http.Request) {
	var req FilePreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	item := h.registry.AddFilePreview(req.FileName, req.URL, req.FileType, req.TotalPages)
	respondWithJSON(w, http.StatusCreated, item)
}

func (h *CanvasHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	item, ok := h.registry.Toggle(id)
	if !ok {
		respondWithError(w, fmt.Errorf("canvas item %s: %w", id, app_errors.ErrNotFound))
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *CanvasHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	if !h.registry.Remove(id) {
		respondWithError(w, fmt.Errorf("canvas item %s: %w", id, app_errors.ErrNotFound))
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *CanvasHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.registry.Clear()
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
