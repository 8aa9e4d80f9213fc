package bridge

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/interfaces"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

type SwitchAssistantRequest struct {
	AssistantID string `json:"assistant-id" validate:"required"`
}

type ToolsResponse struct {
	Tools []model.Tool `json:"tools"`
}

// AgentHandler proxies the auxiliary backend endpoints and uploads.
type AgentHandler struct {
	agent interfaces.AgentService
}

func NewAgentHandler(svc interfaces.AgentService) *AgentHandler {
	return &AgentHandler{agent: svc}
}

func (h *AgentHandler) HandleListAssistants(w http.ResponseWriter, r *http.Request) {
	list, err := h.agent.ListAssistants(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *AgentHandler) HandleSwitchAssistant(w http.ResponseWriter, r *http.Request) {
	var req SwitchAssistantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.agent.SwitchAssistant(r.Context(), req.AssistantID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *AgentHandler) HandleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.agent.ListTools(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if tools == nil {
		tools = []model.Tool{}
	}
	respondWithJSON(w, http.StatusOK, ToolsResponse{Tools: tools})
}

func (h *AgentHandler) HandleDeleteTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "toolName")
	if err := h.agent.DeleteTool(r.Context(), name); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleUpload forwards the multipart "file" field to the backend and
// returns the content part that references the uploaded file.
func (h *AgentHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, transport.MaxUploadSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: multipart field 'file' is required: %s", app_errors.ErrValidation, err.Error()))
		return
	}
	defer file.Close()

	result, err := h.agent.Upload(r.Context(), header.Filename, file)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, transport.BuildFilePart(header.Filename, result))
}
