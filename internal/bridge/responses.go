package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/transport"
)

// This file contains shared DTOs for bridge responses and the helpers that
// write them, including the server-sent events framing.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by operations that have nothing else to report.
type StatusResponse struct {
	Status string `json:"status"`
}

// respondWithError maps sentinel and transport errors to HTTP status codes
// and writes a standard JSON error response.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string
	var httpErr *transport.HTTPError

	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, app_errors.ErrNothingToRegenerate):
		statusCode = http.StatusConflict
		message = err.Error()
	case errors.Is(err, app_errors.ErrNoToken), errors.Is(err, app_errors.ErrUnauthenticated):
		statusCode = http.StatusUnauthorized
		message = err.Error()
	case errors.As(err, &httpErr):
		if httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden {
			statusCode = http.StatusUnauthorized
			message = "The agent backend rejected the credentials."
		} else {
			statusCode = http.StatusBadGateway
			message = fmt.Sprintf("The agent backend returned status %d.", httpErr.StatusCode)
		}
	case transport.IsNetworkError(err):
		statusCode = http.StatusBadGateway
		message = "The agent backend is unreachable."
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// decodeJSON reads the request body into v; malformed input is a
// validation error.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request payload: %s", app_errors.ErrValidation, err.Error())
	}
	return nil
}

// writeStreamEvent writes one named server-sent event and flushes it. A
// write failure means the client has gone away.
func writeStreamEvent(w http.ResponseWriter, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data to JSON", "event", event, "error", err)
		return nil
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
