// Package transport talks to the remote agent backend: the streaming chat
// request with its login-and-replay path, regeneration, uploads and the
// auxiliary management endpoints.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ConcealedGem/versa-chat-view/internal/auth"
	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/metrics"
	"github.com/ConcealedGem/versa-chat-view/internal/repository"
	"github.com/ConcealedGem/versa-chat-view/internal/stream"
)

// DefaultStreamPath is the chat endpoint used when Options.StreamPath is empty.
const DefaultStreamPath = "/api/chat/stream"

// Canvas is the part of the canvas registry the transport feeds: stream
// frames and local upload previews.
type Canvas interface {
	stream.CanvasSink
	AddFilePreview(fileName, url string, fileType canvas.FileType, totalPages int) canvas.Item
}

// Options wires a Client. Storage is required; everything else may be left
// zero. A nil Auth behaves like an event bus without listeners.
type Options struct {
	BaseURL          string
	StreamPath       string
	HTTPClient       *http.Client
	Storage          repository.Storage
	Auth             *auth.Events
	Canvas           Canvas
	Metrics          *metrics.Metrics
	PreviewSizeLimit int64
}

type Client struct {
	baseURL          string
	streamPath       string
	http             *http.Client
	storage          repository.Storage
	auth             *auth.Events
	canvas           Canvas
	metrics          *metrics.Metrics
	previewSizeLimit int64
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		streamPath:       opts.StreamPath,
		http:             opts.HTTPClient,
		storage:          opts.Storage,
		auth:             opts.Auth,
		canvas:           opts.Canvas,
		metrics:          opts.Metrics,
		previewSizeLimit: opts.PreviewSizeLimit,
	}
	if c.streamPath == "" {
		c.streamPath = DefaultStreamPath
	}
	if c.http == nil {
		// No overall timeout: stream responses stay open for minutes.
		c.http = &http.Client{}
	}
	if c.previewSizeLimit <= 0 {
		c.previewSizeLimit = DefaultPreviewSizeLimit
	}
	return c
}

// token reads the stored bearer token. A missing token is not an error.
func (c *Client) token(ctx context.Context) (string, error) {
	token, err := c.storage.GetItem(ctx, repository.KeyToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("could not read stored token: %w", err)
	}
	return token, nil
}

// newRequest builds a request against the backend, attaching the stored
// bearer token when there is one.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	slog.Debug("Prepared backend request", "method", method, "path", path, "token_found", token != "")
	return req, nil
}

// doJSON sends an optional JSON body and decodes a 2xx JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &app_errors.HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}
