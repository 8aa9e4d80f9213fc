package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

// hiddenTools are internal agent tools never listed to users.
var hiddenTools = map[string]bool{"finish": true, "list-tools": true}

type envelopeResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// ListAssistants returns the available assistants and the active one.
func (c *Client) ListAssistants(ctx context.Context) (*model.AssistantList, error) {
	var resp envelopeResponse[model.AssistantList]
	if err := c.doJSON(ctx, http.MethodGet, "/api/assistants", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendFailure("list assistants", resp.Message)
	}
	return &resp.Data, nil
}

// SwitchAssistant activates the assistant with the given id.
func (c *Client) SwitchAssistant(ctx context.Context, assistantID string) error {
	req := map[string]string{"assistant-id": assistantID}
	var resp envelopeResponse[any]
	if err := c.doJSON(ctx, http.MethodPost, "/api/assistants/switch", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return backendFailure("switch assistant", resp.Message)
	}
	return nil
}

// ListTools returns the registered agent tools without the internal ones.
func (c *Client) ListTools(ctx context.Context) ([]model.Tool, error) {
	var resp struct {
		Tools []model.Tool `json:"tools"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/agent/tools", nil, &resp); err != nil {
		return nil, err
	}
	tools := make([]model.Tool, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		if !hiddenTools[t.Name] {
			tools = append(tools, t)
		}
	}
	return tools, nil
}

// DeleteTool unregisters a tool.
func (c *Client) DeleteTool(ctx context.Context, name string) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/api/agent/tools/"+url.PathEscape(name), nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return backendFailure("delete tool "+name, resp.Message)
	}
	return nil
}

func backendFailure(op, message string) error {
	if message == "" {
		return errors.New(op + " failed")
	}
	return fmt.Errorf("%s failed: %s", op, message)
}
