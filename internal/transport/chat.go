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
	"sync"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
	"github.com/ConcealedGem/versa-chat-view/internal/stream"
)

// StreamCallbacks are the mutators the stream decoder writes through.
type StreamCallbacks struct {
	Update              stream.Updater
	SetReasoning        func(reasoning string)
	SetCompletedContent func(content string)
}

// SendOptions describes one conversational turn.
type SendOptions struct {
	Messages []model.Message
	// Body holds extra top-level request fields sent next to "messages".
	Body map[string]any

	// OnStart receives the response body before decoding starts so the caller
	// can close it to stop reading.
	OnStart func(body io.ReadCloser)
	StreamCallbacks
	OnFinish func()
	OnError  func(err error)
}

// RegenerateOptions describes a redo of the assistant turn at AssistantIndex.
type RegenerateOptions struct {
	Messages       []model.Message
	AssistantIndex int
	Body           map[string]any

	SetLoading func(loading bool)
	OnStart    func(body io.ReadCloser)
	StreamCallbacks
	OnFinish func()
	OnError  func(err error)
}

// Send performs one streaming chat request and decodes the response into
// the conversation through opts' callbacks.
//
// A 401, or an error body marking the caller as not authenticated, raises a
// login-required event and waits until a listener calls retry, then replays
// the identical request with the refreshed token. Any terminal error is
// passed to OnError and also returned. Cancellation of ctx is returned but
// never reported through OnError.
func (c *Client) Send(ctx context.Context, opts SendOptions) error {
	if opts.Update == nil {
		return c.fail(ctx, "send", opts.OnError, errors.New("transport: Update callback is required"))
	}

	body, err := c.openStream(ctx, "send", opts.Messages, opts.Body)
	if err != nil {
		return c.fail(ctx, "send", opts.OnError, err)
	}
	defer body.Close()

	if opts.OnStart != nil {
		opts.OnStart(body)
	}

	err = stream.Process(ctx, body, stream.Options{
		Update:              opts.Update,
		SetReasoning:        opts.SetReasoning,
		SetCompletedContent: opts.SetCompletedContent,
		Canvas:              c.canvas,
		Metrics:             c.metrics,
	})
	if err != nil {
		return c.fail(ctx, "send", opts.OnError, err)
	}

	c.metrics.RecordRequest("send", "ok")
	if opts.OnFinish != nil {
		opts.OnFinish()
	}
	return nil
}

// Regenerate resends the history that precedes the assistant turn at
// opts.AssistantIndex and streams the new answer into that same message.
// The target is cleared only once the backend has accepted the request.
func (c *Client) Regenerate(ctx context.Context, opts RegenerateOptions) error {
	index := opts.AssistantIndex
	if index < 0 || index >= len(opts.Messages) || opts.Messages[index].Role != model.RoleAssistant {
		return c.fail(ctx, "regenerate", opts.OnError,
			fmt.Errorf("%w: index %d", app_errors.ErrNothingToRegenerate, index))
	}
	if opts.Update == nil {
		return c.fail(ctx, "regenerate", opts.OnError, errors.New("transport: Update callback is required"))
	}

	setLoading := func(loading bool) {
		if opts.SetLoading != nil {
			opts.SetLoading(loading)
		}
	}
	setLoading(true)
	defer setLoading(false)

	history := model.CloneMessages(opts.Messages[:index])
	body, err := c.openStream(ctx, "regenerate", history, opts.Body)
	if err != nil {
		return c.fail(ctx, "regenerate", opts.OnError, err)
	}
	defer body.Close()

	opts.Update(func(messages []model.Message) []model.Message {
		if index >= len(messages) {
			return messages
		}
		updated := make([]model.Message, len(messages))
		copy(updated, messages)
		target := updated[index].Clone()
		target.Content = model.TextContent("")
		target.Reasoning = ""
		target.Sources = []model.Source{}
		target.IsError = false
		updated[index] = target
		return updated
	})

	if opts.OnStart != nil {
		opts.OnStart(body)
	}

	err = stream.Process(ctx, body, stream.Options{
		Update:              opts.Update,
		SetReasoning:        opts.SetReasoning,
		SetCompletedContent: opts.SetCompletedContent,
		MessageIndex:        &index,
		Canvas:              c.canvas,
		Metrics:             c.metrics,
	})
	if err != nil {
		return c.fail(ctx, "regenerate", opts.OnError, err)
	}

	c.metrics.RecordRequest("regenerate", "ok")
	if opts.OnFinish != nil {
		opts.OnFinish()
	}
	return nil
}

// openStream posts the chat request and returns the body of a 2xx
// response. Authentication failures are resolved by login and replay.
func (c *Client) openStream(ctx context.Context, op string, messages []model.Message, extra map[string]any) (io.ReadCloser, error) {
	payload, err := requestBody(messages, extra)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		req, err := c.newRequest(ctx, http.MethodPost, c.streamPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("chat request failed: %w", err)
		}
		slog.Debug("Chat response received", "operation", op, "status", resp.StatusCode, "attempt", attempt)

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return resp.Body, nil
		}

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		_ = resp.Body.Close()
		if readErr != nil {
			slog.Warn("Could not read error response body", "status", resp.StatusCode, "error", readErr)
		}

		if resp.StatusCode != http.StatusUnauthorized && !isAuthErrorBody(respBody) {
			return nil, &app_errors.HTTPError{StatusCode: resp.StatusCode, Body: respBody}
		}

		slog.Info("Backend requires login, waiting for credentials", "operation", op, "status", resp.StatusCode)
		c.metrics.RecordRequest(op, "login_required")
		if err := c.waitForLogin(ctx); err != nil {
			return nil, err
		}
		slog.Info("Login completed, replaying request", "operation", op)
	}
}

// waitForLogin raises the login-required event and blocks until a listener
// invokes the retry callback or ctx ends. The context handed to listeners is
// done as soon as the wait is over, so parked retries can be withdrawn.
func (c *Client) waitForLogin(ctx context.Context) error {
	if c.auth == nil {
		return app_errors.ErrNoLoginHandler
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	retried := make(chan struct{})
	var once sync.Once
	retry := func() { once.Do(func() { close(retried) }) }

	if err := c.auth.TriggerLogin(waitCtx, retry); err != nil {
		return err
	}

	select {
	case <-retried:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail records and reports a terminal error. Cancellation is returned but
// never reported as an error.
func (c *Client) fail(ctx context.Context, op string, onError func(error), err error) error {
	if IsCancellation(ctx, err) {
		c.metrics.RecordRequest(op, "canceled")
		slog.Debug("Chat request cancelled", "operation", op)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	c.metrics.RecordRequest(op, "error")
	slog.Error("Chat request failed", "operation", op, "error", err)
	if onError != nil {
		onError(err)
	}
	return err
}

func requestBody(messages []model.Message, extra map[string]any) ([]byte, error) {
	body := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	if messages == nil {
		messages = []model.Message{}
	}
	body["messages"] = messages

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not marshal chat request: %w", err)
	}
	return payload, nil
}
