// Package auth carries the login-required event bus and the login client.
//
// Any component that hits an authentication wall calls TriggerLogin with a
// retry callback and a context that ends when the request stops waiting.
// Registered listeners (the bridge, the CLI prompt) collect
// credentials, store the new token and then invoke the retry callback.
package auth

import (
	"context"
	"log/slog"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/events"
	"github.com/ConcealedGem/versa-chat-view/internal/metrics"
)

// LoginListener is notified when a login is required. It should call retry
// once credentials were refreshed. ctx is done when the waiting request no
// longer needs the retry, after which calling it has no effect.
type LoginListener func(ctx context.Context, retry func())

type loginRequest struct {
	ctx   context.Context
	retry func()
}

// Events is the login-required topic shared by the whole application.
type Events struct {
	bus     *events.Bus[loginRequest]
	metrics *metrics.Metrics
}

// NewEvents creates the topic. m may be nil.
func NewEvents(m *metrics.Metrics) *Events {
	return &Events{
		bus:     events.NewBus[loginRequest]("login-required"),
		metrics: m,
	}
}

// AddListener registers a listener and returns the function that removes it.
func (e *Events) AddListener(listener LoginListener) (remove func()) {
	return e.bus.Subscribe(func(req loginRequest) { listener(req.ctx, req.retry) })
}

// HasListeners reports whether at least one listener is registered.
func (e *Events) HasListeners() bool {
	return e.bus.Len() > 0
}

// TriggerLogin hands retry to every registered listener. With no listener the
// authentication requirement cannot be satisfied and ErrNoLoginHandler is
// returned so the caller fails loudly.
func (e *Events) TriggerLogin(ctx context.Context, retry func()) error {
	if !e.HasListeners() {
		slog.Error("Login required but no login listener is registered")
		return app_errors.ErrNoLoginHandler
	}
	e.metrics.RecordLoginPrompt()
	slog.Info("Login required, notifying listeners", "listeners", e.bus.Len())
	e.bus.Publish(loginRequest{ctx: ctx, retry: retry})
	return nil
}
