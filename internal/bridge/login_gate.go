package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ConcealedGem/versa-chat-view/internal/events"
)

// LoginRequired is published on the event feed while requests wait for a login.
type LoginRequired struct {
	Pending int `json:"pending"`
}

type parkedRetry struct {
	id    uint64
	retry func()
	stop  func() bool
}

// LoginGate is the bridge's login listener. It parks the retry callbacks of
// requests that hit an authentication wall until the UI posts credentials.
// A request that stops waiting is withdrawn from the gate.
type LoginGate struct {
	mu      sync.Mutex
	nextID  uint64
	pending []parkedRetry
	updates *events.Bus[LoginRequired]
}

func NewLoginGate() *LoginGate {
	return &LoginGate{updates: events.NewBus[LoginRequired]("login-gate")}
}

// Listen has the shape of auth.LoginListener.
func (g *LoginGate) Listen(ctx context.Context, retry func()) {
	g.mu.Lock()
	if ctx.Err() != nil {
		g.mu.Unlock()
		return
	}
	g.nextID++
	id := g.nextID
	g.pending = append(g.pending, parkedRetry{
		id:    id,
		retry: retry,
		stop:  context.AfterFunc(ctx, func() { g.withdraw(id) }),
	})
	n := len(g.pending)
	g.mu.Unlock()

	slog.Info("Request parked until login", "pending", n)
	g.updates.Publish(LoginRequired{Pending: n})
}

func (g *LoginGate) withdraw(id uint64) {
	g.mu.Lock()
	found := false
	for i, p := range g.pending {
		if p.id == id {
			g.pending = append(g.pending[:i:i], g.pending[i+1:]...)
			found = true
			break
		}
	}
	n := len(g.pending)
	g.mu.Unlock()

	if found {
		slog.Info("Parked request withdrawn", "pending", n)
		g.updates.Publish(LoginRequired{Pending: n})
	}
}

// Release replays every parked request and reports how many there were.
func (g *LoginGate) Release() int {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, p := range pending {
		p.stop()
		p.retry()
	}
	if len(pending) > 0 {
		slog.Info("Released requests after login", "count", len(pending))
	}
	return len(pending)
}

func (g *LoginGate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *LoginGate) Subscribe(fn func(LoginRequired)) (unsubscribe func()) {
	return g.updates.Subscribe(fn)
}
