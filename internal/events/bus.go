// Package events provides a small synchronous publish/subscribe bus.
//
// Listeners are invoked in registration order on the publishing goroutine.
// A panicking listener is logged and skipped so that delivery to the
// remaining listeners continues.
package events

import (
	"log/slog"
	"sync"
)

// Bus is a typed topic. The zero value is not usable; use NewBus.
type Bus[T any] struct {
	name string

	mu        sync.Mutex
	nextID    uint64
	listeners []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// NewBus creates a topic. The name is only used in log output.
func NewBus[T any](name string) *Bus[T] {
	return &Bus[T]{name: name}
}

// Subscribe registers fn and returns a function that unregisters it.
// The returned function is safe to call more than once.
func (b *Bus[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription[T]{id: id, fn: fn})
	count := len(b.listeners)
	b.mu.Unlock()

	slog.Debug("Listener added", "topic", b.name, "listeners", count)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.listeners {
		if s.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			break
		}
	}
	slog.Debug("Listener removed", "topic", b.name, "listeners", len(b.listeners))
}

// Len returns the number of registered listeners.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Publish delivers v to every listener registered at the time of the call.
// Listeners may subscribe or unsubscribe from within a callback; such changes
// take effect on the next Publish.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	snapshot := make([]subscription[T], len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for _, s := range snapshot {
		b.deliver(s.fn, v)
	}
}

func (b *Bus[T]) deliver(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Listener panicked", "topic", b.name, "panic", r)
		}
	}()
	fn(v)
}
