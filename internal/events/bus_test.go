package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus[int]("test")
	var got []string

	bus.Subscribe(func(v int) { got = append(got, "first") })
	bus.Subscribe(func(v int) { got = append(got, "second") })
	bus.Subscribe(func(v int) { got = append(got, "third") })

	bus.Publish(1)

	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestBus_PanickingListenerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus[string]("test")
	var received []string

	bus.Subscribe(func(v string) { panic("boom") })
	bus.Subscribe(func(v string) { received = append(received, v) })

	assert.NotPanics(t, func() { bus.Publish("hello") })
	assert.Equal(t, []string{"hello"}, received)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus[int]("test")
	calls := 0

	unsubscribe := bus.Subscribe(func(int) { calls++ })
	assert.Equal(t, 1, bus.Len())

	bus.Publish(1)
	unsubscribe()
	unsubscribe() // second call is a no-op
	bus.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus[int]("test")
	var order []int

	var unsubscribeSecond func()
	bus.Subscribe(func(int) {
		order = append(order, 1)
		unsubscribeSecond()
	})
	unsubscribeSecond = bus.Subscribe(func(int) { order = append(order, 2) })

	// The snapshot taken at publish time still includes the second listener.
	bus.Publish(0)
	bus.Publish(0)

	assert.Equal(t, []int{1, 2, 1}, order)
}
