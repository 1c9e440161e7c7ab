package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yhkl-dev/navimpd/domain"
)

func TestPublishFiltersByEventSet(t *testing.T) {
	bus := NewBus()
	var queue, all []domain.Event
	bus.Subscribe(domain.NewEventSet(domain.EventQueueChanged), func(ev domain.Event) { queue = append(queue, ev) })
	bus.Subscribe(domain.AllEventSet(), func(ev domain.Event) { all = append(all, ev) })

	bus.Publish(domain.EventPlayerChanged)
	bus.Publish(domain.EventQueueChanged)
	bus.Publish(domain.EventQueueChanged)

	assert.Equal(t, []domain.Event{domain.EventQueueChanged, domain.EventQueueChanged}, queue)
	assert.Equal(t, []domain.Event{domain.EventPlayerChanged, domain.EventQueueChanged, domain.EventQueueChanged}, all)
}

func TestPublishInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		bus.Subscribe(domain.AllEventSet(), func(domain.Event) { order = append(order, i) })
	}
	bus.Publish(domain.EventConnect)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	id := bus.Subscribe(domain.AllEventSet(), func(domain.Event) { calls++ })
	bus.Subscribe(domain.AllEventSet(), func(domain.Event) {})
	require.Equal(t, 2, bus.Len())

	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))
	assert.Equal(t, 1, bus.Len())

	bus.Publish(domain.EventDisconnect)
	assert.Equal(t, 0, calls)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe(domain.AllEventSet(), func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.AllEventSet(), func(domain.Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Publish(domain.EventVolumeChanged) })
	assert.True(t, delivered)
}

func TestDispatcher(t *testing.T) {
	var queued []func()
	bus := NewBusWithDispatcher(func(f func()) { queued = append(queued, f) })
	got := 0
	bus.Subscribe(domain.NewEventSet(domain.EventOptionsChanged), func(domain.Event) { got++ })

	bus.Publish(domain.EventOptionsChanged)
	bus.Publish(domain.EventVolumeChanged)
	assert.Equal(t, 0, got)
	for _, f := range queued {
		f()
	}
	assert.Equal(t, 1, got)
}
