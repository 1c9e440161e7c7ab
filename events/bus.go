// Package events fans out server change notifications to subscribers.
package events

import (
	"sync"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/yhkl-dev/navimpd/domain"
)

var log = logging.Logger("events")

// SubscriptionID identifies a subscription for Unsubscribe
type SubscriptionID string

// Handler is called once per matching event
type Handler func(domain.Event)

type subscription struct {
	id      SubscriptionID
	events  domain.EventSet
	handler Handler
}

// Bus keeps subscriptions and delivers published events to the matching ones
type Bus struct {
	mu       sync.RWMutex
	subs     []subscription
	dispatch func(func())
}

// NewBus creates a bus that runs handlers inline on the publishing goroutine
func NewBus() *Bus {
	return &Bus{}
}

// NewBusWithDispatcher creates a bus that hands each handler call to dispatch
func NewBusWithDispatcher(dispatch func(func())) *Bus {
	return &Bus{dispatch: dispatch}
}

// Subscribe registers handler for the given event kinds
func (b *Bus) Subscribe(events domain.EventSet, handler Handler) SubscriptionID {
	id := SubscriptionID(uuid.NewString())
	b.mu.Lock()
	b.subs = append(b.subs, subscription{id: id, events: events, handler: handler})
	b.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription and reports whether it existed
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	before := len(b.subs)
	b.subs = lo.Reject(b.subs, func(s subscription, _ int) bool { return s.id == id })
	return len(b.subs) != before
}

// Len is the number of live subscriptions
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers ev to every subscriber interested in it, in subscription
// order. A panicking handler is logged and does not stop delivery.
func (b *Bus) Publish(ev domain.Event) {
	b.mu.RLock()
	targets := lo.Filter(b.subs, func(s subscription, _ int) bool { return s.events.Contains(ev) })
	b.mu.RUnlock()

	for _, s := range targets {
		handler := s.handler
		id := s.id
		call := func() {
			var pc panics.Catcher
			pc.Try(func() { handler(ev) })
			if r := pc.Recovered(); r != nil {
				log.Errorw("event handler panicked", "event", ev.String(), "subscription", id, "panic", r.Value)
			}
		}
		if b.dispatch != nil {
			b.dispatch(call)
		} else {
			call()
		}
	}
}
