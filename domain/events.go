package domain

import "strings"

// Event is a change notification published to subscribers. One event is
// emitted per changed subsystem; changes are never merged into one event.
type Event int

const (
	EventConnect Event = iota
	EventDisconnect
	EventDatabaseUpdated
	EventQueueChanged
	EventPlayerChanged
	EventVolumeChanged
	EventOptionsChanged
)

var eventNames = map[Event]string{
	EventConnect:         "connect",
	EventDisconnect:      "disconnect",
	EventDatabaseUpdated: "database-updated",
	EventQueueChanged:    "queue-changed",
	EventPlayerChanged:   "player-changed",
	EventVolumeChanged:   "volume-changed",
	EventOptionsChanged:  "options-changed",
}

// AllEvents lists every event kind in declaration order
var AllEvents = []Event{
	EventConnect,
	EventDisconnect,
	EventDatabaseUpdated,
	EventQueueChanged,
	EventPlayerChanged,
	EventVolumeChanged,
	EventOptionsChanged,
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseEvent looks an event up by its String name
func ParseEvent(name string) (Event, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for ev, n := range eventNames {
		if n == name {
			return ev, true
		}
	}
	return 0, false
}

// EventSet is a set of event kinds a subscriber cares about
type EventSet uint32

// NewEventSet builds a set from the given kinds
func NewEventSet(events ...Event) EventSet {
	var set EventSet
	for _, e := range events {
		set |= 1 << uint(e)
	}
	return set
}

// AllEventSet matches every event
func AllEventSet() EventSet {
	return NewEventSet(AllEvents...)
}

// Contains reports whether e is in the set
func (s EventSet) Contains(e Event) bool {
	return s&(1<<uint(e)) != 0
}

// Events returns the members of the set in declaration order
func (s EventSet) Events() []Event {
	var out []Event
	for _, e := range AllEvents {
		if s.Contains(e) {
			out = append(out, e)
		}
	}
	return out
}
