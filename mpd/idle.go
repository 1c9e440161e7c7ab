package mpd

import (
	"strings"

	"github.com/yhkl-dev/navimpd/domain"
	"go.uber.org/atomic"
)

// idleSubsystems are the subsystems the listener waits on
var idleSubsystems = []string{"database", "update", "playlist", "player", "mixer", "options"}

// subsystemEvents maps a changed subsystem token onto the event it produces.
// Some server versions report a cleared queue as "12"; it is a queue change.
var subsystemEvents = map[string]domain.Event{
	"database": domain.EventDatabaseUpdated,
	"update":   domain.EventDatabaseUpdated,
	"playlist": domain.EventQueueChanged,
	"12":       domain.EventQueueChanged,
	"player":   domain.EventPlayerChanged,
	"mixer":    domain.EventVolumeChanged,
	"options":  domain.EventOptionsChanged,
}

// EventForSubsystem returns the event for a changed subsystem token
func EventForSubsystem(token string) (domain.Event, bool) {
	ev, ok := subsystemEvents[strings.ToLower(strings.TrimSpace(token))]
	return ev, ok
}

// EventsForChanges maps a batch of tokens to events, one per known token,
// keeping the server's order.
func EventsForChanges(tokens []string) []domain.Event {
	events := make([]domain.Event, 0, len(tokens))
	for _, t := range tokens {
		if ev, ok := EventForSubsystem(t); ok {
			events = append(events, ev)
		} else {
			log.Debugw("ignoring idle subsystem", "subsystem", t)
		}
	}
	return events
}

// ListenerState is the lifecycle of the idle loop
type ListenerState int32

const (
	ListenerIdle ListenerState = iota
	ListenerWaiting
	ListenerStopped
)

func (s ListenerState) String() string {
	switch s {
	case ListenerWaiting:
		return "waiting"
	case ListenerStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// IdleListener waits for change notifications on its own connection and
// publishes one event per changed subsystem.
type IdleListener struct {
	conn    *Conn
	publish func(domain.Event)
	onStop  func(error)
	state   *atomic.Int32
}

// NewIdleListener creates a listener on conn. publish receives every mapped
// event; onStop is called once when the loop ends.
func NewIdleListener(conn *Conn, publish func(domain.Event), onStop func(error)) *IdleListener {
	return &IdleListener{
		conn:    conn,
		publish: publish,
		onStop:  onStop,
		state:   atomic.NewInt32(int32(ListenerIdle)),
	}
}

// State reports where the loop currently is
func (l *IdleListener) State() ListenerState {
	return ListenerState(l.state.Load())
}

// Run blocks in the idle loop until the connection fails or is closed
func (l *IdleListener) Run() {
	request := Cmd("idle", toAny(idleSubsystems)...).Encode()
	for {
		l.state.Store(int32(ListenerWaiting))
		blocks, err := l.conn.roundtrip(request, modeBody, false)
		if err != nil {
			l.state.Store(int32(ListenerStopped))
			if !l.conn.Closed() {
				log.Warnw("idle connection lost", "err", err)
			}
			if l.onStop != nil {
				l.onStop(err)
			}
			return
		}
		l.state.Store(int32(ListenerIdle))

		var changed []string
		for _, b := range blocks {
			changed = append(changed, ParseChanged(b)...)
		}
		for _, ev := range EventsForChanges(changed) {
			l.publish(ev)
		}
	}
}

// Close tears down the idle connection, which unblocks Run
func (l *IdleListener) Close() error {
	return l.conn.Close()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
