package event

import "reflect"

// Kind is the closed set of event kinds the simulation publishes.
type Kind uint8

const (
	KindBar Kind = iota + 1
	KindOrder
	KindTrade
	KindPortfolio
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case KindBar:
		return "BAR"
	case KindOrder:
		return "ORDER"
	case KindTrade:
		return "TRADE"
	case KindPortfolio:
		return "PORTFOLIO"
	default:
		return "UNKNOWN"
	}
}

// Event carries one simulation event. Date is the YYYYMMDD bar date; Data
// holds the kind-specific payload (domain.Bar, domain.Order, domain.Trade).
type Event struct {
	Kind Kind
	Date int
	Data any
}

// Handler processes one event. Handlers run synchronously on the calling
// goroutine; a panic propagates to the publisher.
type Handler func(Event)

// Dispatcher is the synchronous publish/register spine of the simulation.
// It is single-threaded by design: no handler ever runs concurrently with
// another, and re-entrant publishing executes depth-first, immediately.
type Dispatcher struct {
	handlers map[Kind][]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Kind][]Handler)}
}

// Register attaches a handler to an event kind. Registration order is
// preserved for invocation; registering the same handler twice is a no-op.
func (d *Dispatcher) Register(kind Kind, h Handler) {
	hp := reflect.ValueOf(h).Pointer()
	for _, cur := range d.handlers[kind] {
		if reflect.ValueOf(cur).Pointer() == hp {
			return
		}
	}
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Unregister removes a handler from an event kind. Idempotent.
func (d *Dispatcher) Unregister(kind Kind, h Handler) {
	hp := reflect.ValueOf(h).Pointer()
	list := d.handlers[kind]
	for i, cur := range list {
		if reflect.ValueOf(cur).Pointer() == hp {
			d.handlers[kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish synchronously invokes every handler registered for the event's
// kind, in registration order. The dispatcher performs no error
// containment: callers catch domain errors before they reach it.
func (d *Dispatcher) Publish(ev Event) {
	for _, h := range d.handlers[ev.Kind] {
		h(ev)
	}
}
