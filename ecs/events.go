package ecs

import "fmt"

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// EventQueue is a FIFO queue of events that live until the end of the tick.
// Readers do not consume events, so several systems can observe the same one.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Items returns the events pushed so far this tick.
func (q *EventQueue) Items() []Event {
	if q == nil {
		return nil
	}
	return q.items
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}

// Emit pushes data onto the world queue, typed by its Go type name.
func Emit(w *World, data any) {
	if w == nil || data == nil {
		return
	}
	w.events.Push(Event{Type: fmt.Sprintf("%T", data), Data: data})
}

// Read returns every event payload of type T emitted this tick, in order.
func Read[T any](w *World) []T {
	if w == nil {
		return nil
	}
	var out []T
	for _, evt := range w.Events().Items() {
		if v, ok := evt.Data.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
