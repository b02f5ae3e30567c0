// Package events is the notification bus between the tracking engine and
// whatever UI layer is attached to it. The engine dispatches typed domain
// events; observers (the UI bridge, the logger) subscribe and filter.
package events

import (
	"log"
	"sync"
)

// Event names dispatched by the engine.
const (
	TypeStatsUpdated    = "stats:updated"
	TypeEventRecorded   = "event:recorded"
	TypeEventDeleted    = "event:deleted"
	TypeWorkflowPrompt  = "workflow:prompt"
	TypeSyncPending     = "sync:pending"
	TypeSyncFlushed     = "sync:flushed"
	TypeSessionStarted  = "session:started"
	TypeSessionResumed  = "session:resumed"
	TypeSessionEnded    = "session:ended"
	TypeAggregationDone = "aggregation:done"
	TypeConflict        = "aggregation:conflict"
)

// Event is one notification with its typed payload.
type Event struct {
	// Type is the event name, one of the Type* constants.
	Type string

	// Payload is the typed payload struct for the event type, possibly nil.
	Payload any
}

// Observer receives dispatched events.
type Observer interface {
	// OnEvent handles one event. Errors are logged by the dispatcher;
	// they never stop delivery to other observers.
	OnEvent(event Event) error

	// Name returns a human-readable name used in logs.
	Name() string

	// ShouldHandle filters which event types the observer cares about.
	ShouldHandle(eventType string) bool
}

// Dispatcher fans events out to registered observers. Safe for concurrent
// use.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds an observer. It receives all future events that pass its
// ShouldHandle filter.
func (d *Dispatcher) Register(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, obs := range d.observers {
		if obs == o {
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			return
		}
	}
}

// Dispatch delivers the event to every interested observer, sequentially and
// in registration order. Observer errors are logged and skipped.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, o := range observers {
		if !o.ShouldHandle(event.Type) {
			continue
		}
		if err := o.OnEvent(event); err != nil {
			log.Printf("[dispatcher] observer %s failed on %s: %v", o.Name(), event.Type, err)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Payload extracts a typed payload from an event, reporting whether the
// payload is of the expected type.
func Payload[T any](event Event) (T, bool) {
	var zero T
	if event.Payload == nil {
		return zero, false
	}
	typed, ok := event.Payload.(T)
	return typed, ok
}
