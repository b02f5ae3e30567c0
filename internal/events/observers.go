package events

import (
	"log"
)

// LoggingObserver logs dispatched events, for development and for the
// headless CLI where no UI bridge is attached.
type LoggingObserver struct {
	name    string
	verbose bool
}

// NewLoggingObserver creates an observer that logs every event. With verbose
// set, payloads are included.
func NewLoggingObserver(verbose bool) *LoggingObserver {
	return &LoggingObserver{name: "LoggingObserver", verbose: verbose}
}

// OnEvent logs the event.
func (o *LoggingObserver) OnEvent(event Event) error {
	if o.verbose {
		log.Printf("[%s] %s payload=%+v", o.name, event.Type, event.Payload)
	} else {
		log.Printf("[%s] %s", o.name, event.Type)
	}
	return nil
}

// Name returns the observer's name.
func (o *LoggingObserver) Name() string { return o.name }

// ShouldHandle returns true for all events.
func (o *LoggingObserver) ShouldHandle(string) bool { return true }

// FuncObserver adapts a function into an Observer, handy for UI bridges and
// tests.
type FuncObserver struct {
	ObserverName string
	Filter       func(eventType string) bool
	Handle       func(event Event) error
}

// OnEvent invokes the wrapped function.
func (o *FuncObserver) OnEvent(event Event) error {
	if o.Handle == nil {
		return nil
	}
	return o.Handle(event)
}

// Name returns the observer's name.
func (o *FuncObserver) Name() string {
	if o.ObserverName == "" {
		return "FuncObserver"
	}
	return o.ObserverName
}

// ShouldHandle applies the filter, defaulting to everything.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	if o.Filter == nil {
		return true
	}
	return o.Filter(eventType)
}
