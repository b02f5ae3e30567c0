package events

import (
	"errors"
	"testing"
)

func TestDispatchDeliversInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		d.Register(&FuncObserver{
			ObserverName: name,
			Handle: func(Event) error {
				order = append(order, name)
				return nil
			},
		})
	}

	d.Dispatch(Event{Type: TypeStatsUpdated})

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("delivery order = %v", order)
	}
}

func TestDispatchAppliesFilter(t *testing.T) {
	d := NewDispatcher()
	var got []string
	d.Register(&FuncObserver{
		Filter: func(eventType string) bool { return eventType == TypeEventRecorded },
		Handle: func(e Event) error {
			got = append(got, e.Type)
			return nil
		},
	})

	d.Dispatch(Event{Type: TypeStatsUpdated})
	d.Dispatch(Event{Type: TypeEventRecorded})
	d.Dispatch(Event{Type: TypeSyncPending})

	if len(got) != 1 || got[0] != TypeEventRecorded {
		t.Errorf("handled %v, want only %s", got, TypeEventRecorded)
	}
}

func TestObserverErrorDoesNotStopDelivery(t *testing.T) {
	d := NewDispatcher()
	d.Register(&FuncObserver{
		ObserverName: "failing",
		Handle:       func(Event) error { return errors.New("boom") },
	})
	delivered := false
	d.Register(&FuncObserver{
		ObserverName: "after",
		Handle: func(Event) error {
			delivered = true
			return nil
		},
	})

	d.Dispatch(Event{Type: TypeStatsUpdated})

	if !delivered {
		t.Error("observer after a failing one never ran")
	}
}

func TestUnregister(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	o := &FuncObserver{Handle: func(Event) error { calls++; return nil }}
	d.Register(o)
	if d.ObserverCount() != 1 {
		t.Fatalf("observer count = %d, want 1", d.ObserverCount())
	}

	d.Dispatch(Event{Type: TypeStatsUpdated})
	d.Unregister(o)
	d.Dispatch(Event{Type: TypeStatsUpdated})

	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if d.ObserverCount() != 0 {
		t.Errorf("observer count = %d after unregister, want 0", d.ObserverCount())
	}
}

func TestPayloadExtraction(t *testing.T) {
	e := Event{Type: TypeStatsUpdated, Payload: StatsUpdatedPayload{HomeScore: 12}}

	got, ok := Payload[StatsUpdatedPayload](e)
	if !ok || got.HomeScore != 12 {
		t.Errorf("Payload() = %+v, %v", got, ok)
	}
	if _, ok := Payload[SessionPayload](e); ok {
		t.Error("wrong payload type reported ok")
	}
	if _, ok := Payload[StatsUpdatedPayload](Event{Type: TypeStatsUpdated}); ok {
		t.Error("nil payload reported ok")
	}
}
