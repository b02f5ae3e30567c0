package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// EventLog is the append-only, timestamp-ordered record of everything that
// happened in a game. Deletes are tombstones; nothing is ever physically
// removed, which is what makes undo and the audit trail possible.
//
// EventLog is not safe for concurrent use. The tracker is the single writer
// and serializes access.
type EventLog struct {
	events  []*GameEvent
	deleted []string // ids of tombstoned events, oldest first
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append inserts the event, assigning an id and timestamp if absent, and
// returns the event id. Insertion order is preserved; Append never touches
// the network.
func (l *EventLog) Append(e *GameEvent) string {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.events = append(l.events, e)
	return e.ID
}

// Delete tombstones the event with the given id and returns the event as it
// was recorded, for undo capture. The event stays in the log.
func (l *EventLog) Delete(id string) (*GameEvent, error) {
	for _, e := range l.events {
		if e.ID != id {
			continue
		}
		if e.Deleted {
			return nil, fmt.Errorf("event %s already deleted", id)
		}
		e.Deleted = true
		l.deleted = append(l.deleted, id)
		return e, nil
	}
	return nil, fmt.Errorf("event %s not found", id)
}

// RestoreLast un-tombstones the most recently deleted event. The restored
// event gets a fresh id so it cannot collide with anything created in the
// interim.
func (l *EventLog) RestoreLast() (*GameEvent, error) {
	if len(l.deleted) == 0 {
		return nil, fmt.Errorf("no deleted events to restore")
	}
	id := l.deleted[len(l.deleted)-1]
	l.deleted = l.deleted[:len(l.deleted)-1]
	for _, e := range l.events {
		if e.ID == id && e.Deleted {
			e.Deleted = false
			e.ID = uuid.NewString()
			return e, nil
		}
	}
	return nil, fmt.Errorf("deleted event %s not found", id)
}

// Replay replaces the entire log, used on resume-hydration from the remote
// store. The caller is expected to run one full aggregation pass afterward.
func (l *EventLog) Replay(events []*GameEvent) {
	l.events = make([]*GameEvent, len(events))
	copy(l.events, events)
	l.deleted = nil
	for _, e := range l.events {
		if e.Deleted {
			l.deleted = append(l.deleted, e.ID)
		}
	}
}

// Len returns the total number of events including tombstones.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Get returns the event with the given id, tombstoned or not.
func (l *EventLog) Get(id string) (*GameEvent, bool) {
	for _, e := range l.events {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Chronological returns non-deleted events oldest first. This is the
// aggregation traversal order; possession-window logic depends on it.
func (l *EventLog) Chronological() []*GameEvent {
	out := make([]*GameEvent, 0, len(l.events))
	for _, e := range l.events {
		if !e.Deleted {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Display returns non-deleted events newest first, the order the operator
// sees. Not for aggregation.
func (l *EventLog) Display() []*GameEvent {
	out := l.Chronological()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// All returns every event including tombstones, in insertion order. Used for
// audit export and snapshot persistence.
func (l *EventLog) All() []*GameEvent {
	out := make([]*GameEvent, len(l.events))
	copy(out, l.events)
	return out
}
