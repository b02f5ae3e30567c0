package game

import (
	"testing"
	"time"
)

func TestAppendAssignsIdentityAndTimestamp(t *testing.T) {
	l := NewEventLog()
	e := &GameEvent{Actor: HomePlayer("p1"), Type: EventFGMade, Value: 2}

	id := l.Append(e)

	if id == "" {
		t.Fatal("Append returned empty id")
	}
	if e.ID != id {
		t.Errorf("event id = %q, want %q", e.ID, id)
	}
	if e.Timestamp.IsZero() {
		t.Error("Append did not assign a timestamp")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestAppendKeepsExistingIdentity(t *testing.T) {
	l := NewEventLog()
	ts := time.Date(2026, 1, 17, 19, 30, 0, 0, time.UTC)
	e := &GameEvent{ID: "fixed-id", Timestamp: ts, Actor: HomePlayer("p1"), Type: EventSteal}

	id := l.Append(e)

	if id != "fixed-id" {
		t.Errorf("id = %q, want fixed-id", id)
	}
	if !e.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, ts)
	}
}

func TestDeleteTombstones(t *testing.T) {
	l := NewEventLog()
	id := l.Append(&GameEvent{Actor: HomePlayer("p1"), Type: EventFGMade, Value: 2})

	prev, err := l.Delete(id)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !prev.Deleted {
		t.Error("deleted event is not tombstoned")
	}

	// Still present in the log, excluded from the chronological view.
	if got, ok := l.Get(id); !ok || !got.Deleted {
		t.Error("tombstoned event missing from log")
	}
	if len(l.Chronological()) != 0 {
		t.Errorf("Chronological() includes tombstoned event")
	}

	if _, err := l.Delete(id); err == nil {
		t.Error("deleting a tombstoned event should fail")
	}
	if _, err := l.Delete("no-such-id"); err == nil {
		t.Error("deleting an unknown id should fail")
	}
}

func TestRestoreLastUsesFreshIdentity(t *testing.T) {
	l := NewEventLog()
	first := l.Append(&GameEvent{Actor: HomePlayer("p1"), Type: EventFGMade, Value: 2})
	second := l.Append(&GameEvent{Actor: HomePlayer("p2"), Type: EventThreeMade, Value: 3})

	if _, err := l.Delete(first); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := l.Delete(second); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Restores run most-recently-deleted first.
	restored, err := l.RestoreLast()
	if err != nil {
		t.Fatalf("RestoreLast: %v", err)
	}
	if restored.Type != EventThreeMade {
		t.Errorf("restored type = %s, want %s", restored.Type, EventThreeMade)
	}
	if restored.ID == second {
		t.Error("restore must mint a fresh id")
	}
	if restored.Deleted {
		t.Error("restored event is still tombstoned")
	}

	if _, err := l.RestoreLast(); err != nil {
		t.Fatalf("second RestoreLast: %v", err)
	}
	if _, err := l.RestoreLast(); err == nil {
		t.Error("RestoreLast with nothing deleted should fail")
	}
}

func TestChronologicalSortsByTimestamp(t *testing.T) {
	l := NewEventLog()
	base := time.Date(2026, 1, 17, 19, 0, 0, 0, time.UTC)

	// Appended out of order; the timestamp is the authoritative ordering key.
	l.Append(&GameEvent{ID: "b", Timestamp: base.Add(2 * time.Second), Type: EventRebound, Actor: HomePlayer("p2")})
	l.Append(&GameEvent{ID: "a", Timestamp: base, Type: EventFGMissed, Actor: HomePlayer("p1")})
	l.Append(&GameEvent{ID: "c", Timestamp: base.Add(5 * time.Second), Type: EventFGMade, Actor: HomePlayer("p2"), Value: 2})

	got := l.Chronological()
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("Chronological()[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	display := l.Display()
	if display[0].ID != "c" || display[2].ID != "a" {
		t.Error("Display() is not newest-first")
	}
}

func TestReplayReplacesWholesale(t *testing.T) {
	l := NewEventLog()
	l.Append(&GameEvent{Actor: HomePlayer("old"), Type: EventSteal})

	replacement := []*GameEvent{
		{ID: "r1", Timestamp: time.Now(), Actor: HomePlayer("p1"), Type: EventFGMade, Value: 2},
		{ID: "r2", Timestamp: time.Now(), Actor: HomePlayer("p2"), Type: EventAssist, Deleted: true},
	}
	l.Replay(replacement)

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	if len(l.Chronological()) != 1 {
		t.Error("replayed tombstone leaked into the chronological view")
	}
	// The tombstone must be restorable after hydration.
	if _, err := l.RestoreLast(); err != nil {
		t.Errorf("RestoreLast after replay: %v", err)
	}
}
