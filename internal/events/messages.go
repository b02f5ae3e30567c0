package events

// Typed payloads carried by dispatched events. Observers retrieve them with
// Payload[T].

// StatsUpdatedPayload accompanies stats:updated after every aggregation.
type StatsUpdatedPayload struct {
	HomeScore     int `json:"homeScore"`
	OpponentScore int `json:"opponentScore"`
	EventCount    int `json:"eventCount"`
}

// EventRecordedPayload accompanies event:recorded.
type EventRecordedPayload struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	Actor     string `json:"actor"`
}

// EventDeletedPayload accompanies event:deleted.
type EventDeletedPayload struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
}

// WorkflowPromptPayload accompanies workflow:prompt when a disambiguation
// step is awaiting operator input.
type WorkflowPromptPayload struct {
	Step    string `json:"step"`    // e.g. "rebounder", "assist", "foul_type"
	EventID string `json:"eventId"` // the primitive event being qualified
}

// SyncPendingPayload accompanies sync:pending while mirrored events are
// queued waiting for the remote store.
type SyncPendingPayload struct {
	Queued int `json:"queued"`
}

// SyncFlushedPayload accompanies sync:flushed when the outbox drains.
type SyncFlushedPayload struct {
	Delivered int `json:"delivered"`
}

// SessionPayload accompanies session:started, session:resumed and
// session:ended.
type SessionPayload struct {
	SessionKey string `json:"sessionKey"`
	EventID    string `json:"eventId"`
	Resumed    bool   `json:"resumed,omitempty"`
}

// ConflictPayload accompanies aggregation:conflict when a checkpoint found a
// pre-existing game record and overwrote it (last writer wins).
type ConflictPayload struct {
	EventID string `json:"eventId"`
	GameID  string `json:"gameId"`
}
