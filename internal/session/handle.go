package session

// Handle is the opaque session identity threaded through the lifecycle API.
// It ties together the session key used for store lookups, the calendar
// event the game belongs to, and (once aggregation has persisted a game
// record) the game id. Passing one value instead of loose strings removes
// any "is this a key or an id" ambiguity at call sites.
type Handle struct {
	key     string
	eventID string
	gameID  string
}

// NewHandle builds a handle for a freshly created session.
func NewHandle(key, eventID string) *Handle {
	return &Handle{key: key, eventID: eventID}
}

// Key returns the session store key.
func (h *Handle) Key() string { return h.key }

// EventID returns the calendar event id the session belongs to.
func (h *Handle) EventID() string { return h.eventID }

// GameID returns the persisted game record id, or "" before the first
// checkpoint aggregation.
func (h *Handle) GameID() string { return h.gameID }

// Aggregated reports whether a game record has been persisted.
func (h *Handle) Aggregated() bool { return h.gameID != "" }

func (h *Handle) setGameID(id string) { h.gameID = id }
