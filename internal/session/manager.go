package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/stats"
)

// State is the lifecycle state of the managed session.
type State int

const (
	// StateUninitialized means no session has been started or resumed.
	StateUninitialized State = iota
	// StateActive means the session is live and recording.
	StateActive
	// StateEnded means the session was ended; it stays readable but will not
	// record or aggregate without explicit reactivation.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// Manager owns the session lifecycle: start-new, resume-existing,
// checkpoint-aggregate, end-and-aggregate, discard. Aggregation through the
// manager is idempotent: the first checkpoint creates the game record, every
// later one updates it in place.
type Manager struct {
	sessions Store
	games    GameStore

	// NotifyConflict, when set, is called after a checkpoint finds a
	// pre-existing game record and overwrites it with local aggregation.
	NotifyConflict func(eventID, gameID string)

	mu           sync.Mutex
	state        State
	handle       *Handle
	opponentName string
}

// NewManager creates a lifecycle manager over the given stores.
func NewManager(sessions Store, games GameStore) *Manager {
	return &Manager{sessions: sessions, games: games}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle returns the current session handle, or nil before start/resume.
func (m *Manager) Handle() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// StartNew creates a fresh session for the event. It fails with
// ErrSessionCreation when the store is unreachable; a session cannot start
// purely offline.
func (m *Manager) StartNew(ctx context.Context, eventID, opponentName string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.sessions.CreateSession(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}
	m.handle = NewHandle(key, eventID)
	m.opponentName = opponentName
	m.state = StateActive
	return m.handle, nil
}

// Resume looks up the most recent session for the event and returns its
// persisted state for hydration. If the session was already aggregated into
// a game record, the handle carries the game id so later checkpoints update
// instead of inserting. Resuming an ended session succeeds for read/export
// but leaves the manager in StateEnded; call Reactivate to record again.
func (m *Manager) Resume(ctx context.Context, eventID, opponentName string) (*Handle, *Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, active, ok, err := m.sessions.FindSession(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("find session: %w", err)
	}
	if !ok {
		return nil, nil, ErrNoSession
	}
	data, err := m.sessions.FetchSession(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch session %s: %w", key, err)
	}

	m.handle = NewHandle(key, eventID)
	m.opponentName = opponentName
	if gameID, found, err := m.games.FindGameRecord(ctx, eventID); err == nil && found {
		m.handle.setGameID(gameID)
	}
	if active {
		m.state = StateActive
	} else {
		m.state = StateEnded
	}
	return m.handle, data, nil
}

// Reactivate explicitly resurrects an ended session for further recording.
func (m *Manager) Reactivate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return ErrNotStarted
	}
	if err := m.sessions.SetActive(ctx, m.handle.Key(), true); err != nil {
		return fmt.Errorf("reactivate session: %w", err)
	}
	m.state = StateActive
	return nil
}

// Checkpoint persists the aggregated box score as a game record without
// ending the session. The first call creates the record; subsequent calls
// update it. Safe to call arbitrarily many times.
func (m *Manager) Checkpoint(ctx context.Context, box *stats.BoxScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpointLocked(ctx, box)
}

// End persists a final aggregation and transitions the session to Ended.
func (m *Manager) End(ctx context.Context, box *stats.BoxScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkpointLocked(ctx, box); err != nil {
		return err
	}
	if err := m.sessions.SetActive(ctx, m.handle.Key(), false); err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	m.state = StateEnded
	return nil
}

// Discard deletes all session data for the event without aggregating.
func (m *Manager) Discard(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.sessions.Discard(ctx, eventID); err != nil {
		return fmt.Errorf("discard session: %w", err)
	}
	if m.handle != nil && m.handle.EventID() == eventID {
		m.handle = nil
		m.state = StateUninitialized
	}
	return nil
}

// UpdateSessionState mirrors the running game state and lineups into the
// session store.
func (m *Manager) UpdateSessionState(ctx context.Context, gs *game.GameState, lineups []*game.Lineup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return ErrNotStarted
	}
	return m.sessions.UpdateSession(ctx, m.handle.Key(), &Data{GameState: gs, Lineups: lineups})
}

func (m *Manager) checkpointLocked(ctx context.Context, box *stats.BoxScore) error {
	if m.handle == nil {
		return ErrNotStarted
	}
	if m.state == StateEnded {
		return ErrSessionEnded
	}

	gameID := m.handle.GameID()
	if gameID == "" {
		// Another aggregation may already have produced a record (resume of
		// a checkpointed session). Local aggregation is authoritative:
		// last writer wins, no merge.
		existing, found, err := m.games.FindGameRecord(ctx, m.handle.EventID())
		if err != nil {
			return fmt.Errorf("find game record: %w", err)
		}
		if found {
			log.Printf("session %s: game record %s already exists for event %s; overwriting with local aggregation",
				m.handle.Key(), existing, m.handle.EventID())
			if m.NotifyConflict != nil {
				m.NotifyConflict(m.handle.EventID(), existing)
			}
			gameID = existing
		} else {
			gameID, err = m.games.CreateGameRecord(ctx, m.handle.EventID(), m.opponentName)
			if err != nil {
				return fmt.Errorf("create game record: %w", err)
			}
		}
		m.handle.setGameID(gameID)
	}

	lines := make(map[string]*game.StatLine, len(box.Players))
	for id, p := range box.Players {
		lines[id] = &p.StatLine
	}

	result := "tie"
	switch {
	case box.Team.Points > box.Opponent.Points:
		result = "win"
	case box.Team.Points < box.Opponent.Points:
		result = "loss"
	}
	if err := m.games.SaveCheckpoint(ctx, gameID, lines, box.Team.Points, box.Opponent.Points, result); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
