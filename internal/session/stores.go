// Package session owns session identity and the start / resume / checkpoint
// / end lifecycle. It talks to the remote session store and the persisted
// game store through narrow interfaces so the tracker can run against the
// HTTP-backed store, the local sqlite mirror, or test doubles.
package session

import (
	"context"

	"github.com/courtside/tracker/internal/game"
)

// Data is the full state persisted for one live session.
type Data struct {
	Events    []*game.GameEvent `json:"events"`
	GameState *game.GameState   `json:"gameState,omitempty"`
	Lineups   []*game.Lineup    `json:"lineups,omitempty"`
}

// Store is the session store contract: an append-only event record per
// session plus session lifecycle flags. Implementations must treat a
// duplicate event-id append as an idempotent success, never a double insert,
// because the sync layer retries mirrors.
type Store interface {
	// CreateSession creates a session for a calendar event and returns its
	// opaque key.
	CreateSession(ctx context.Context, eventID string) (string, error)

	// FindSession returns the key and active flag of the most recent session
	// for the event, or ok=false if none exists.
	FindSession(ctx context.Context, eventID string) (key string, active bool, ok bool, err error)

	// FetchSession returns the full persisted state for a session.
	FetchSession(ctx context.Context, key string) (*Data, error)

	// AppendEvent mirrors one event into the session's log.
	AppendEvent(ctx context.Context, key string, e *game.GameEvent) error

	// UpdateSession replaces the session's game state and lineups.
	UpdateSession(ctx context.Context, key string, data *Data) error

	// SetActive flips the session's active flag.
	SetActive(ctx context.Context, key string, active bool) error

	// Discard deletes all session data for an event. Irreversible.
	Discard(ctx context.Context, eventID string) error
}

// GameStore persists aggregated results as durable game records.
type GameStore interface {
	// FindGameRecord returns the game id already persisted for the event,
	// or ok=false if aggregation has never run.
	FindGameRecord(ctx context.Context, eventID string) (gameID string, ok bool, err error)

	// CreateGameRecord creates the game row and returns its id.
	CreateGameRecord(ctx context.Context, eventID, opponentName string) (string, error)

	// SaveCheckpoint atomically writes every player line plus the score and
	// result for the game, overwriting any previous checkpoint.
	SaveCheckpoint(ctx context.Context, gameID string, lines map[string]*game.StatLine, homeScore, awayScore int, result string) error
}

// SnapshotCache is the local durable cache used for crash recovery when the
// remote store is unreachable.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, eventID string, snapshot []byte) error
	// LoadSnapshot returns nil with no error when no snapshot exists.
	LoadSnapshot(ctx context.Context, eventID string) ([]byte, error)
	ClearSnapshot(ctx context.Context, eventID string) error
}
