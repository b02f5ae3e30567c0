// Package repository provides sqlite-backed implementations of the store
// contracts the session lifecycle consumes.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/session"
	"github.com/courtside/tracker/internal/storage"
)

// SessionRepository implements session.Store on sqlite. It serves two roles:
// the authoritative store when the tracker runs self-hosted, and the local
// mirror/test double when the remote HTTP store is authoritative.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db *storage.DB) *SessionRepository {
	return &SessionRepository{db: db.Conn()}
}

// CreateSession creates a session row for the event and returns its key.
func (r *SessionRepository) CreateSession(ctx context.Context, eventID string) (string, error) {
	key := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_key, event_id, is_active) VALUES (?, ?, 1)`,
		key, eventID,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return key, nil
}

// FindSession returns the most recent session for the event.
func (r *SessionRepository) FindSession(ctx context.Context, eventID string) (string, bool, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT session_key, is_active FROM sessions WHERE event_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		eventID,
	)
	var key string
	var active bool
	if err := row.Scan(&key, &active); err != nil {
		if err == sql.ErrNoRows {
			return "", false, false, nil
		}
		return "", false, false, fmt.Errorf("query session: %w", err)
	}
	return key, active, true, nil
}

// FetchSession loads the session's full persisted state.
func (r *SessionRepository) FetchSession(ctx context.Context, key string) (*session.Data, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT game_state, lineups FROM sessions WHERE session_key = ?`, key)
	var gameState, lineups []byte
	if err := row.Scan(&gameState, &lineups); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s: %w", key, session.ErrNoSession)
		}
		return nil, fmt.Errorf("query session %s: %w", key, err)
	}

	data := &session.Data{}
	if len(gameState) > 0 {
		data.GameState = &game.GameState{}
		if err := json.Unmarshal(gameState, data.GameState); err != nil {
			return nil, fmt.Errorf("decode game state: %w", err)
		}
	}
	if len(lineups) > 0 {
		if err := json.Unmarshal(lineups, &data.Lineups); err != nil {
			return nil, fmt.Errorf("decode lineups: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, quarter, game_time_offset, actor_side,
		       actor_player_id, actor_jersey, event_type, value, metadata, is_deleted
		FROM session_events WHERE session_key = ? ORDER BY seq`, key)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		e := &game.GameEvent{}
		var playerID, jersey sql.NullString
		var side string
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Quarter, &e.GameTimeOffset,
			&side, &playerID, &jersey, &e.Type, &e.Value, &metadata, &e.Deleted); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		e.Actor = game.Actor{Side: game.Side(side), PlayerID: playerID.String, Jersey: jersey.String}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode event metadata: %w", err)
			}
		}
		data.Events = append(data.Events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}
	return data, nil
}

// AppendEvent mirrors one event into the session's log. Re-appending an id
// that already exists is an idempotent no-op; the sync layer retries
// deliveries and must never double count.
func (r *SessionRepository) AppendEvent(ctx context.Context, key string, e *game.GameEvent) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode event metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO session_events
			(id, session_key, seq, timestamp, quarter, game_time_offset,
			 actor_side, actor_player_id, actor_jersey, event_type, value, metadata, is_deleted)
		VALUES (?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM session_events WHERE session_key = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, key, key, e.Timestamp, e.Quarter, e.GameTimeOffset,
		string(e.Actor.Side), nullable(e.Actor.PlayerID), nullable(e.Actor.Jersey),
		string(e.Type), e.Value, metadata, e.Deleted,
	)
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// UpdateSession replaces the session's mirrored game state and lineups.
func (r *SessionRepository) UpdateSession(ctx context.Context, key string, data *session.Data) error {
	var gameState, lineups []byte
	var err error
	if data.GameState != nil {
		if gameState, err = json.Marshal(data.GameState); err != nil {
			return fmt.Errorf("encode game state: %w", err)
		}
	}
	if data.Lineups != nil {
		if lineups, err = json.Marshal(data.Lineups); err != nil {
			return fmt.Errorf("encode lineups: %w", err)
		}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET game_state = ?, lineups = ?, updated_at = CURRENT_TIMESTAMP
		WHERE session_key = ?`, gameState, lineups, key)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireRow(res, key)
}

// SetActive flips the session's active flag.
func (r *SessionRepository) SetActive(ctx context.Context, key string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE session_key = ?`, active, key)
	if err != nil {
		return fmt.Errorf("set session active: %w", err)
	}
	return requireRow(res, key)
}

// Discard deletes all session rows for the event; session_events cascade.
func (r *SessionRepository) Discard(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("discard sessions: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", key, session.ErrNoSession)
	}
	return nil
}
