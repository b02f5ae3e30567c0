package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courtside/tracker/internal/storage"
)

// SnapshotRepository implements session.SnapshotCache on sqlite. With an
// encryption config set, payloads are sealed with AES-256-GCM before they
// touch disk.
type SnapshotRepository struct {
	db  *sql.DB
	enc *storage.EncryptionConfig // nil disables encryption
}

// NewSnapshotRepository creates a snapshot repository. Pass a nil enc to
// store payloads in the clear.
func NewSnapshotRepository(db *storage.DB, enc *storage.EncryptionConfig) *SnapshotRepository {
	return &SnapshotRepository{db: db.Conn(), enc: enc}
}

// SaveSnapshot stores (or replaces) the snapshot for the event.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, eventID string, snapshot []byte) error {
	encrypted := false
	payload := snapshot
	if r.enc != nil {
		sealed, err := storage.EncryptData(snapshot, r.enc)
		if err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
		payload = sealed
		encrypted = true
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (event_id, payload, encrypted, saved_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (event_id) DO UPDATE SET
			payload = excluded.payload,
			encrypted = excluded.encrypted,
			saved_at = excluded.saved_at`,
		eventID, payload, encrypted)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot payload, or nil if none exists.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, eventID string) ([]byte, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT payload, encrypted FROM snapshots WHERE event_id = ?`, eventID)
	var payload []byte
	var encrypted bool
	if err := row.Scan(&payload, &encrypted); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if encrypted {
		if r.enc == nil {
			return nil, fmt.Errorf("snapshot for event %s is encrypted and no passphrase is configured", eventID)
		}
		plain, err := storage.DecryptData(payload, r.enc)
		if err != nil {
			return nil, fmt.Errorf("decrypt snapshot: %w", err)
		}
		return plain, nil
	}
	return payload, nil
}

// ClearSnapshot removes the snapshot for the event.
func (r *SnapshotRepository) ClearSnapshot(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
