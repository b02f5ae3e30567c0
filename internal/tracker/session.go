package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/courtside/tracker/internal/events"
	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/session"
	"github.com/courtside/tracker/internal/stats"
)

// snapshot is the locally cached session state used for crash recovery when
// the remote store is unreachable on resume.
type snapshot struct {
	Events          []*game.GameEvent `json:"events"`
	GameState       game.GameState    `json:"gameState"`
	Lineups         []*game.Lineup    `json:"lineups,omitempty"`
	StartingFive    []string          `json:"startingFive,omitempty"`
	OppStartingFive []string          `json:"opponentStartingFive,omitempty"`
	OnCourt         []string          `json:"onCourt,omitempty"`
	SavedAt         time.Time         `json:"savedAt"`
}

// StartSession creates a fresh session for the calendar event.
func (t *Tracker) StartSession(ctx context.Context, eventID, opponentName string) error {
	if t.manager == nil {
		return errors.New("no session manager configured")
	}
	h, err := t.manager.StartNew(ctx, eventID, opponentName)
	if err != nil {
		return err
	}
	t.emit(events.Event{Type: events.TypeSessionStarted, Payload: events.SessionPayload{
		SessionKey: h.Key(),
		EventID:    eventID,
	}})
	return nil
}

// ResumeSession rebuilds tracker state from the remote session store,
// falling back to the local snapshot cache when the remote is unreachable.
// Hydration replays the fetched log wholesale, re-applies tombstones from
// deletion-audit records, rebuilds possession windows chronologically and
// refolds once.
func (t *Tracker) ResumeSession(ctx context.Context, eventID, opponentName string) error {
	if t.manager == nil {
		return errors.New("no session manager configured")
	}

	h, data, err := t.manager.Resume(ctx, eventID, opponentName)
	if err == nil {
		t.hydrate(data)
		t.emit(events.Event{Type: events.TypeSessionResumed, Payload: events.SessionPayload{
			SessionKey: h.Key(),
			EventID:    eventID,
			Resumed:    true,
		}})
		return nil
	}
	if errors.Is(err, session.ErrNoSession) {
		return err
	}

	// Remote unreachable; try the local snapshot.
	if t.cache == nil {
		return err
	}
	raw, cacheErr := t.cache.LoadSnapshot(ctx, eventID)
	if cacheErr != nil || raw == nil {
		return fmt.Errorf("resume failed and no local snapshot: %w", err)
	}
	var snap snapshot
	if jsonErr := json.Unmarshal(raw, &snap); jsonErr != nil {
		return fmt.Errorf("corrupt local snapshot: %w", jsonErr)
	}
	log.Printf("[session] remote resume failed (%v), restoring local snapshot from %s", err, snap.SavedAt.Format(time.RFC3339))
	t.hydrateSnapshot(&snap)
	t.emit(events.Event{Type: events.TypeSessionResumed, Payload: events.SessionPayload{
		EventID: eventID,
		Resumed: true,
	}})
	return nil
}

func (t *Tracker) hydrate(data *session.Data) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.Replay(data.Events)
	t.applyTombstonesLocked()

	if data.GameState != nil {
		t.gameState = *data.GameState
		t.gameState.Playing = false
	}
	t.lineups = data.Lineups
	t.rebuildCourtLocked()
	t.rebuildPossessionLocked()
	t.history.Clear()
	t.reaggregateLocked()
}

func (t *Tracker) hydrateSnapshot(snap *snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.Replay(snap.Events)
	t.applyTombstonesLocked()

	t.gameState = snap.GameState
	t.gameState.Playing = false
	t.lineups = snap.Lineups

	t.startingFive = make(map[string]bool, len(snap.StartingFive))
	for _, id := range snap.StartingFive {
		t.startingFive[id] = true
		if p, ok := t.rosterByID[id]; ok {
			p.Starter = true
		}
	}
	t.fiveLocked = len(snap.StartingFive) == game.RosterSize
	t.oppStartingFive = make(map[string]bool, len(snap.OppStartingFive))
	for _, j := range snap.OppStartingFive {
		t.oppStartingFive[j] = true
	}
	t.onCourt = make(map[string]bool, len(snap.OnCourt))
	for _, id := range snap.OnCourt {
		t.onCourt[id] = true
	}

	t.rebuildPossessionLocked()
	t.history.Clear()
	t.reaggregateLocked()
}

// applyTombstonesLocked re-applies deletions announced by audit records, for
// logs hydrated from stores that only ever saw appends.
func (t *Tracker) applyTombstonesLocked() {
	for _, e := range t.log.All() {
		if e.Type != game.EventDeleted || e.TargetID == "" {
			continue
		}
		if target, ok := t.log.Get(e.TargetID); ok && !target.Deleted {
			if _, err := t.log.Delete(target.ID); err != nil {
				log.Printf("[session] tombstone replay for %s: %v", target.ID, err)
			}
		}
	}
}

// rebuildCourtLocked re-derives on-court and starting-five state from the
// hydrated substitution history and lineups.
func (t *Tracker) rebuildCourtLocked() {
	t.onCourt = make(map[string]bool)
	t.startingFive = make(map[string]bool)

	if len(t.lineups) > 0 {
		for _, id := range t.lineups[0].PlayerIDs {
			t.startingFive[id] = true
			if p, ok := t.rosterByID[id]; ok {
				p.Starter = true
			}
		}
		t.fiveLocked = len(t.startingFive) == game.RosterSize
		for _, id := range t.lineups[len(t.lineups)-1].PlayerIDs {
			t.onCourt[id] = true
		}
	}
	for _, e := range t.log.Chronological() {
		switch e.Type {
		case game.EventSubIn:
			t.onCourt[e.Actor.PlayerID] = true
		case game.EventSubOut:
			delete(t.onCourt, e.Actor.PlayerID)
		}
	}
}

// rebuildPossessionLocked replays the hydrated log through a fresh
// possession tracker so mid-game resume keeps open windows live. The replay
// is read-only: tags recorded live stay exactly as recorded.
func (t *Tracker) rebuildPossessionLocked() {
	t.possession = stats.NewPossessionTracker()
	for _, e := range t.log.Chronological() {
		t.possession.Replay(e)
	}
}

// Checkpoint persists the current aggregation as a durable game record and
// refreshes the local snapshot.
func (t *Tracker) Checkpoint(ctx context.Context) error {
	if t.manager == nil {
		return errors.New("no session manager configured")
	}

	t.mu.Lock()
	box := t.box
	gs := t.gameState
	lineups := make([]*game.Lineup, len(t.lineups))
	copy(lineups, t.lineups)
	t.mu.Unlock()

	if err := t.manager.Checkpoint(ctx, box); err != nil {
		return err
	}
	if err := t.manager.UpdateSessionState(ctx, &gs, lineups); err != nil {
		log.Printf("[session] checkpoint state update: %v", err)
	}
	return t.SaveSnapshot(ctx)
}

// EndSession runs a final checkpoint, deactivates the session and marks the
// game ended. Later events are rejected until the session is discarded or a
// new one starts.
func (t *Tracker) EndSession(ctx context.Context) error {
	if t.manager == nil {
		return errors.New("no session manager configured")
	}

	t.mu.Lock()
	t.closeLineupLocked()
	t.gameState.Playing = false
	t.gameState.Ended = true
	box := t.box
	t.mu.Unlock()

	if err := t.manager.End(ctx, box); err != nil {
		return err
	}
	h := t.manager.Handle()
	payload := events.SessionPayload{}
	if h != nil {
		payload.SessionKey = h.Key()
		payload.EventID = h.EventID()
	}
	t.emit(events.Event{Type: events.TypeSessionEnded, Payload: payload})
	return t.SaveSnapshot(ctx)
}

// DiscardSession irreversibly deletes the session, its events and the local
// snapshot. The tracker returns to its pre-game state.
func (t *Tracker) DiscardSession(ctx context.Context, eventID string) error {
	if t.manager == nil {
		return errors.New("no session manager configured")
	}
	if err := t.manager.Discard(ctx, eventID); err != nil {
		return err
	}
	if t.cache != nil {
		if err := t.cache.ClearSnapshot(ctx, eventID); err != nil {
			log.Printf("[session] clearing snapshot for %s: %v", eventID, err)
		}
	}

	t.mu.Lock()
	t.log.Replay(nil)
	t.lineups = nil
	t.onCourt = make(map[string]bool)
	t.startingFive = make(map[string]bool)
	t.fiveLocked = false
	t.possession.Reset()
	t.history.Clear()
	t.gameState = game.GameState{
		Quarter:          1,
		HomeTimeouts:     t.cfg.Tracker.TimeoutsPerTeam,
		OpponentTimeouts: t.cfg.Tracker.TimeoutsPerTeam,
	}
	for _, p := range t.roster {
		p.Starter = false
	}
	t.reaggregateLocked()
	t.mu.Unlock()
	return nil
}

// SaveSnapshot writes the full tracker state to the local snapshot cache.
func (t *Tracker) SaveSnapshot(ctx context.Context) error {
	if t.cache == nil || t.manager == nil {
		return nil
	}
	h := t.manager.Handle()
	if h == nil {
		return nil
	}

	t.mu.Lock()
	snap := snapshot{
		Events:    t.log.All(),
		GameState: t.gameState,
		Lineups:   t.lineups,
		SavedAt:   time.Now(),
	}
	for id := range t.startingFive {
		snap.StartingFive = append(snap.StartingFive, id)
	}
	for j := range t.oppStartingFive {
		snap.OppStartingFive = append(snap.OppStartingFive, j)
	}
	for id := range t.onCourt {
		snap.OnCourt = append(snap.OnCourt, id)
	}
	t.mu.Unlock()

	raw, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return t.cache.SaveSnapshot(ctx, h.EventID(), raw)
}
