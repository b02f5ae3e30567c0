package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/stats"
)

// fakeStore is an in-memory session store.
type fakeStore struct {
	createErr error
	sessions  map[string]*fakeSession // key -> session
	byEvent   map[string]string       // eventID -> key
	nextKey   int
}

type fakeSession struct {
	eventID string
	active  bool
	data    Data
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*fakeSession),
		byEvent:  make(map[string]string),
	}
}

func (s *fakeStore) CreateSession(_ context.Context, eventID string) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextKey++
	key := fmt.Sprintf("sess-%d", s.nextKey)
	s.sessions[key] = &fakeSession{eventID: eventID, active: true}
	s.byEvent[eventID] = key
	return key, nil
}

func (s *fakeStore) FindSession(_ context.Context, eventID string) (string, bool, bool, error) {
	key, ok := s.byEvent[eventID]
	if !ok {
		return "", false, false, nil
	}
	return key, s.sessions[key].active, true, nil
}

func (s *fakeStore) FetchSession(_ context.Context, key string) (*Data, error) {
	sess, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("session %s not found", key)
	}
	data := sess.data
	return &data, nil
}

func (s *fakeStore) AppendEvent(_ context.Context, key string, e *game.GameEvent) error {
	sess, ok := s.sessions[key]
	if !ok {
		return fmt.Errorf("session %s not found", key)
	}
	for _, existing := range sess.data.Events {
		if existing.ID == e.ID {
			return nil // duplicate append is an idempotent success
		}
	}
	sess.data.Events = append(sess.data.Events, e)
	return nil
}

func (s *fakeStore) UpdateSession(_ context.Context, key string, data *Data) error {
	sess, ok := s.sessions[key]
	if !ok {
		return fmt.Errorf("session %s not found", key)
	}
	sess.data.GameState = data.GameState
	sess.data.Lineups = data.Lineups
	return nil
}

func (s *fakeStore) SetActive(_ context.Context, key string, active bool) error {
	sess, ok := s.sessions[key]
	if !ok {
		return fmt.Errorf("session %s not found", key)
	}
	sess.active = active
	return nil
}

func (s *fakeStore) Discard(_ context.Context, eventID string) error {
	key, ok := s.byEvent[eventID]
	if !ok {
		return nil
	}
	delete(s.byEvent, eventID)
	delete(s.sessions, key)
	return nil
}

// fakeGameStore records aggregation calls.
type fakeGameStore struct {
	games       map[string]string // eventID -> gameID
	creates     int
	checkpoints int
	scores      []string
	nextGame    int
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: make(map[string]string)}
}

func (g *fakeGameStore) FindGameRecord(_ context.Context, eventID string) (string, bool, error) {
	id, ok := g.games[eventID]
	return id, ok, nil
}

func (g *fakeGameStore) CreateGameRecord(_ context.Context, eventID, _ string) (string, error) {
	g.creates++
	g.nextGame++
	id := fmt.Sprintf("game-%d", g.nextGame)
	g.games[eventID] = id
	return id, nil
}

func (g *fakeGameStore) SaveCheckpoint(_ context.Context, _ string, _ map[string]*game.StatLine, _, _ int, result string) error {
	g.checkpoints++
	g.scores = append(g.scores, result)
	return nil
}

func testBox(homePoints, oppPoints int) *stats.BoxScore {
	return &stats.BoxScore{
		Players: map[string]*game.Player{
			"p1": {ID: "p1", StatLine: game.StatLine{Points: homePoints}},
		},
		Opponents:   map[string]*game.OpponentSlot{},
		Team:        stats.TeamStats{StatLine: game.StatLine{Points: homePoints}},
		Opponent:    stats.TeamStats{StatLine: game.StatLine{Points: oppPoints}},
		CurrentHalf: 2,
	}
}

func TestStartNew(t *testing.T) {
	m := NewManager(newFakeStore(), newFakeGameStore())

	h, err := m.StartNew(context.Background(), "ev-1", "Central")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if h.Key() == "" || h.EventID() != "ev-1" {
		t.Errorf("handle = %q/%q, want key and ev-1", h.Key(), h.EventID())
	}
	if m.State() != StateActive {
		t.Errorf("state = %s, want active", m.State())
	}
}

func TestStartNewFailsOffline(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("connection refused")
	m := NewManager(store, newFakeGameStore())

	_, err := m.StartNew(context.Background(), "ev-1", "Central")
	if !errors.Is(err, ErrSessionCreation) {
		t.Errorf("error = %v, want ErrSessionCreation", err)
	}
	if m.State() != StateUninitialized {
		t.Error("failed start must not change state")
	}
}

func TestResumeUnknownEvent(t *testing.T) {
	m := NewManager(newFakeStore(), newFakeGameStore())

	_, _, err := m.Resume(context.Background(), "no-such-event", "Central")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("error = %v, want ErrNoSession", err)
	}
}

func TestResumeReturnsPersistedState(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	key, _ := store.CreateSession(ctx, "ev-1")
	_ = store.AppendEvent(ctx, key, &game.GameEvent{ID: "e1", Type: game.EventFGMade, Value: 2})

	m := NewManager(store, newFakeGameStore())
	h, data, err := m.Resume(ctx, "ev-1", "Central")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if h.Key() != key {
		t.Errorf("resumed key = %q, want %q", h.Key(), key)
	}
	if len(data.Events) != 1 || data.Events[0].ID != "e1" {
		t.Error("persisted events not returned for hydration")
	}
	if m.State() != StateActive {
		t.Errorf("state = %s, want active", m.State())
	}
}

func TestResumeEndedSessionNeedsReactivate(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	key, _ := store.CreateSession(ctx, "ev-1")
	_ = store.SetActive(ctx, key, false)

	m := NewManager(store, newFakeGameStore())
	if _, _, err := m.Resume(ctx, "ev-1", "Central"); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if m.State() != StateEnded {
		t.Fatalf("state = %s, want ended", m.State())
	}
	if err := m.Checkpoint(ctx, testBox(10, 8)); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("checkpoint on ended session = %v, want ErrSessionEnded", err)
	}

	if err := m.Reactivate(ctx); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if err := m.Checkpoint(ctx, testBox(10, 8)); err != nil {
		t.Errorf("checkpoint after reactivate: %v", err)
	}
}

// TestCheckpointIsIdempotent is the core aggregation contract: the first
// checkpoint creates the game record, every later one updates it in place.
func TestCheckpointIsIdempotent(t *testing.T) {
	store := newFakeStore()
	games := newFakeGameStore()
	m := NewManager(store, games)
	ctx := context.Background()

	if _, err := m.StartNew(ctx, "ev-1", "Central"); err != nil {
		t.Fatalf("StartNew: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := m.Checkpoint(ctx, testBox(20+i, 15)); err != nil {
			t.Fatalf("Checkpoint %d: %v", i, err)
		}
	}

	if games.creates != 1 {
		t.Errorf("game records created = %d, want 1", games.creates)
	}
	if games.checkpoints != 3 {
		t.Errorf("checkpoints saved = %d, want 3", games.checkpoints)
	}
}

// A resumed session that was already checkpointed elsewhere adopts the
// existing record instead of inserting a second one.
func TestResumedCheckpointAdoptsExistingRecord(t *testing.T) {
	store := newFakeStore()
	games := newFakeGameStore()
	ctx := context.Background()
	_, _ = store.CreateSession(ctx, "ev-1")
	games.games["ev-1"] = "game-existing"

	m := NewManager(store, games)
	h, _, err := m.Resume(ctx, "ev-1", "Central")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if h.GameID() != "game-existing" {
		t.Errorf("resumed game id = %q, want game-existing", h.GameID())
	}

	if err := m.Checkpoint(ctx, testBox(30, 28)); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if games.creates != 0 {
		t.Errorf("game records created = %d, want 0 (adopt, not insert)", games.creates)
	}
}

// A checkpoint that discovers a record created elsewhere overwrites it and
// reports the conflict.
func TestCheckpointConflictNotifies(t *testing.T) {
	store := newFakeStore()
	games := newFakeGameStore()
	ctx := context.Background()
	games.games["ev-1"] = "game-foreign"

	m := NewManager(store, games)
	var gotEvent, gotGame string
	m.NotifyConflict = func(eventID, gameID string) {
		gotEvent, gotGame = eventID, gameID
	}

	if _, err := m.StartNew(ctx, "ev-1", "Central"); err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if err := m.Checkpoint(ctx, testBox(30, 28)); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	if gotEvent != "ev-1" || gotGame != "game-foreign" {
		t.Errorf("conflict notified with (%q, %q), want (ev-1, game-foreign)", gotEvent, gotGame)
	}
	if games.creates != 0 {
		t.Errorf("game records created = %d, want 0", games.creates)
	}
}

func TestEndRecordsResultAndDeactivates(t *testing.T) {
	store := newFakeStore()
	games := newFakeGameStore()
	m := NewManager(store, games)
	ctx := context.Background()

	if _, err := m.StartNew(ctx, "ev-1", "Central"); err != nil {
		t.Fatalf("StartNew: %v", err)
	}

	tests := []struct {
		home, opp int
		want      string
	}{
		{52, 48, "win"},
	}
	for _, tt := range tests {
		if err := m.End(ctx, testBox(tt.home, tt.opp)); err != nil {
			t.Fatalf("End: %v", err)
		}
		if got := games.scores[len(games.scores)-1]; got != tt.want {
			t.Errorf("result = %q, want %q", got, tt.want)
		}
	}
	if m.State() != StateEnded {
		t.Errorf("state = %s, want ended", m.State())
	}
	key := m.Handle().Key()
	if store.sessions[key].active {
		t.Error("ended session still active in store")
	}
}

func TestDiscardForgetsSession(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, newFakeGameStore())
	ctx := context.Background()

	if _, err := m.StartNew(ctx, "ev-1", "Central"); err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if err := m.Discard(ctx, "ev-1"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if m.Handle() != nil || m.State() != StateUninitialized {
		t.Error("discard must reset the manager")
	}
	if _, _, ok, _ := store.FindSession(ctx, "ev-1"); ok {
		t.Error("discarded session still findable")
	}
}

func TestCheckpointWithoutSession(t *testing.T) {
	m := NewManager(newFakeStore(), newFakeGameStore())
	if err := m.Checkpoint(context.Background(), testBox(1, 0)); !errors.Is(err, ErrNotStarted) {
		t.Errorf("error = %v, want ErrNotStarted", err)
	}
}
