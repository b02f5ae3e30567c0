// Package tracker is the aggregate root of the live tracking engine. All
// mutation funnels through it: recording events (with disambiguation),
// deleting and restoring them, substitutions, timeouts and quarter
// boundaries. After every local mutation it re-runs one full aggregation
// fold, so the UI always sees a total, consistent box score and "recompute
// derived stats" is a single deterministic call.
package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/courtside/tracker/internal/config"
	"github.com/courtside/tracker/internal/events"
	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/session"
	"github.com/courtside/tracker/internal/stats"
	"github.com/courtside/tracker/internal/workflow"
)

// Mirror is where locally applied events are queued for remote delivery.
// Implemented by the sync outbox; nil disables mirroring (offline tests).
type Mirror interface {
	Enqueue(sessionKey string, e *game.GameEvent)
}

// Deps wires the tracker's collaborators.
type Deps struct {
	Config     *config.Config
	Roster     []*game.Player
	Manager    *session.Manager
	Cache      session.SnapshotCache // may be nil
	Mirror     Mirror                // may be nil
	Dispatcher *events.Dispatcher    // may be nil
	// AggregationTimer observes fold durations; may be nil.
	AggregationTimer prometheus.Histogram
}

// Tracker is the single logical writer for one live game.
type Tracker struct {
	mu sync.Mutex

	cfg        *config.Config
	log        *game.EventLog
	roster     []*game.Player
	rosterByID map[string]*game.Player

	gameState      game.GameState
	lineups        []*game.Lineup
	lineupBaseline map[string]int // plus-minus at the open lineup's start
	onCourt        map[string]bool
	oppCourt       map[string]bool

	startingFive    map[string]bool
	oppStartingFive map[string]bool
	fiveLocked      bool

	quarterStartedAt time.Time

	possession *stats.PossessionTracker
	box        *stats.BoxScore

	manager    *session.Manager
	cache      session.SnapshotCache
	mirror     Mirror
	dispatcher *events.Dispatcher
	aggTimer   prometheus.Histogram

	history *History
	pending *workflow.Workflow
}

// New creates a tracker over the given dependencies.
func New(deps Deps) (*Tracker, error) {
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	if err := deps.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	t := &Tracker{
		cfg:             deps.Config,
		log:             game.NewEventLog(),
		roster:          deps.Roster,
		rosterByID:      make(map[string]*game.Player, len(deps.Roster)),
		onCourt:         make(map[string]bool),
		oppCourt:        make(map[string]bool),
		startingFive:    make(map[string]bool),
		oppStartingFive: make(map[string]bool),
		possession:      stats.NewPossessionTracker(),
		manager:         deps.Manager,
		cache:           deps.Cache,
		mirror:          deps.Mirror,
		dispatcher:      deps.Dispatcher,
		aggTimer:        deps.AggregationTimer,
		history:         NewHistory(deps.Config.Tracker.UndoDepth),
	}
	for _, p := range deps.Roster {
		t.rosterByID[p.ID] = p
	}
	if t.manager != nil {
		t.manager.NotifyConflict = func(eventID, gameID string) {
			t.emit(events.Event{Type: events.TypeConflict, Payload: events.ConflictPayload{
				EventID: eventID,
				GameID:  gameID,
			}})
		}
	}
	t.gameState.Quarter = 1
	t.gameState.HomeTimeouts = deps.Config.Tracker.TimeoutsPerTeam
	t.gameState.OpponentTimeouts = deps.Config.Tracker.TimeoutsPerTeam
	t.reaggregateLocked()
	return t, nil
}

// RecordEvent is the single entry point for all stat recording. The
// primitive event is validated, tagged by the possession tracker, appended
// locally, aggregated and queued for remote mirroring before RecordEvent
// returns; the network is never waited on. Event types that need
// disambiguation leave the tracker with a pending prompt (see Pending and
// the Resolve methods); a new RecordEvent cancels any unresolved prompt,
// leaving the earlier primitive recorded without its linked event.
func (t *Tracker) RecordEvent(eventType game.EventType, actor game.Actor, value int, metadata *game.Metadata) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gameState.Ended {
		return "", errors.New("game has ended")
	}
	if err := t.validateActor(actor); err != nil {
		return "", err
	}

	// An interrupted workflow permanently resolves to "no linked event".
	if t.pending != nil && !t.pending.Done() {
		t.pending.Cancel()
		t.pending = nil
	}

	e := &game.GameEvent{
		Quarter:        t.gameState.Quarter,
		GameTimeOffset: t.gameTimeOffsetLocked(),
		Actor:          actor,
		Type:           eventType,
		Value:          value,
	}
	if metadata != nil {
		e.Metadata = *metadata
	}
	if e.Value == 0 {
		e.Value = eventType.PointValue()
	}
	t.possession.Observe(e)

	id := t.appendLocked(e)
	t.history.Push(fmt.Sprintf("record %s", eventType), func() error {
		return t.deleteEventLocked(id)
	})

	w := workflow.Start(e)
	if !w.Done() {
		t.pending = w
		t.emit(events.Event{Type: events.TypeWorkflowPrompt, Payload: events.WorkflowPromptPayload{
			Step:    w.Step().String(),
			EventID: id,
		}})
	}

	t.reaggregateLocked()
	return id, nil
}

// DeleteEvent tombstones an event and appends a deletion-audit record so the
// remote log learns about the tombstone through the same append-only
// channel.
func (t *Tracker) DeleteEvent(eventID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteEventLocked(eventID)
}

func (t *Tracker) deleteEventLocked(eventID string) error {
	prev, err := t.log.Delete(eventID)
	if err != nil {
		return err
	}

	audit := &game.GameEvent{
		Quarter:  t.gameState.Quarter,
		Actor:    prev.Actor,
		Type:     game.EventDeleted,
		TargetID: prev.ID,
	}
	t.appendLocked(audit)

	t.emit(events.Event{Type: events.TypeEventDeleted, Payload: events.EventDeletedPayload{
		EventID:   prev.ID,
		EventType: string(prev.Type),
	}})
	t.reaggregateLocked()
	return nil
}

// UndoLastDeletedEvent restores the most recently deleted event under a
// fresh id and mirrors it like a new append.
func (t *Tracker) UndoLastDeletedEvent() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.log.RestoreLast()
	if err != nil {
		return err
	}
	// The restored event carries a fresh id, so the remote dedupe treats it
	// as a new append rather than a duplicate.
	t.enqueueMirrorLocked(e)
	t.reaggregateLocked()
	return nil
}

// UndoLastAction pops the most recent undoable action (stat event,
// substitution, timeout, quarter boundary) and inverts it.
func (t *Tracker) UndoLastAction() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.Undo()
}

// validateActor rejects events referencing players that aren't rostered.
// Rejected events never enter the log; prior state is untouched.
func (t *Tracker) validateActor(a game.Actor) error {
	switch a.Side {
	case game.SideHome:
		if _, ok := t.rosterByID[a.PlayerID]; !ok {
			return fmt.Errorf("player %s not on roster", a.PlayerID)
		}
	case game.SideOpponent:
		if a.Jersey == "" {
			return fmt.Errorf("opponent actor requires a jersey number")
		}
	default:
		return fmt.Errorf("unknown actor side %q", a.Side)
	}
	return nil
}

// appendLocked appends locally and queues the remote mirror.
func (t *Tracker) appendLocked(e *game.GameEvent) string {
	id := t.log.Append(e)
	t.enqueueMirrorLocked(e)
	t.emit(events.Event{Type: events.TypeEventRecorded, Payload: events.EventRecordedPayload{
		EventID:   id,
		EventType: string(e.Type),
		Actor:     e.Actor.String(),
	}})
	return id
}

func (t *Tracker) enqueueMirrorLocked(e *game.GameEvent) {
	if t.mirror == nil || t.manager == nil {
		return
	}
	h := t.manager.Handle()
	if h == nil {
		return
	}
	t.mirror.Enqueue(h.Key(), e)
}

// reaggregateLocked re-runs the full fold and refreshes the game-state
// mirror. Synchronous and total: the UI never sees partial aggregation.
func (t *Tracker) reaggregateLocked() {
	start := time.Now()
	pol := stats.Policy{
		StealPlusMinus:    t.cfg.Policy.StealPlusMinus,
		TurnoverPlusMinus: t.cfg.Policy.TurnoverPlusMinus,
	}
	t.box = stats.Aggregate(t.log.Chronological(), t.roster, stats.Options{
		Policy:               &pol,
		StartingFive:         t.startingFive,
		OpponentStartingFive: t.oppStartingFive,
	})
	if t.aggTimer != nil {
		t.aggTimer.Observe(time.Since(start).Seconds())
	}

	t.gameState.HomeScore = t.box.Team.Points
	t.gameState.OpponentScore = t.box.Opponent.Points
	t.gameState.HomeTeamFouls = t.box.Team.TeamFouls
	t.gameState.OpponentTeamFouls = t.box.Opponent.TeamFouls

	t.emit(events.Event{Type: events.TypeStatsUpdated, Payload: events.StatsUpdatedPayload{
		HomeScore:     t.gameState.HomeScore,
		OpponentScore: t.gameState.OpponentScore,
		EventCount:    t.log.Len(),
	}})
}

func (t *Tracker) gameTimeOffsetLocked() int {
	if !t.gameState.Playing || t.quarterStartedAt.IsZero() {
		return 0
	}
	return int(time.Since(t.quarterStartedAt).Seconds())
}

func (t *Tracker) emit(event events.Event) {
	if t.dispatcher != nil {
		t.dispatcher.Dispatch(event)
	}
}

// PlayerStats returns the current full-fold player projections in roster
// order.
func (t *Tracker) PlayerStats() []*game.Player {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*game.Player, 0, len(t.roster))
	for _, p := range t.roster {
		if bp, ok := t.box.Players[p.ID]; ok {
			cp := *bp
			cp.OnCourt = t.onCourt[p.ID]
			out = append(out, &cp)
		}
	}
	return out
}

// TeamStats returns the current full-fold home team aggregate.
func (t *Tracker) TeamStats() stats.TeamStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.box.Team
}

// OpponentStats returns the current full-fold opponent aggregate.
func (t *Tracker) OpponentStats() stats.TeamStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.box.Opponent
}

// GameState returns a copy of the running game-state mirror.
func (t *Tracker) GameState() game.GameState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gameState
}

// BoxScore returns the current folded box score. Callers must treat it as
// read-only; the next mutation replaces it wholesale.
func (t *Tracker) BoxScore() *stats.BoxScore {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.box
}

// ChronologicalEvents returns the non-deleted log oldest first, the order
// exports and period reports scan in.
func (t *Tracker) ChronologicalEvents() []*game.GameEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Chronological()
}

// Events returns the event log newest first, for display.
func (t *Tracker) Events() []*game.GameEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Display()
}

// Lineups returns the recorded lineup intervals.
func (t *Tracker) Lineups() []*game.Lineup {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*game.Lineup, len(t.lineups))
	copy(out, t.lineups)
	return out
}

// SetConfig swaps in a new configuration (policy weights, undo depth);
// derived stats are refolded under the new policy immediately.
func (t *Tracker) SetConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
	t.reaggregateLocked()
	return nil
}
