package stats

import (
	"github.com/courtside/tracker/internal/game"
)

// PossessionTracker is the small state machine that tags scoring events with
// second-chance and points-off-turnover flags at the moment they are
// recorded. Tags are baked into event metadata permanently; the tracker is
// never rewound when events are deleted afterward.
//
// Two window flags exist per team. A second-chance window opens when a team
// rebounds its own miss with no intervening opponent action, and closes when
// the ball changes hands or a score is tagged. A points-off-turnover window
// opens for the team that forced an opponent turnover, and closes on the
// first interrupting action before that team scores.
type PossessionTracker struct {
	scpOpen map[game.Side]bool
	ptoOpen map[game.Side]bool

	// pendingMiss is the side whose missed shot is still eligible to be
	// extended by its own offensive rebound.
	pendingMiss    game.Side
	hasPendingMiss bool

	lastPossession game.Side
}

// NewPossessionTracker returns a tracker with all windows closed.
func NewPossessionTracker() *PossessionTracker {
	return &PossessionTracker{
		scpOpen: map[game.Side]bool{},
		ptoOpen: map[game.Side]bool{},
	}
}

// Replay advances the state machine from an already-recorded event without
// touching it. Hydration uses this to rebuild open windows: tags are
// write-once at recording time, and must not change when an interrupting
// event was deleted after the fact.
func (t *PossessionTracker) Replay(e *game.GameEvent) {
	clone := *e
	t.Observe(&clone)
}

// LastPossession returns the side last known to hold the ball.
func (t *PossessionTracker) LastPossession() game.Side {
	return t.lastPossession
}

// Reset closes every window, used at quarter boundaries.
func (t *PossessionTracker) Reset() {
	t.scpOpen[game.SideHome] = false
	t.scpOpen[game.SideOpponent] = false
	t.ptoOpen[game.SideHome] = false
	t.ptoOpen[game.SideOpponent] = false
	t.hasPendingMiss = false
}

// Observe advances the state machine with a newly recorded event, mutating
// the event's metadata tags where a window applies. It must be called in
// chronological recording order, before the event is appended to the log.
func (t *PossessionTracker) Observe(e *game.GameEvent) {
	side := e.Actor.Side
	other := side.Opposite()

	// Any opponent action between a miss and the rebound voids second-chance
	// eligibility for that miss.
	if t.hasPendingMiss && side != t.pendingMiss {
		if e.Type != game.EventRebound {
			t.hasPendingMiss = false
		}
	}

	switch e.Type {
	case game.EventFGMissed, game.EventThreeMissed, game.EventFTMissed:
		t.pendingMiss = side
		t.hasPendingMiss = true
		// A shot attempt interrupts any open points-off-turnover window.
		t.ptoOpen[game.SideHome] = false
		t.ptoOpen[game.SideOpponent] = false
		t.lastPossession = side

	case game.EventFGMade, game.EventThreeMade, game.EventFTMade:
		if t.scpOpen[side] {
			e.Metadata.SecondChance = true
			t.scpOpen[side] = false
		}
		if t.ptoOpen[side] {
			e.Metadata.OffTurnover = true
			t.ptoOpen[side] = false
		}
		// A made basket ends the possession outright.
		t.Reset()
		t.lastPossession = other

	case game.EventRebound:
		if e.Metadata.Rebound == game.ReboundOffensive && t.hasPendingMiss && t.pendingMiss == side {
			t.scpOpen[side] = true
		} else if e.Metadata.Rebound == game.ReboundDefensive {
			// Ball changed hands.
			t.scpOpen[other] = false
		}
		t.ptoOpen[game.SideHome] = false
		t.ptoOpen[game.SideOpponent] = false
		t.hasPendingMiss = false
		t.lastPossession = side

	case game.EventTurnover:
		t.ptoOpen[other] = true
		t.ptoOpen[side] = false
		t.scpOpen[side] = false
		t.hasPendingMiss = false
		t.lastPossession = other

	case game.EventSteal:
		// The thief's side keeps any window the companion turnover opened;
		// only the side losing the ball has its windows closed.
		t.scpOpen[other] = false
		t.ptoOpen[other] = false
		t.lastPossession = side

	case game.EventBlock:
		t.ptoOpen[other] = false

	case game.EventQuarterStart, game.EventQuarterStop:
		t.Reset()
	}
}
