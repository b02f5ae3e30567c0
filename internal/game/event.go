// Package game contains the core domain model for live basketball tracking:
// game events, the append-only event log, player and lineup projections, and
// running game state.
package game

import (
	"fmt"
	"time"
)

// EventType identifies the type of a recorded game event.
type EventType string

// Scoring events.
const (
	// EventFGMade records a made two-point field goal.
	EventFGMade EventType = "fg_made"
	// EventFGMissed records a missed two-point field goal.
	EventFGMissed EventType = "fg_missed"
	// EventThreeMade records a made three-point field goal.
	EventThreeMade EventType = "three_made"
	// EventThreeMissed records a missed three-point field goal.
	EventThreeMissed EventType = "three_missed"
	// EventFTMade records a made free throw.
	EventFTMade EventType = "ft_made"
	// EventFTMissed records a missed free throw.
	EventFTMissed EventType = "ft_missed"
)

// Non-scoring stat events.
const (
	// EventRebound records a rebound; Metadata.Rebound carries the
	// offensive/defensive split.
	EventRebound EventType = "rebound"
	// EventAssist records an assist as its own event, linked from the
	// scoring event via Metadata.Assist.
	EventAssist EventType = "assist"
	// EventSteal records a steal.
	EventSteal EventType = "steal"
	// EventBlock records a blocked shot.
	EventBlock EventType = "block"
	// EventTurnover records a turnover.
	EventTurnover EventType = "turnover"
	// EventFoul records a personal foul; Metadata.Offensive distinguishes
	// offensive from defensive fouls.
	EventFoul EventType = "foul"
	// EventChargeTaken records a charge drawn by a defender.
	EventChargeTaken EventType = "charge_taken"
	// EventDeflection records a deflection.
	EventDeflection EventType = "deflection"
)

// Game administration events.
const (
	// EventSubIn records a player entering the court.
	EventSubIn EventType = "substitution_in"
	// EventSubOut records a player leaving the court.
	EventSubOut EventType = "substitution_out"
	// EventTimeout records a team timeout.
	EventTimeout EventType = "timeout"
	// EventQuarterStart records the start of a period.
	EventQuarterStart EventType = "quarter_started"
	// EventQuarterStop records the end of a period.
	EventQuarterStop EventType = "quarter_stopped"
	// EventDeleted is the audit record written when an event is tombstoned.
	EventDeleted EventType = "deleted_event"
)

// IsScore reports whether the event type puts points on the board.
func (t EventType) IsScore() bool {
	switch t {
	case EventFGMade, EventThreeMade, EventFTMade:
		return true
	}
	return false
}

// IsShotAttempt reports whether the event type is a field goal or free throw
// attempt (made or missed).
func (t EventType) IsShotAttempt() bool {
	switch t {
	case EventFGMade, EventFGMissed, EventThreeMade, EventThreeMissed, EventFTMade, EventFTMissed:
		return true
	}
	return false
}

// PointValue returns the points awarded by a made shot of this type, or 0 for
// anything else.
func (t EventType) PointValue() int {
	switch t {
	case EventFGMade:
		return 2
	case EventThreeMade:
		return 3
	case EventFTMade:
		return 1
	}
	return 0
}

// Side identifies which bench an actor belongs to.
type Side string

const (
	// SideHome is the tracked team.
	SideHome Side = "home"
	// SideOpponent is the opposing team, tracked by jersey slot only.
	SideOpponent Side = "opponent"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideHome {
		return SideOpponent
	}
	return SideHome
}

// Actor identifies who an event is attributed to: a rostered home player by
// id, or an opponent by jersey number.
type Actor struct {
	Side     Side   `json:"side"`
	PlayerID string `json:"playerId,omitempty"` // set when Side == SideHome
	Jersey   string `json:"jersey,omitempty"`   // set when Side == SideOpponent
}

// HomePlayer builds an Actor for a rostered player.
func HomePlayer(playerID string) Actor {
	return Actor{Side: SideHome, PlayerID: playerID}
}

// OpponentJersey builds an Actor for an opponent jersey slot.
func OpponentJersey(jersey string) Actor {
	return Actor{Side: SideOpponent, Jersey: jersey}
}

// HomeTeam builds a team-level Actor for administrative events (timeouts,
// quarter boundaries) not attributed to a single player.
func HomeTeam() Actor {
	return Actor{Side: SideHome}
}

// OpponentTeam builds the opponent's team-level Actor.
func OpponentTeam() Actor {
	return Actor{Side: SideOpponent}
}

// Key returns a stable identity string for the actor, usable as a map key.
func (a Actor) Key() string {
	if a.Side == SideHome {
		return a.PlayerID
	}
	return "#" + a.Jersey
}

func (a Actor) String() string {
	if a.Side == SideHome {
		return fmt.Sprintf("player %s", a.PlayerID)
	}
	return fmt.Sprintf("opponent #%s", a.Jersey)
}

// ReboundKind distinguishes offensive from defensive rebounds.
type ReboundKind string

const (
	ReboundOffensive ReboundKind = "off"
	ReboundDefensive ReboundKind = "def"
)

// Metadata carries derived tags attached to an event at creation time.
// Tags are written once when the event is created (the possession tracker and
// disambiguation workflow are the only writers) and never mutated afterward.
type Metadata struct {
	// Paint marks a score from the paint (points in the paint).
	Paint bool `json:"pip,omitempty"`

	// Assist links a scoring event to the assisting actor's key.
	Assist string `json:"assist,omitempty"`

	// SecondChance marks a score inside an open second-chance window.
	SecondChance bool `json:"scp,omitempty"`

	// OffTurnover marks a score inside an open points-off-turnover window.
	OffTurnover bool `json:"pto,omitempty"`

	// Offensive marks a foul as offensive (no team-foul increment).
	Offensive bool `json:"isOffensive,omitempty"`

	// Rebound carries the offensive/defensive split for rebound events.
	Rebound ReboundKind `json:"rebound,omitempty"`
}

// GameEvent is the atomic unit of truth. Events are immutable after creation
// except for the Deleted tombstone; corrections are new events, never
// mutations.
type GameEvent struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"` // authoritative ordering key
	Quarter        int       `json:"quarter"`
	GameTimeOffset int       `json:"gameTimeOffset"` // seconds since quarter start, informational
	Actor          Actor     `json:"actor"`
	Type           EventType `json:"eventType"`
	Value          int       `json:"value,omitempty"` // points for scoring events
	Metadata       Metadata  `json:"metadata"`
	Deleted        bool      `json:"isDeleted,omitempty"`

	// TargetID is set only on deletion-audit events and names the event
	// whose tombstone this record announces.
	TargetID string `json:"targetId,omitempty"`
}

// Half returns which half of regulation the event's quarter belongs to.
// Overtime periods count as the second half for team-foul purposes.
func (e *GameEvent) Half() int {
	if e.Quarter <= 2 {
		return 1
	}
	return 2
}
