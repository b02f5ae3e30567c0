// Package stats derives box scores from the event log. The aggregator is a
// pure fold: one event-application function used in both directions (apply
// and revert) and for full replay, so live recording and resume-hydration can
// never drift apart.
package stats

import (
	"github.com/courtside/tracker/internal/game"
)

// Policy holds the coaching-convention constants the aggregator applies.
// These are conventions, not league rules, and are loaded from configuration.
type Policy struct {
	// StealPlusMinus is credited to a player's plus-minus on a steal.
	StealPlusMinus int

	// TurnoverPlusMinus is credited (normally negative) on a turnover.
	TurnoverPlusMinus int
}

// DefaultPolicy returns the weights the tracker has historically used.
func DefaultPolicy() Policy {
	return Policy{
		StealPlusMinus:    2,
		TurnoverPlusMinus: -2,
	}
}

// Efficiency computes the single-number efficiency rating for a stat line:
// points + rebounds + assists + steals + blocks - missed FG - missed FT -
// turnovers.
func Efficiency(s *game.StatLine) int {
	missedFG := s.FGAttempted - s.FGMade
	missedFT := s.FTAttempted - s.FTMade
	return s.Points + s.Rebounds() + s.Assists + s.Steals + s.Blocks - missedFG - missedFT - s.Turnovers
}

// TeamStats aggregates one team's side of the box score.
type TeamStats struct {
	game.StatLine

	TeamFouls          int `json:"teamFouls"` // defensive fouls this half
	TimeoutsTaken      int `json:"timeoutsTaken"`
	SecondChancePoints int `json:"secondChancePoints"`
	PointsOffTurnovers int `json:"pointsOffTurnovers"`
	BenchPoints        int `json:"benchPoints"`
}

// BoxScore is the full derived output of one aggregation pass.
type BoxScore struct {
	// Players maps roster player id to the rebuilt projection.
	Players map[string]*game.Player

	// Opponents maps jersey number to the rebuilt opponent slot.
	Opponents map[string]*game.OpponentSlot

	Team     TeamStats
	Opponent TeamStats

	// CurrentHalf tracks which half the fold has reached; team fouls reset
	// when it flips to 2.
	CurrentHalf int
}

// Options configures an aggregation pass.
type Options struct {
	// Policy supplies plus-minus weights. Zero value falls back to
	// DefaultPolicy.
	Policy *Policy

	// StartingFive is the locked starting-five snapshot for the home team,
	// keyed by player id. Bench points are computed against this set, never
	// the current on-court set. Empty means the five was never locked and no
	// bench points are attributed.
	StartingFive map[string]bool

	// OpponentStartingFive is the locked opponent starting jersey set.
	OpponentStartingFive map[string]bool
}

// teamFor returns the TeamStats record for the given side.
func (b *BoxScore) teamFor(side game.Side) *TeamStats {
	if side == game.SideHome {
		return &b.Team
	}
	return &b.Opponent
}

// player returns (creating if needed) the home projection for an actor. The
// roster normally pre-populates these; events referencing an unknown id are
// rejected upstream, so creation here only happens in tests.
func (b *BoxScore) player(id string) *game.Player {
	p, ok := b.Players[id]
	if !ok {
		p = &game.Player{ID: id}
		b.Players[id] = p
	}
	return p
}

// opponent returns (creating if needed) the slot for an opponent jersey.
func (b *BoxScore) opponent(jersey string) *game.OpponentSlot {
	o, ok := b.Opponents[jersey]
	if !ok {
		o = &game.OpponentSlot{Jersey: jersey}
		b.Opponents[jersey] = o
	}
	return o
}

// line returns the stat line an event's actor accrues against.
func (b *BoxScore) line(a game.Actor) *game.StatLine {
	if a.Side == game.SideHome {
		return &b.player(a.PlayerID).StatLine
	}
	return &b.opponent(a.Jersey).StatLine
}
