package stats

import (
	"github.com/courtside/tracker/internal/game"
)

// Direction selects forward application or exact reversal of an event's
// effect on derived stats.
type Direction int

const (
	// Apply folds the event in.
	Apply Direction = 1
	// Revert exactly inverts a prior Apply of the same event.
	Revert Direction = -1
)

// Aggregate runs one full fold over the given events and returns the derived
// box score. Events must be the non-deleted log in chronological order.
//
// Aggregate is a pure function of its inputs: running it twice produces
// identical output, which is what makes resume-and-replay safe.
func Aggregate(events []*game.GameEvent, roster []*game.Player, opts Options) *BoxScore {
	box := &BoxScore{
		Players:     make(map[string]*game.Player, len(roster)),
		Opponents:   make(map[string]*game.OpponentSlot),
		CurrentHalf: 1,
	}
	for _, p := range roster {
		box.Players[p.ID] = &game.Player{
			ID:       p.ID,
			Name:     p.Name,
			Jersey:   p.Jersey,
			Position: p.Position,
			Starter:  p.Starter,
		}
	}
	pol := DefaultPolicy()
	if opts.Policy != nil {
		pol = *opts.Policy
	}
	for _, e := range events {
		if e.Deleted {
			continue
		}
		ApplyEvent(box, e, Apply, pol, opts)
	}
	return box
}

// ApplyEvent folds one event into (or out of) the box score. The same
// function serves live recording (Apply), delete (Revert), restore (Apply)
// and full replay; the inverse is computed from the event's recorded values,
// never from current state, which is why events must stay immutable.
//
// Administrative events (substitutions, timeouts, quarter boundaries) touch
// team context but never stat lines.
func ApplyEvent(box *BoxScore, e *game.GameEvent, dir Direction, pol Policy, opts Options) {
	d := int(dir)
	team := box.teamFor(e.Actor.Side)

	switch e.Type {
	case game.EventFGMade:
		line := box.line(e.Actor)
		value := e.Value
		if value == 0 {
			value = 2
		}
		line.Points += value * d
		line.FGMade += d
		line.FGAttempted += d
		line.PlusMinus += value * d
		team.Points += value * d
		team.FGMade += d
		team.FGAttempted += d
		applyScoreTags(line, team, e, value, d, opts)

	case game.EventFGMissed:
		line := box.line(e.Actor)
		line.FGAttempted += d
		team.FGAttempted += d

	case game.EventThreeMade:
		line := box.line(e.Actor)
		value := e.Value
		if value == 0 {
			value = 3
		}
		line.Points += value * d
		line.ThreeMade += d
		line.ThreeAttempted += d
		// A three is a subtype of a field goal.
		line.FGMade += d
		line.FGAttempted += d
		line.PlusMinus += value * d
		team.Points += value * d
		team.ThreeMade += d
		team.ThreeAttempted += d
		team.FGMade += d
		team.FGAttempted += d
		applyScoreTags(line, team, e, value, d, opts)

	case game.EventThreeMissed:
		line := box.line(e.Actor)
		line.ThreeAttempted += d
		line.FGAttempted += d
		team.ThreeAttempted += d
		team.FGAttempted += d

	case game.EventFTMade:
		line := box.line(e.Actor)
		line.Points += d
		line.FTMade += d
		line.FTAttempted += d
		line.PlusMinus += d
		team.Points += d
		team.FTMade += d
		team.FTAttempted += d
		applyScoreTags(line, team, e, 1, d, opts)

	case game.EventFTMissed:
		line := box.line(e.Actor)
		line.FTAttempted += d
		team.FTAttempted += d

	case game.EventRebound:
		line := box.line(e.Actor)
		if e.Metadata.Rebound == game.ReboundOffensive {
			line.ReboundsOff += d
			team.ReboundsOff += d
		} else {
			line.ReboundsDef += d
			team.ReboundsDef += d
		}

	case game.EventAssist:
		// The assist is its own event attributed to its own actor; the
		// scoring event only carries the link in metadata.
		line := box.line(e.Actor)
		line.Assists += d
		team.Assists += d

	case game.EventSteal:
		line := box.line(e.Actor)
		line.Steals += d
		line.PlusMinus += pol.StealPlusMinus * d
		team.Steals += d

	case game.EventBlock:
		line := box.line(e.Actor)
		line.Blocks += d
		team.Blocks += d

	case game.EventTurnover:
		line := box.line(e.Actor)
		line.Turnovers += d
		line.PlusMinus += pol.TurnoverPlusMinus * d
		team.Turnovers += d

	case game.EventFoul:
		line := box.line(e.Actor)
		line.Fouls += d
		team.Fouls += d
		// Team fouls only count defensive fouls, and only within the current
		// half (they reset at halftime).
		if !e.Metadata.Offensive && e.Half() == box.CurrentHalf {
			team.TeamFouls += d
		}

	case game.EventChargeTaken:
		line := box.line(e.Actor)
		line.ChargesTaken += d

	case game.EventDeflection:
		line := box.line(e.Actor)
		line.Deflections += d

	case game.EventTimeout:
		team.TimeoutsTaken += d

	case game.EventQuarterStart:
		if dir == Apply && e.Quarter >= 3 && box.CurrentHalf == 1 {
			box.CurrentHalf = 2
			box.Team.TeamFouls = 0
			box.Opponent.TeamFouls = 0
		}

	case game.EventSubIn, game.EventSubOut, game.EventQuarterStop, game.EventDeleted:
		// No stat effect.
	}
}

// applyScoreTags folds in the analytics tags baked into a scoring event's
// metadata: points in the paint, second-chance points, points off turnovers,
// bench points.
func applyScoreTags(line *game.StatLine, team *TeamStats, e *game.GameEvent, value, d int, opts Options) {
	if e.Metadata.Paint {
		line.PointsInPaint += value * d
		team.PointsInPaint += value * d
	}
	if e.Metadata.SecondChance {
		team.SecondChancePoints += value * d
	}
	if e.Metadata.OffTurnover {
		team.PointsOffTurnovers += value * d
	}
	if offBench(e.Actor, opts) {
		team.BenchPoints += value * d
	}
}

// offBench reports whether the scorer sits outside the locked starting five.
// An unlocked five attributes nothing.
func offBench(a game.Actor, opts Options) bool {
	if a.Side == game.SideHome {
		if len(opts.StartingFive) == 0 {
			return false
		}
		return !opts.StartingFive[a.PlayerID]
	}
	if len(opts.OpponentStartingFive) == 0 {
		return false
	}
	return !opts.OpponentStartingFive[a.Jersey]
}
