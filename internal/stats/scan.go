package stats

import (
	"github.com/courtside/tracker/internal/game"
)

// The scan functions reconstruct second-chance and points-off-turnover
// totals by walking the chronological event stream, independent of the tags
// the live possession tracker baked into metadata. Exports and period
// reports use these; the live tags remain authoritative for per-event audit.
// The two must agree for any stream recorded through the tracker.

// SecondChancePointsScan totals the points a side scored on possessions
// extended by its own offensive rebound.
func SecondChancePointsScan(events []*game.GameEvent, side game.Side) int {
	total := 0
	for i, e := range events {
		if e.Deleted || e.Actor.Side != side || !isMiss(e.Type) {
			continue
		}
		total += scanSecondChance(events[i+1:], side)
	}
	return total
}

// scanSecondChance follows one miss forward: the shooting team must rebound
// its own miss with no intervening opponent action, then the next score by
// that team before the ball changes hands counts.
func scanSecondChance(rest []*game.GameEvent, side game.Side) int {
	windowOpen := false
	for _, e := range rest {
		if e.Deleted {
			continue
		}
		if !windowOpen {
			switch {
			case e.Type == game.EventRebound && e.Actor.Side == side && e.Metadata.Rebound == game.ReboundOffensive:
				windowOpen = true
			case e.Actor.Side != side:
				// Opponent action before the rebound voids eligibility.
				return 0
			case isMiss(e.Type):
				// A fresh miss starts its own scan; this one is done.
				return 0
			}
			continue
		}
		switch {
		case e.Type.IsScore() && e.Actor.Side == side:
			return scoreValue(e)
		case isMiss(e.Type) && e.Actor.Side == side:
			// Possession continues; window stays open until hands change.
		case e.Type == game.EventRebound && e.Actor.Side != side:
			return 0
		case e.Type == game.EventSteal && e.Actor.Side != side:
			return 0
		case e.Type == game.EventTurnover && e.Actor.Side == side:
			return 0
		case e.Type.IsScore() && e.Actor.Side != side:
			return 0
		case e.Type == game.EventQuarterStart || e.Type == game.EventQuarterStop:
			return 0
		}
	}
	return 0
}

// PointsOffTurnoversScan totals the points a side scored on the possession
// immediately following a forced opponent turnover, uninterrupted.
func PointsOffTurnoversScan(events []*game.GameEvent, side game.Side) int {
	total := 0
	for i, e := range events {
		if e.Deleted || e.Type != game.EventTurnover || e.Actor.Side == side {
			continue
		}
		total += scanOffTurnover(events[i+1:], side)
	}
	return total
}

// scanOffTurnover follows one opponent turnover forward to the first score
// by the forcing side, stopping at the first interrupting action.
func scanOffTurnover(rest []*game.GameEvent, side game.Side) int {
	for _, e := range rest {
		if e.Deleted {
			continue
		}
		switch {
		case e.Type.IsScore() && e.Actor.Side == side:
			return scoreValue(e)
		case e.Type == game.EventSteal && e.Actor.Side == side:
			// The steal credit paired with the forcing turnover does not
			// interrupt the window.
		case isMiss(e.Type), e.Type == game.EventRebound, e.Type == game.EventBlock:
			return 0
		case e.Type == game.EventSteal, e.Type == game.EventTurnover:
			return 0
		case e.Type.IsScore():
			return 0
		case e.Type == game.EventQuarterStart || e.Type == game.EventQuarterStop:
			return 0
		}
	}
	return 0
}

func isMiss(t game.EventType) bool {
	switch t {
	case game.EventFGMissed, game.EventThreeMissed, game.EventFTMissed:
		return true
	}
	return false
}

func scoreValue(e *game.GameEvent) int {
	if e.Value != 0 {
		return e.Value
	}
	return e.Type.PointValue()
}
