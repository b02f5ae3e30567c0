package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/courtside/tracker/internal/game"
)

// ErrInvalidLineup is returned when an operation requires exactly five
// players on court and the count is off.
var ErrInvalidLineup = errors.New("lineup must field exactly five players")

// LockStartingFive fixes the starting five for bench-points purposes and
// opens the first lineup interval. The lock is one-shot: later substitutions
// never reclassify who counts as a starter.
func (t *Tracker) LockStartingFive(playerIDs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(playerIDs) != game.RosterSize {
		return ErrInvalidLineup
	}
	if t.fiveLocked {
		return errors.New("starting five already locked")
	}
	for _, id := range playerIDs {
		p, ok := t.rosterByID[id]
		if !ok {
			return fmt.Errorf("player %s not on roster", id)
		}
		p.Starter = true
	}

	t.startingFive = make(map[string]bool, game.RosterSize)
	t.onCourt = make(map[string]bool, game.RosterSize)
	for _, id := range playerIDs {
		t.startingFive[id] = true
		t.onCourt[id] = true
	}
	t.fiveLocked = true
	t.openLineupLocked()
	t.reaggregateLocked()
	return nil
}

// SetOpponentStartingFive records the opponent jerseys that count as
// starters; opponent scores by any other jersey are bench points.
func (t *Tracker) SetOpponentStartingFive(jerseys []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.oppStartingFive = make(map[string]bool, len(jerseys))
	for _, j := range jerseys {
		t.oppStartingFive[j] = true
	}
}

// SubstitutePlayers swaps outID for inID, closing the current lineup
// interval and opening a new one. Both halves of the swap are recorded as
// events so replay reconstructs on-court state.
func (t *Tracker) SubstitutePlayers(outID, inID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.onCourt[outID] {
		return fmt.Errorf("player %s is not on court", outID)
	}
	if t.onCourt[inID] {
		return fmt.Errorf("player %s is already on court", inID)
	}
	if _, ok := t.rosterByID[inID]; !ok {
		return fmt.Errorf("player %s not on roster", inID)
	}

	t.applySubstitutionLocked(outID, inID)
	t.history.Push("substitution", func() error {
		if !t.onCourt[inID] || t.onCourt[outID] {
			return errors.New("court state changed since substitution")
		}
		t.applySubstitutionLocked(inID, outID)
		t.reaggregateLocked()
		return nil
	})
	t.reaggregateLocked()
	return nil
}

func (t *Tracker) applySubstitutionLocked(outID, inID string) {
	t.closeLineupLocked()
	delete(t.onCourt, outID)
	t.onCourt[inID] = true
	t.openLineupLocked()

	t.appendLocked(&game.GameEvent{
		Quarter:        t.gameState.Quarter,
		GameTimeOffset: t.gameTimeOffsetLocked(),
		Actor:          game.HomePlayer(outID),
		Type:           game.EventSubOut,
	})
	t.appendLocked(&game.GameEvent{
		Quarter:        t.gameState.Quarter,
		GameTimeOffset: t.gameTimeOffsetLocked(),
		Actor:          game.HomePlayer(inID),
		Type:           game.EventSubIn,
	})
}

// openLineupLocked starts a lineup interval for the current on-court five
// and snapshots each member's plus-minus as the interval baseline.
func (t *Tracker) openLineupLocked() {
	ids := make([]string, 0, game.RosterSize)
	for id := range t.onCourt {
		ids = append(ids, id)
	}
	t.lineups = append(t.lineups, &game.Lineup{
		PlayerIDs: ids,
		Start:     time.Now(),
	})
	t.lineupBaseline = t.plusMinusSnapshotLocked(ids)
}

// closeLineupLocked finalizes the open lineup's plus-minus as the sum of
// each member's accrual since the interval opened.
func (t *Tracker) closeLineupLocked() {
	if len(t.lineups) == 0 {
		return
	}
	lu := t.lineups[len(t.lineups)-1]
	if !lu.Open() {
		return
	}
	lu.End = time.Now()
	current := t.plusMinusSnapshotLocked(lu.PlayerIDs)
	for _, id := range lu.PlayerIDs {
		lu.PlusMinus += current[id] - t.lineupBaseline[id]
	}
}

func (t *Tracker) plusMinusSnapshotLocked(ids []string) map[string]int {
	snap := make(map[string]int, len(ids))
	for _, id := range ids {
		if p, ok := t.box.Players[id]; ok {
			snap[id] = p.PlusMinus
		}
	}
	return snap
}

// StartClock starts play. The first start requires a locked five on court.
func (t *Tracker) StartClock() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gameState.Ended {
		return errors.New("game has ended")
	}
	if len(t.onCourt) != game.RosterSize {
		return ErrInvalidLineup
	}
	if t.gameState.Playing {
		return nil
	}
	t.gameState.Playing = true
	t.gameState.Started = true
	if t.quarterStartedAt.IsZero() {
		t.quarterStartedAt = time.Now()
		t.appendLocked(&game.GameEvent{
			Quarter: t.gameState.Quarter,
			Actor:   game.HomeTeam(),
			Type:    game.EventQuarterStart,
		})
	}
	return nil
}

// StopClock pauses play without ending the quarter.
func (t *Tracker) StopClock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gameState.Playing = false
}

// AdvanceQuarter closes the current quarter and opens the next. Moving past
// regulation flips into overtime; moving past halftime resets team fouls
// (handled inside the aggregation fold when the quarter_started event
// lands).
func (t *Tracker) AdvanceQuarter() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gameState.Ended {
		return errors.New("game has ended")
	}
	if len(t.onCourt) != game.RosterSize {
		return ErrInvalidLineup
	}

	prevQuarter := t.gameState.Quarter
	prevStarted := t.quarterStartedAt

	stopID := t.appendLocked(&game.GameEvent{
		Quarter: prevQuarter,
		Actor:   game.HomeTeam(),
		Type:    game.EventQuarterStop,
	})

	t.gameState.Quarter++
	if t.gameState.Quarter > t.cfg.Tracker.Quarters {
		t.gameState.Overtime = true
		t.gameState.OvertimeNumber = t.gameState.Quarter - t.cfg.Tracker.Quarters
	}
	t.quarterStartedAt = time.Now()
	t.possession.Reset()

	startID := t.appendLocked(&game.GameEvent{
		Quarter: t.gameState.Quarter,
		Actor:   game.HomeTeam(),
		Type:    game.EventQuarterStart,
	})

	t.history.Push("advance quarter", func() error {
		t.gameState.Quarter = prevQuarter
		t.gameState.Overtime = prevQuarter > t.cfg.Tracker.Quarters
		if t.gameState.Overtime {
			t.gameState.OvertimeNumber = prevQuarter - t.cfg.Tracker.Quarters
		} else {
			t.gameState.OvertimeNumber = 0
		}
		t.quarterStartedAt = prevStarted
		// The boundary events must leave the fold too, or the halftime
		// team-foul reset they trigger would survive the undo.
		if err := t.deleteEventLocked(startID); err != nil {
			return err
		}
		return t.deleteEventLocked(stopID)
	})

	t.reaggregateLocked()
	return nil
}

// Timeout charges a timeout to the given side.
func (t *Tracker) Timeout(side game.Side) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := &t.gameState.HomeTimeouts
	if side == game.SideOpponent {
		remaining = &t.gameState.OpponentTimeouts
	}
	if *remaining <= 0 {
		return fmt.Errorf("%s side has no timeouts remaining", side)
	}
	*remaining--

	actor := game.HomeTeam()
	if side == game.SideOpponent {
		actor = game.OpponentTeam()
	}
	id := t.appendLocked(&game.GameEvent{
		Quarter:        t.gameState.Quarter,
		GameTimeOffset: t.gameTimeOffsetLocked(),
		Actor:          actor,
		Type:           game.EventTimeout,
	})

	t.history.Push("timeout", func() error {
		*remaining++
		return t.deleteEventLocked(id)
	})
	t.reaggregateLocked()
	return nil
}
