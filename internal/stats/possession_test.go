package stats

import (
	"testing"

	"github.com/courtside/tracker/internal/game"
)

// observeAll runs the sequence through a fresh tracker in order, the way the
// engine observes events as they are recorded.
func observeAll(events []*game.GameEvent) *PossessionTracker {
	pt := NewPossessionTracker()
	for _, e := range events {
		pt.Observe(e)
	}
	return pt
}

func TestSecondChanceWindow(t *testing.T) {
	miss := &game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFGMissed}
	oreb := &game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventRebound,
		Metadata: game.Metadata{Rebound: game.ReboundOffensive}}
	putback := &game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventFGMade, Value: 2}

	observeAll([]*game.GameEvent{miss, oreb, putback})

	if !putback.Metadata.SecondChance {
		t.Error("putback after own miss and offensive rebound must be tagged second-chance")
	}
}

func TestSecondChanceClosedByDefensiveRebound(t *testing.T) {
	events := []*game.GameEvent{
		{Actor: game.HomePlayer("p1"), Type: game.EventFGMissed},
		{Actor: game.OpponentJersey("10"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundDefensive}},
		{Actor: game.OpponentJersey("10"), Type: game.EventTurnover},
		{Actor: game.HomePlayer("p2"), Type: game.EventFGMade, Value: 2},
	}
	observeAll(events)

	score := events[3]
	if score.Metadata.SecondChance {
		t.Error("score after losing the rebound must not be second-chance")
	}
	// But it does come off the opponent's turnover.
	if !score.Metadata.OffTurnover {
		t.Error("score after forcing a turnover must be tagged points-off-turnover")
	}
}

func TestSecondChanceVoidedByInterveningOpponentAction(t *testing.T) {
	events := []*game.GameEvent{
		{Actor: game.HomePlayer("p1"), Type: game.EventFGMissed},
		// A foul on the other side intervenes before the board.
		{Actor: game.OpponentJersey("23"), Type: game.EventFoul},
		{Actor: game.HomePlayer("p2"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundOffensive}},
		{Actor: game.HomePlayer("p2"), Type: game.EventFGMade, Value: 2},
	}
	observeAll(events)

	if events[3].Metadata.SecondChance {
		t.Error("intervening opponent action voids second-chance eligibility")
	}
}

func TestPointsOffTurnoverWindow(t *testing.T) {
	events := []*game.GameEvent{
		{Actor: game.OpponentJersey("11"), Type: game.EventTurnover},
		{Actor: game.HomePlayer("p3"), Type: game.EventThreeMade, Value: 3},
	}
	observeAll(events)

	if !events[1].Metadata.OffTurnover {
		t.Error("score directly after opponent turnover must be tagged")
	}
}

// A steal recorded as the companion of its turnover must not close the
// window the turnover just opened for the stealing side.
func TestCompanionStealKeepsWindowOpen(t *testing.T) {
	events := []*game.GameEvent{
		{Actor: game.OpponentJersey("11"), Type: game.EventTurnover},
		{Actor: game.HomePlayer("p3"), Type: game.EventSteal},
		{Actor: game.HomePlayer("p3"), Type: game.EventFGMade, Value: 2},
	}
	observeAll(events)

	if !events[2].Metadata.OffTurnover {
		t.Error("companion steal must not close the forcing side's window")
	}
}

func TestWindowClosedByMissedAttempt(t *testing.T) {
	events := []*game.GameEvent{
		{Actor: game.OpponentJersey("11"), Type: game.EventTurnover},
		{Actor: game.HomePlayer("p3"), Type: game.EventFGMissed},
		{Actor: game.HomePlayer("p4"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundOffensive}},
		{Actor: game.HomePlayer("p4"), Type: game.EventFGMade, Value: 2},
	}
	observeAll(events)

	score := events[3]
	if score.Metadata.OffTurnover {
		t.Error("a missed attempt ends the points-off-turnover window")
	}
	// The offensive rebound opened a second-chance window instead.
	if !score.Metadata.SecondChance {
		t.Error("putback after offensive rebound must still be second-chance")
	}
}

// Replay drives the state machine for hydration without rewriting history:
// an untagged made basket must stay untagged even when the event that voided
// its window is no longer in the replayed log.
func TestReplayNeverRetagsRecordedEvents(t *testing.T) {
	miss := &game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFGMissed}
	oreb := &game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventRebound,
		Metadata: game.Metadata{Rebound: game.ReboundOffensive}}
	putback := &game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventFGMade, Value: 2}

	pt := NewPossessionTracker()
	for _, e := range []*game.GameEvent{miss, oreb, putback} {
		pt.Replay(e)
	}

	if putback.Metadata.SecondChance {
		t.Error("replay mutated recorded metadata")
	}
	// The rebuilt window state itself is live: a new observation still tags.
	followUp := &game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventFGMade, Value: 2}
	pt2 := NewPossessionTracker()
	pt2.Replay(miss)
	pt2.Replay(oreb)
	pt2.Observe(followUp)
	if !followUp.Metadata.SecondChance {
		t.Error("replayed window state must stay live for newly observed events")
	}
}

func TestQuarterBoundaryClosesWindows(t *testing.T) {
	events := []*game.GameEvent{
		{Actor: game.OpponentJersey("11"), Type: game.EventTurnover},
		{Actor: game.HomeTeam(), Type: game.EventQuarterStop, Quarter: 1},
		{Actor: game.HomeTeam(), Type: game.EventQuarterStart, Quarter: 2},
		{Actor: game.HomePlayer("p1"), Type: game.EventFGMade, Value: 2},
	}
	observeAll(events)

	if events[3].Metadata.OffTurnover {
		t.Error("windows must not survive a quarter boundary")
	}
}

func TestMadeBasketEndsPossession(t *testing.T) {
	pt := observeAll([]*game.GameEvent{
		{Actor: game.HomePlayer("p1"), Type: game.EventFGMade, Value: 2},
	})
	if pt.LastPossession() != game.SideOpponent {
		t.Error("a made basket hands possession to the other side")
	}
}

// TestScanAgreesWithLiveTags re-derives window totals with the independent
// chronological scans and checks they match the tags baked at record time
// for the same sequence.
func TestScanAgreesWithLiveTags(t *testing.T) {
	events := []*game.GameEvent{
		{Actor: game.HomePlayer("p1"), Type: game.EventFGMissed},
		{Actor: game.HomePlayer("p2"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundOffensive}},
		{Actor: game.HomePlayer("p2"), Type: game.EventFGMade, Value: 2},
		{Actor: game.OpponentJersey("11"), Type: game.EventTurnover},
		{Actor: game.HomePlayer("p3"), Type: game.EventSteal},
		{Actor: game.HomePlayer("p3"), Type: game.EventThreeMade, Value: 3},
		{Actor: game.OpponentJersey("10"), Type: game.EventFGMissed},
		{Actor: game.OpponentJersey("12"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundOffensive}},
		{Actor: game.OpponentJersey("12"), Type: game.EventFGMade, Value: 2},
	}
	observeAll(events)

	liveSCP := map[game.Side]int{}
	livePTO := map[game.Side]int{}
	for _, e := range events {
		if !e.Type.IsScore() {
			continue
		}
		v := e.Value
		if e.Metadata.SecondChance {
			liveSCP[e.Actor.Side] += v
		}
		if e.Metadata.OffTurnover {
			livePTO[e.Actor.Side] += v
		}
	}

	for _, side := range []game.Side{game.SideHome, game.SideOpponent} {
		if got := SecondChancePointsScan(events, side); got != liveSCP[side] {
			t.Errorf("%s second-chance scan = %d, live tags = %d", side, got, liveSCP[side])
		}
		if got := PointsOffTurnoversScan(events, side); got != livePTO[side] {
			t.Errorf("%s points-off-turnover scan = %d, live tags = %d", side, got, livePTO[side])
		}
	}
}
