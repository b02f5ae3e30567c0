package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/courtside/tracker/internal/game"
)

func testRoster() []*game.Player {
	return []*game.Player{
		{ID: "p1", Name: "Alvarez", Jersey: "3"},
		{ID: "p2", Name: "Brooks", Jersey: "12"},
		{ID: "p3", Name: "Chen", Jersey: "21"},
		{ID: "p4", Name: "Dawson", Jersey: "24"},
		{ID: "p5", Name: "Ellis", Jersey: "33"},
		{ID: "p6", Name: "Foster", Jersey: "40"},
	}
}

// seq stamps events with increasing timestamps so chronological order
// matches declaration order.
func seq(events ...*game.GameEvent) []*game.GameEvent {
	base := time.Date(2026, 1, 17, 19, 0, 0, 0, time.UTC)
	for i, e := range events {
		e.Timestamp = base.Add(time.Duration(i) * time.Second)
		if e.Quarter == 0 {
			e.Quarter = 1
		}
	}
	return events
}

func TestMadeTwoWithAssist(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFGMade, Value: 2,
			Metadata: game.Metadata{Paint: true, Assist: "p2"}},
		&game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventAssist},
	)

	box := Aggregate(events, testRoster(), Options{})

	scorer := box.Players["p1"]
	if scorer.Points != 2 || scorer.FGMade != 1 || scorer.FGAttempted != 1 {
		t.Errorf("scorer line = %d pts %d/%d fg, want 2 pts 1/1",
			scorer.Points, scorer.FGMade, scorer.FGAttempted)
	}
	if scorer.PlusMinus != 2 {
		t.Errorf("scorer plus-minus = %d, want 2", scorer.PlusMinus)
	}
	if scorer.PointsInPaint != 2 {
		t.Errorf("scorer points in paint = %d, want 2", scorer.PointsInPaint)
	}
	if scorer.Assists != 0 {
		t.Error("assist credited to the scorer, want the assisting player")
	}

	assister := box.Players["p2"]
	if assister.Assists != 1 {
		t.Errorf("assister assists = %d, want 1", assister.Assists)
	}
	if box.Team.Points != 2 || box.Team.Assists != 1 {
		t.Errorf("team totals = %d pts %d ast, want 2 pts 1 ast",
			box.Team.Points, box.Team.Assists)
	}
}

func TestThreeCountsAsFieldGoal(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventThreeMade, Value: 3},
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventThreeMissed},
	)

	box := Aggregate(events, testRoster(), Options{})
	line := box.Players["p1"]

	if line.ThreeMade != 1 || line.ThreeAttempted != 2 {
		t.Errorf("three line = %d/%d, want 1/2", line.ThreeMade, line.ThreeAttempted)
	}
	if line.FGMade != 1 || line.FGAttempted != 2 {
		t.Errorf("fg line = %d/%d, want 1/2 (threes are fg subtypes)", line.FGMade, line.FGAttempted)
	}
	if line.Points != 3 {
		t.Errorf("points = %d, want 3", line.Points)
	}
}

func TestFreeThrowDoesNotCountAsFieldGoal(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFTMade},
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFTMissed},
	)

	box := Aggregate(events, testRoster(), Options{})
	line := box.Players["p1"]

	if line.FTMade != 1 || line.FTAttempted != 2 {
		t.Errorf("ft line = %d/%d, want 1/2", line.FTMade, line.FTAttempted)
	}
	if line.FGAttempted != 0 {
		t.Errorf("fg attempts = %d, free throws must not count", line.FGAttempted)
	}
}

func TestPolicyPlusMinus(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventSteal},
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventTurnover},
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventTurnover},
	)

	t.Run("default weights", func(t *testing.T) {
		box := Aggregate(events, testRoster(), Options{})
		if got := box.Players["p1"].PlusMinus; got != -2 {
			t.Errorf("plus-minus = %d, want -2 (+2 steal, -2 x2 turnovers)", got)
		}
	})

	t.Run("custom weights", func(t *testing.T) {
		pol := Policy{StealPlusMinus: 3, TurnoverPlusMinus: -1}
		box := Aggregate(events, testRoster(), Options{Policy: &pol})
		if got := box.Players["p1"].PlusMinus; got != 1 {
			t.Errorf("plus-minus = %d, want 1 (+3 steal, -1 x2 turnovers)", got)
		}
	})
}

func TestReboundSplit(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p3"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundOffensive}},
		&game.GameEvent{Actor: game.HomePlayer("p3"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundDefensive}},
		&game.GameEvent{Actor: game.OpponentJersey("10"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundDefensive}},
	)

	box := Aggregate(events, testRoster(), Options{})

	line := box.Players["p3"]
	if line.ReboundsOff != 1 || line.ReboundsDef != 1 || line.Rebounds() != 2 {
		t.Errorf("rebounds = %d off %d def, want 1/1", line.ReboundsOff, line.ReboundsDef)
	}
	if box.Opponents["10"].ReboundsDef != 1 {
		t.Error("opponent rebound not attributed to jersey slot")
	}
	if box.Opponent.ReboundsDef != 1 {
		t.Error("opponent team rebound total missing")
	}
}

func TestTeamFoulRouting(t *testing.T) {
	events := seq(
		// Defensive foul in Q1: personal and team foul.
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFoul},
		// Offensive foul: personal only.
		&game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventFoul,
			Metadata: game.Metadata{Offensive: true}},
	)

	box := Aggregate(events, testRoster(), Options{})

	if box.Players["p1"].Fouls != 1 || box.Players["p2"].Fouls != 1 {
		t.Error("personal fouls must count regardless of foul type")
	}
	if box.Team.Fouls != 2 {
		t.Errorf("team personal fouls = %d, want 2", box.Team.Fouls)
	}
	if box.Team.TeamFouls != 1 {
		t.Errorf("team fouls = %d, want 1 (offensive fouls excluded)", box.Team.TeamFouls)
	}
}

func TestTeamFoulsResetAtHalftime(t *testing.T) {
	events := seq(
		&game.GameEvent{Quarter: 1, Actor: game.HomePlayer("p1"), Type: game.EventFoul},
		&game.GameEvent{Quarter: 2, Actor: game.HomePlayer("p2"), Type: game.EventFoul},
		&game.GameEvent{Quarter: 3, Actor: game.HomePlayer("p1"), Type: game.EventQuarterStart},
		&game.GameEvent{Quarter: 3, Actor: game.HomePlayer("p3"), Type: game.EventFoul},
		&game.GameEvent{Quarter: 4, Actor: game.HomePlayer("p4"), Type: game.EventFoul},
	)

	box := Aggregate(events, testRoster(), Options{})

	if box.Team.TeamFouls != 2 {
		t.Errorf("second-half team fouls = %d, want 2 (first half reset)", box.Team.TeamFouls)
	}
	if box.Team.Fouls != 4 {
		t.Errorf("personal fouls = %d, want 4 (personals never reset)", box.Team.Fouls)
	}
	if box.CurrentHalf != 2 {
		t.Errorf("current half = %d, want 2", box.CurrentHalf)
	}
}

func TestBenchPointsAgainstLockedFive(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFGMade, Value: 2},
		&game.GameEvent{Actor: game.HomePlayer("p6"), Type: game.EventThreeMade, Value: 3},
	)
	five := map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true, "p5": true}

	box := Aggregate(events, testRoster(), Options{StartingFive: five})
	if box.Team.BenchPoints != 3 {
		t.Errorf("bench points = %d, want 3", box.Team.BenchPoints)
	}

	// Without a locked five nothing is attributed.
	box = Aggregate(events, testRoster(), Options{})
	if box.Team.BenchPoints != 0 {
		t.Errorf("bench points with unlocked five = %d, want 0", box.Team.BenchPoints)
	}
}

func TestSecondChanceAndOffTurnoverTags(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFGMade, Value: 2,
			Metadata: game.Metadata{SecondChance: true}},
		&game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventThreeMade, Value: 3,
			Metadata: game.Metadata{OffTurnover: true}},
	)

	box := Aggregate(events, testRoster(), Options{})
	if box.Team.SecondChancePoints != 2 {
		t.Errorf("second-chance points = %d, want 2", box.Team.SecondChancePoints)
	}
	if box.Team.PointsOffTurnovers != 3 {
		t.Errorf("points off turnovers = %d, want 3", box.Team.PointsOffTurnovers)
	}
}

func TestChargesAndDeflections(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p5"), Type: game.EventChargeTaken},
		&game.GameEvent{Actor: game.HomePlayer("p5"), Type: game.EventDeflection},
		&game.GameEvent{Actor: game.HomePlayer("p5"), Type: game.EventDeflection},
	)

	box := Aggregate(events, testRoster(), Options{})
	line := box.Players["p5"]
	if line.ChargesTaken != 1 || line.Deflections != 2 {
		t.Errorf("hustle stats = %d chg %d defl, want 1/2", line.ChargesTaken, line.Deflections)
	}
}

func TestZeroAttemptPercentages(t *testing.T) {
	box := Aggregate(nil, testRoster(), Options{})
	line := box.Players["p1"]

	if got := line.FGPercent(); got != 0 {
		t.Errorf("FGPercent with no attempts = %v, want 0", got)
	}
	if got := line.ThreePercent(); got != 0 {
		t.Errorf("ThreePercent with no attempts = %v, want 0", got)
	}
	if got := line.FTPercent(); got != 0 {
		t.Errorf("FTPercent with no attempts = %v, want 0", got)
	}
}

// TestReplayIsIdempotent folds the same log twice and demands identical
// output, the property that makes resume-and-replay safe.
func TestReplayIsIdempotent(t *testing.T) {
	events := seq(
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFGMade, Value: 2,
			Metadata: game.Metadata{Paint: true}},
		&game.GameEvent{Actor: game.HomePlayer("p2"), Type: game.EventAssist},
		&game.GameEvent{Actor: game.OpponentJersey("10"), Type: game.EventThreeMade, Value: 3},
		&game.GameEvent{Actor: game.HomePlayer("p3"), Type: game.EventSteal},
		&game.GameEvent{Actor: game.OpponentJersey("12"), Type: game.EventTurnover},
		&game.GameEvent{Actor: game.HomePlayer("p1"), Type: game.EventFoul},
	)
	opts := Options{StartingFive: map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true, "p5": true}}

	first := Aggregate(events, testRoster(), opts)
	second := Aggregate(events, testRoster(), opts)

	if !reflect.DeepEqual(first, second) {
		t.Error("two folds over the same log disagree")
	}
}

// TestRevertIsExactInverse applies an event, reverts it, and demands the
// box score molecule-for-molecule equal to never having applied it.
func TestRevertIsExactInverse(t *testing.T) {
	roster := testRoster()
	opts := Options{StartingFive: map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true, "p5": true}}
	pol := DefaultPolicy()

	cases := []struct {
		name  string
		event *game.GameEvent
	}{
		{"made two with tags", &game.GameEvent{Quarter: 1, Actor: game.HomePlayer("p6"), Type: game.EventFGMade, Value: 2,
			Metadata: game.Metadata{Paint: true, SecondChance: true}}},
		{"made three off turnover", &game.GameEvent{Quarter: 1, Actor: game.HomePlayer("p1"), Type: game.EventThreeMade, Value: 3,
			Metadata: game.Metadata{OffTurnover: true}}},
		{"free throw", &game.GameEvent{Quarter: 2, Actor: game.HomePlayer("p2"), Type: game.EventFTMade}},
		{"steal", &game.GameEvent{Quarter: 1, Actor: game.HomePlayer("p3"), Type: game.EventSteal}},
		{"turnover", &game.GameEvent{Quarter: 1, Actor: game.OpponentJersey("10"), Type: game.EventTurnover}},
		{"defensive foul", &game.GameEvent{Quarter: 1, Actor: game.HomePlayer("p4"), Type: game.EventFoul}},
		{"offensive rebound", &game.GameEvent{Quarter: 1, Actor: game.HomePlayer("p5"), Type: game.EventRebound,
			Metadata: game.Metadata{Rebound: game.ReboundOffensive}}},
		{"timeout", &game.GameEvent{Quarter: 1, Actor: game.HomeTeam(), Type: game.EventTimeout}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pristine := Aggregate(nil, roster, opts)
			box := Aggregate(nil, roster, opts)

			ApplyEvent(box, tc.event, Apply, pol, opts)
			ApplyEvent(box, tc.event, Revert, pol, opts)

			if !reflect.DeepEqual(pristine, box) {
				t.Errorf("apply+revert left residue: %+v vs %+v", box, pristine)
			}
		})
	}
}
