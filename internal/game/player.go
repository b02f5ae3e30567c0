package game

import "time"

// StatLine holds the counting stats derived for one player or opponent jersey
// slot. Every field is a fold of non-deleted events; nothing outside the
// aggregator may write to these.
type StatLine struct {
	Points         int `json:"points"`
	ReboundsOff    int `json:"reboundsOff"`
	ReboundsDef    int `json:"reboundsDef"`
	Assists        int `json:"assists"`
	Steals         int `json:"steals"`
	Blocks         int `json:"blocks"`
	Fouls          int `json:"fouls"`
	Turnovers      int `json:"turnovers"`
	FGMade         int `json:"fgMade"`
	FGAttempted    int `json:"fgAttempted"`
	ThreeMade      int `json:"threeMade"`
	ThreeAttempted int `json:"threeAttempted"`
	FTMade         int `json:"ftMade"`
	FTAttempted    int `json:"ftAttempted"`
	PlusMinus      int `json:"plusMinus"`
	ChargesTaken   int `json:"chargesTaken"`
	Deflections    int `json:"deflections"`
	PointsInPaint  int `json:"pointsInPaint"`
}

// Rebounds returns the combined rebound total.
func (s *StatLine) Rebounds() int {
	return s.ReboundsOff + s.ReboundsDef
}

// FGPercent returns the field goal percentage, 0 when nothing was attempted.
func (s *StatLine) FGPercent() float64 {
	return percent(s.FGMade, s.FGAttempted)
}

// ThreePercent returns the three-point percentage, 0 when nothing was attempted.
func (s *StatLine) ThreePercent() float64 {
	return percent(s.ThreeMade, s.ThreeAttempted)
}

// FTPercent returns the free throw percentage, 0 when nothing was attempted.
func (s *StatLine) FTPercent() float64 {
	return percent(s.FTMade, s.FTAttempted)
}

// percent computes made/attempted as a percentage with explicit zero-attempt
// handling: 0 attempted means 0%, never NaN.
func percent(made, attempted int) float64 {
	if attempted == 0 {
		return 0
	}
	return float64(made) / float64(attempted) * 100
}

// Player is the mutable projection of one rostered player. Identity fields
// come from the roster store; everything in StatLine is rebuilt from the
// event log.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Jersey   string `json:"jerseyNumber"`
	Position string `json:"position"`

	OnCourt bool `json:"isOnCourt"`
	Starter bool `json:"isStarter"` // fixed at first lineup lock

	StatLine
}

// OpponentSlot shadows Player for an opponent jersey number. Opponents are
// not persistent entities; fouls and stats attach to the jersey slot and
// survive a different player rotating through it.
type OpponentSlot struct {
	Jersey  string `json:"jerseyNumber"`
	OnCourt bool   `json:"isOnCourt"`

	StatLine
}

// Lineup is a set of exactly five player ids on court for a contiguous
// wall-clock interval. The open lineup has a zero End; ending a lineup
// finalizes its plus-minus snapshot.
type Lineup struct {
	PlayerIDs []string  `json:"playerIds"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end,omitempty"`
	PlusMinus int       `json:"plusMinus"`
}

// Open reports whether the lineup interval is still running.
func (l *Lineup) Open() bool {
	return l.End.IsZero()
}

// Contains reports whether the lineup fields the given player.
func (l *Lineup) Contains(playerID string) bool {
	for _, id := range l.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// GameState is the single mutable record of running game context. Scores and
// team fouls are mirrors of the event-log fold, kept for fast access.
type GameState struct {
	Quarter           int  `json:"quarter"`
	HomeScore         int  `json:"homeScore"`
	OpponentScore     int  `json:"opponentScore"`
	HomeTimeouts      int  `json:"homeTimeouts"`
	OpponentTimeouts  int  `json:"opponentTimeouts"`
	HomeTeamFouls     int  `json:"homeTeamFouls"`     // reset at halftime, not per quarter
	OpponentTeamFouls int  `json:"opponentTeamFouls"` // reset at halftime, not per quarter
	Overtime          bool `json:"isOvertime"`
	OvertimeNumber    int  `json:"overtimeNumber"`
	Playing           bool `json:"isPlaying"`
	Started           bool `json:"isGameStarted"`
	Ended             bool `json:"isGameEnded"`
}

// RosterSize is the number of players fielded at any time.
const RosterSize = 5
