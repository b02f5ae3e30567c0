package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/stats"
)

// PlayerRow is one box score line in an exported report.
type PlayerRow struct {
	Name         string  `json:"name" csv:"Name"`
	Jersey       string  `json:"jersey" csv:"No."`
	Starter      bool    `json:"starter" csv:"Starter"`
	Points       int     `json:"points" csv:"PTS"`
	ReboundsOff  int     `json:"reboundsOff" csv:"OREB"`
	ReboundsDef  int     `json:"reboundsDef" csv:"DREB"`
	Rebounds     int     `json:"rebounds" csv:"REB"`
	Assists      int     `json:"assists" csv:"AST"`
	Steals       int     `json:"steals" csv:"STL"`
	Blocks       int     `json:"blocks" csv:"BLK"`
	Turnovers    int     `json:"turnovers" csv:"TO"`
	Fouls        int     `json:"fouls" csv:"PF"`
	ChargesTaken int     `json:"chargesTaken" csv:"CHG"`
	Deflections  int     `json:"deflections" csv:"DEFL"`
	FGMade       int     `json:"fgMade" csv:"FGM"`
	FGAttempted  int     `json:"fgAttempted" csv:"FGA"`
	FGPercent    float64 `json:"fgPercent" csv:"FG%"`
	ThreeMade    int     `json:"threeMade" csv:"3PM"`
	ThreeAttempt int     `json:"threeAttempted" csv:"3PA"`
	ThreePercent float64 `json:"threePercent" csv:"3P%"`
	FTMade       int     `json:"ftMade" csv:"FTM"`
	FTAttempted  int     `json:"ftAttempted" csv:"FTA"`
	FTPercent    float64 `json:"ftPercent" csv:"FT%"`
	PlusMinus    int     `json:"plusMinus" csv:"+/-"`
	Efficiency   int     `json:"efficiency" csv:"EFF"`
}

// TeamSummary is the team-level section of a report.
type TeamSummary struct {
	Name               string  `json:"name"`
	Points             int     `json:"points"`
	Rebounds           int     `json:"rebounds"`
	Assists            int     `json:"assists"`
	Steals             int     `json:"steals"`
	Blocks             int     `json:"blocks"`
	Turnovers          int     `json:"turnovers"`
	TeamFouls          int     `json:"teamFouls"`
	FGPercent          float64 `json:"fgPercent"`
	ThreePercent       float64 `json:"threePercent"`
	FTPercent          float64 `json:"ftPercent"`
	SecondChancePoints int     `json:"secondChancePoints"`
	PointsOffTurnovers int     `json:"pointsOffTurnovers"`
	BenchPoints        int     `json:"benchPoints"`
	PointsInPaint      int     `json:"pointsInPaint"`
}

// Report is a complete exportable box score.
type Report struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Quarter     int            `json:"quarter"`
	Final       bool           `json:"final"`
	Team        TeamSummary    `json:"team"`
	Opponent    TeamSummary    `json:"opponent"`
	Players     []PlayerRow    `json:"players"`
	Opponents   []PlayerRow    `json:"opponents"`
	Lineups     []*game.Lineup `json:"lineups,omitempty"`
}

// BuildReport assembles a report from a folded box score and the event log
// it was folded from. Second-chance and points-off-turnover totals are
// recomputed by chronological scan, independent of the tags baked at record
// time.
func BuildReport(box *stats.BoxScore, events []*game.GameEvent, teamName, opponentName string, gs game.GameState) *Report {
	r := &Report{
		GeneratedAt: time.Now(),
		Quarter:     gs.Quarter,
		Final:       gs.Ended,
	}

	r.Team = teamSummary(teamName, &box.Team)
	r.Team.SecondChancePoints = stats.SecondChancePointsScan(events, game.SideHome)
	r.Team.PointsOffTurnovers = stats.PointsOffTurnoversScan(events, game.SideHome)

	r.Opponent = teamSummary(opponentName, &box.Opponent)
	r.Opponent.SecondChancePoints = stats.SecondChancePointsScan(events, game.SideOpponent)
	r.Opponent.PointsOffTurnovers = stats.PointsOffTurnoversScan(events, game.SideOpponent)

	for _, p := range box.Players {
		row := playerRow(p.Name, p.Jersey, p.Starter, &p.StatLine)
		r.Players = append(r.Players, row)
	}
	sort.Slice(r.Players, func(i, j int) bool {
		if r.Players[i].Starter != r.Players[j].Starter {
			return r.Players[i].Starter
		}
		return r.Players[i].Jersey < r.Players[j].Jersey
	})

	for jersey, slot := range box.Opponents {
		row := playerRow("#"+jersey, jersey, false, &slot.StatLine)
		r.Opponents = append(r.Opponents, row)
	}
	sort.Slice(r.Opponents, func(i, j int) bool {
		return r.Opponents[i].Jersey < r.Opponents[j].Jersey
	})

	return r
}

func playerRow(name, jersey string, starter bool, s *game.StatLine) PlayerRow {
	return PlayerRow{
		Name:         name,
		Jersey:       jersey,
		Starter:      starter,
		Points:       s.Points,
		ReboundsOff:  s.ReboundsOff,
		ReboundsDef:  s.ReboundsDef,
		Rebounds:     s.Rebounds(),
		Assists:      s.Assists,
		Steals:       s.Steals,
		Blocks:       s.Blocks,
		Turnovers:    s.Turnovers,
		Fouls:        s.Fouls,
		ChargesTaken: s.ChargesTaken,
		Deflections:  s.Deflections,
		FGMade:       s.FGMade,
		FGAttempted:  s.FGAttempted,
		FGPercent:    s.FGPercent(),
		ThreeMade:    s.ThreeMade,
		ThreeAttempt: s.ThreeAttempted,
		ThreePercent: s.ThreePercent(),
		FTMade:       s.FTMade,
		FTAttempted:  s.FTAttempted,
		FTPercent:    s.FTPercent(),
		PlusMinus:    s.PlusMinus,
		Efficiency:   stats.Efficiency(s),
	}
}

func teamSummary(name string, ts *stats.TeamStats) TeamSummary {
	return TeamSummary{
		Name:          name,
		Points:        ts.Points,
		Rebounds:      ts.Rebounds(),
		Assists:       ts.Assists,
		Steals:        ts.Steals,
		Blocks:        ts.Blocks,
		Turnovers:     ts.Turnovers,
		TeamFouls:     ts.TeamFouls,
		FGPercent:     ts.FGPercent(),
		ThreePercent:  ts.ThreePercent(),
		FTPercent:     ts.FTPercent(),
		BenchPoints:   ts.BenchPoints,
		PointsInPaint: ts.PointsInPaint,
	}
}

// TeamRow renders the home team totals as a summary row for CSV export.
func (r *Report) TeamRow() PlayerRow {
	return summaryRow(r.Team)
}

// OpponentRow renders the opponent totals as a summary row for CSV export.
func (r *Report) OpponentRow() PlayerRow {
	return summaryRow(r.Opponent)
}

func summaryRow(ts TeamSummary) PlayerRow {
	return PlayerRow{
		Name:         "TOTAL " + ts.Name,
		Points:       ts.Points,
		Rebounds:     ts.Rebounds,
		Assists:      ts.Assists,
		Steals:       ts.Steals,
		Blocks:       ts.Blocks,
		Turnovers:    ts.Turnovers,
		Fouls:        ts.TeamFouls,
		FGPercent:    ts.FGPercent,
		ThreePercent: ts.ThreePercent,
		FTPercent:    ts.FTPercent,
	}
}

// writeText renders the MaxPreps-style plain-text report.
func (r *Report) writeText(w io.Writer) error {
	var b strings.Builder

	status := fmt.Sprintf("Q%d", r.Quarter)
	if r.Final {
		status = "FINAL"
	}
	fmt.Fprintf(&b, "%s %d - %d %s (%s)\n", r.Team.Name, r.Team.Points, r.Opponent.Points, r.Opponent.Name, status)
	fmt.Fprintf(&b, "Generated %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "%-22s %4s %4s %4s %4s %4s %4s %4s %6s %6s %6s %4s\n",
		"PLAYER", "PTS", "REB", "AST", "STL", "BLK", "TO", "PF", "FG", "3PT", "FT", "+/-")
	for _, row := range r.Players {
		name := row.Name
		if row.Starter {
			name += " *"
		}
		fmt.Fprintf(&b, "%-22s %4d %4d %4d %4d %4d %4d %4d %6s %6s %6s %+4d\n",
			name, row.Points, row.Rebounds, row.Assists, row.Steals, row.Blocks,
			row.Turnovers, row.Fouls,
			fmt.Sprintf("%d/%d", row.FGMade, row.FGAttempted),
			fmt.Sprintf("%d/%d", row.ThreeMade, row.ThreeAttempt),
			fmt.Sprintf("%d/%d", row.FTMade, row.FTAttempted),
			row.PlusMinus)
	}

	fmt.Fprintf(&b, "\nTEAM TOTALS\n")
	for _, ts := range []TeamSummary{r.Team, r.Opponent} {
		fmt.Fprintf(&b, "%-22s %4d pts  %3d reb  %3d ast  FG %.1f%%  3PT %.1f%%  FT %.1f%%\n",
			ts.Name, ts.Points, ts.Rebounds, ts.Assists, ts.FGPercent, ts.ThreePercent, ts.FTPercent)
		fmt.Fprintf(&b, "%-22s 2nd chance %d  off turnovers %d  bench %d  in paint %d  team fouls %d\n",
			"", ts.SecondChancePoints, ts.PointsOffTurnovers, ts.BenchPoints, ts.PointsInPaint, ts.TeamFouls)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
