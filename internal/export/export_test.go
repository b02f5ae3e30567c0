package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/stats"
)

func reportFixture(t *testing.T) (*Report, []*game.GameEvent) {
	t.Helper()
	roster := []*game.Player{
		{ID: "p1", Name: "Alvarez", Jersey: "3"},
		{ID: "p2", Name: "Brooks", Jersey: "11"},
		{ID: "p3", Name: "Chen", Jersey: "21"},
		{ID: "p4", Name: "Dawson", Jersey: "24"},
		{ID: "p5", Name: "Ellis", Jersey: "32"},
	}
	base := time.Date(2026, 2, 6, 19, 0, 0, 0, time.UTC)
	at := func(i int) time.Time { return base.Add(time.Duration(i) * time.Second) }
	events := []*game.GameEvent{
		{ID: "e1", Timestamp: at(1), Quarter: 1, Actor: game.HomePlayer("p1"), Type: game.EventFGMade, Value: 2},
		{ID: "e2", Timestamp: at(2), Quarter: 1, Actor: game.HomePlayer("p2"), Type: game.EventAssist},
		{ID: "e3", Timestamp: at(3), Quarter: 1, Actor: game.OpponentJersey("15"), Type: game.EventTurnover},
		{ID: "e4", Timestamp: at(4), Quarter: 1, Actor: game.HomePlayer("p1"), Type: game.EventThreeMade, Value: 3},
		{ID: "e5", Timestamp: at(5), Quarter: 1, Actor: game.OpponentJersey("15"), Type: game.EventFGMade, Value: 2},
	}
	box := stats.Aggregate(events, roster, stats.Options{
		StartingFive: map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true, "p5": true},
	})
	gs := game.GameState{Quarter: 1, HomeScore: 5, OpponentScore: 2}
	return BuildReport(box, events, "Ridgeview", "Eastside", gs), events
}

func TestBuildReportTotals(t *testing.T) {
	r, _ := reportFixture(t)

	if r.Team.Points != 5 {
		t.Errorf("team points = %d, want 5", r.Team.Points)
	}
	if r.Opponent.Points != 2 {
		t.Errorf("opponent points = %d, want 2", r.Opponent.Points)
	}
	// The three came on the possession after the opponent turnover.
	if r.Team.PointsOffTurnovers != 3 {
		t.Errorf("points off turnovers = %d, want 3", r.Team.PointsOffTurnovers)
	}
	if len(r.Players) != 5 {
		t.Fatalf("%d player rows, want 5", len(r.Players))
	}
	if len(r.Opponents) != 1 || r.Opponents[0].Jersey != "15" {
		t.Errorf("opponent rows = %+v, want one row for #15", r.Opponents)
	}
}

func TestBuildReportSortsStartersFirst(t *testing.T) {
	roster := []*game.Player{
		{ID: "p1", Name: "Alvarez", Jersey: "3", Starter: false},
		{ID: "p2", Name: "Brooks", Jersey: "11", Starter: true},
	}
	box := stats.Aggregate(nil, roster, stats.Options{})
	r := BuildReport(box, nil, "Ridgeview", "Eastside", game.GameState{Quarter: 1})
	if !r.Players[0].Starter || r.Players[0].Name != "Brooks" {
		t.Errorf("first row = %+v, want the starter", r.Players[0])
	}
}

func TestExportJSON(t *testing.T) {
	r, _ := reportFixture(t)
	var buf bytes.Buffer
	exp := NewExporter(Options{Format: FormatJSON, Writer: &buf})
	if err := exp.Export(r); err != nil {
		t.Fatalf("export: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode exported JSON: %v", err)
	}
	if decoded.Team.Points != r.Team.Points {
		t.Errorf("decoded team points = %d, want %d", decoded.Team.Points, r.Team.Points)
	}
	if len(decoded.Players) != len(r.Players) {
		t.Errorf("decoded %d players, want %d", len(decoded.Players), len(r.Players))
	}
}

func TestExportCSV(t *testing.T) {
	r, _ := reportFixture(t)
	var buf bytes.Buffer
	exp := NewExporter(Options{Format: FormatCSV, Writer: &buf})
	if err := exp.Export(r); err != nil {
		t.Fatalf("export: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	// Header, five players, two summary rows.
	if len(rows) != 8 {
		t.Fatalf("%d CSV rows, want 8", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][3] != "PTS" {
		t.Errorf("header = %v", rows[0])
	}
	last := rows[len(rows)-1]
	if !strings.HasPrefix(last[0], "TOTAL ") {
		t.Errorf("last row = %v, want an opponent summary", last)
	}
}

func TestExportTextReport(t *testing.T) {
	r, _ := reportFixture(t)
	var buf bytes.Buffer
	exp := NewExporter(Options{Format: FormatText, Writer: &buf})
	if err := exp.Export(r); err != nil {
		t.Fatalf("export: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Ridgeview 5 - 2 Eastside (Q1)") {
		t.Errorf("missing score line in:\n%s", out)
	}
	if !strings.Contains(out, "Alvarez") || !strings.Contains(out, "TEAM TOTALS") {
		t.Errorf("missing player or totals section in:\n%s", out)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	r, _ := reportFixture(t)
	exp := NewExporter(Options{Format: "xml", Writer: &bytes.Buffer{}})
	if err := exp.Export(r); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestExportRefusesOverwrite(t *testing.T) {
	r, _ := reportFixture(t)
	path := filepath.Join(t.TempDir(), "box.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	exp := NewExporter(Options{Format: FormatJSON, FilePath: path})
	if err := exp.Export(r); err == nil {
		t.Fatal("expected refusal to overwrite existing file")
	}

	exp = NewExporter(Options{Format: FormatJSON, FilePath: path, Overwrite: true})
	if err := exp.Export(r); err != nil {
		t.Fatalf("overwrite export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if len(data) == 0 || string(data) == "old" {
		t.Error("file not replaced")
	}
}

func TestExportCreatesMissingDirectory(t *testing.T) {
	r, _ := reportFixture(t)
	path := filepath.Join(t.TempDir(), "exports", "2026-02-06", "box.csv")
	exp := NewExporter(Options{Format: FormatCSV, FilePath: path})
	if err := exp.Export(r); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}
