package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/courtside/tracker/internal/export"
	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/stats"
	"github.com/courtside/tracker/internal/storage"
	"github.com/courtside/tracker/internal/storage/repository"
)

func runExportCommand(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	eventID := fs.String("event-id", "", "Calendar event id of the game (required)")
	format := fs.String("format", "text", "Export format: csv, json, text")
	out := fs.String("out", "", "Output file (default: stdout)")
	chart := fs.String("chart", "", "Also render a score-progression chart to this HTML file")
	team := fs.String("team", "Home", "Home team display name")
	opponent := fs.String("opponent", "", "Opponent display name (default: from the saved game record)")
	rosterPath := fs.String("roster", "", "Path to the roster JSON file")
	overwrite := fs.Bool("overwrite", false, "Overwrite the output file if it exists")
	pretty := fs.Bool("pretty", true, "Pretty-print JSON output")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "export: --event-id is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	roster, err := loadRoster(*rosterPath)
	if err != nil {
		log.Fatalf("Error loading roster: %v", err)
	}

	db, err := storage.Open(storage.DefaultConfig(dbPath(cfg)))
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	sessions := repository.NewSessionRepository(db)
	key, _, ok, err := sessions.FindSession(ctx, *eventID)
	if err != nil {
		log.Fatalf("Error finding session: %v", err)
	}
	if !ok {
		log.Fatalf("No session recorded for event %s", *eventID)
	}
	data, err := sessions.FetchSession(ctx, key)
	if err != nil {
		log.Fatalf("Error loading session: %v", err)
	}

	oppName := *opponent
	if oppName == "" {
		games := repository.NewGameRepository(db)
		if rec, err := games.GetGameByEvent(ctx, *eventID); err == nil && rec != nil {
			oppName = rec.OpponentName
		}
	}
	if oppName == "" {
		oppName = "Opponent"
	}

	eventLog := game.NewEventLog()
	eventLog.Replay(data.Events)
	applyTombstones(eventLog)
	events := eventLog.Chronological()

	pol := stats.Policy{
		StealPlusMinus:    cfg.Policy.StealPlusMinus,
		TurnoverPlusMinus: cfg.Policy.TurnoverPlusMinus,
	}
	opts := stats.Options{Policy: &pol}
	if len(data.Lineups) > 0 {
		opts.StartingFive = make(map[string]bool, game.RosterSize)
		for _, id := range data.Lineups[0].PlayerIDs {
			opts.StartingFive[id] = true
		}
	}
	box := stats.Aggregate(events, roster, opts)

	gs := game.GameState{Quarter: 1}
	if data.GameState != nil {
		gs = *data.GameState
	}
	report := export.BuildReport(box, events, *team, oppName, gs)
	report.Lineups = data.Lineups

	exportOpts := export.Options{
		Format:     export.Format(*format),
		FilePath:   *out,
		PrettyJSON: *pretty,
		Overwrite:  *overwrite,
	}
	if *out == "" {
		exportOpts.Writer = os.Stdout
	}
	if err := export.NewExporter(exportOpts).Export(report); err != nil {
		log.Fatalf("Error exporting box score: %v", err)
	}
	if *out != "" {
		fmt.Printf("Exported box score to %s\n", *out)
	}

	if *chart != "" {
		chartCfg := export.DefaultChartConfig()
		chartCfg.TeamName = *team
		chartCfg.OpponentName = oppName
		if err := export.RenderScoreChart(events, chartCfg, *chart); err != nil {
			log.Fatalf("Error rendering chart: %v", err)
		}
		fmt.Printf("Rendered score chart to %s\n", *chart)
	}
}

// applyTombstones re-applies deletions announced by audit records in a
// hydrated log.
func applyTombstones(l *game.EventLog) {
	for _, e := range l.All() {
		if e.Type != game.EventDeleted || e.TargetID == "" {
			continue
		}
		if target, ok := l.Get(e.TargetID); ok && !target.Deleted {
			_, _ = l.Delete(target.ID)
		}
	}
}
