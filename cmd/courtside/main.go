package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/courtside/tracker/internal/config"
	"github.com/courtside/tracker/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	switch os.Args[1] {
	case "track":
		runTrackCommand(os.Args[2:])
	case "export":
		runExportCommand(os.Args[2:])
	case "migrate":
		runMigrationCommand(os.Args[2:])
	case "config":
		runConfigCommand(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Courtside - live basketball stat tracker")
	fmt.Println()
	fmt.Println("Usage: courtside <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  track      - Run the interactive tracking console for a game")
	fmt.Println("  export     - Export a finished game's box score")
	fmt.Println("  migrate    - Run database migrations")
	fmt.Println("  config     - Print or initialize the configuration file")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  courtside track --event-id cal-2026-01-17 --opponent \"Central High\"")
	fmt.Println("  courtside export --event-id cal-2026-01-17 --format csv --out box.csv")
	fmt.Println("  courtside migrate up")
	fmt.Println("  courtside config init")
	fmt.Println()
}

// loadConfig loads the config file, falling back to defaults when none
// exists yet.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v, using defaults", err)
		return config.DefaultConfig()
	}
	return cfg
}

// dbPath resolves the sqlite path: flag/config value, or the default under
// the config directory.
func dbPath(cfg *config.Config) string {
	if cfg.Storage.DBPath != "" {
		return cfg.Storage.DBPath
	}
	dir, err := config.Dir()
	if err != nil {
		log.Fatalf("Error resolving config directory: %v", err)
	}
	return filepath.Join(dir, "courtside.db")
}

func runMigrationCommand(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: courtside migrate <up|down|status>")
		os.Exit(1)
	}

	cfg := loadConfig()
	mgr, err := storage.NewMigrationManager(dbPath(cfg))
	if err != nil {
		log.Fatalf("Error creating migration manager: %v", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	switch args[0] {
	case "up":
		if err := mgr.Up(); err != nil {
			log.Fatalf("Error applying migrations: %v", err)
		}
		fmt.Println("All migrations applied.")
	case "down":
		if err := mgr.Down(); err != nil {
			log.Fatalf("Error rolling back migration: %v", err)
		}
		fmt.Println("Last migration rolled back.")
	case "status", "version":
		version, dirty, err := mgr.Version()
		if err != nil {
			log.Fatalf("Error getting version: %v", err)
		}
		if dirty {
			fmt.Printf("Current version: %d (dirty)\n", version)
		} else {
			fmt.Printf("Current version: %d\n", version)
		}
	default:
		fmt.Printf("Unknown migrate subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func runConfigCommand(args []string) {
	if len(args) > 0 && args[0] == "init" {
		cfg := config.DefaultConfig()
		if err := cfg.Save(); err != nil {
			log.Fatalf("Error writing config: %v", err)
		}
		path, _ := config.Path()
		fmt.Printf("Wrote default configuration to %s\n", path)
		return
	}

	cfg := loadConfig()
	path, _ := config.Path()
	fmt.Printf("Configuration (%s):\n", path)
	fmt.Printf("  remote.base_url:      %s\n", cfg.Remote.BaseURL)
	fmt.Printf("  remote.feed_enabled:  %v\n", cfg.Remote.FeedEnabled)
	fmt.Printf("  storage.db_path:      %s\n", dbPath(cfg))
	fmt.Printf("  storage.encrypt:      %v\n", cfg.Storage.EncryptSnapshots)
	fmt.Printf("  policy.steal:         %+d\n", cfg.Policy.StealPlusMinus)
	fmt.Printf("  policy.turnover:      %+d\n", cfg.Policy.TurnoverPlusMinus)
	fmt.Printf("  tracker.undo_depth:   %d\n", cfg.Tracker.UndoDepth)
	fmt.Printf("  tracker.checkpoint:   %s\n", cfg.Tracker.CheckpointInterval)
	fmt.Printf("  metrics.enabled:      %v\n", cfg.Metrics.Enabled)
}
