package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/courtside/tracker/internal/config"
	"github.com/courtside/tracker/internal/game"
)

// rosterEntry is one player in the roster file.
type rosterEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Jersey   string `json:"jerseyNumber"`
	Position string `json:"position,omitempty"`
}

// loadRoster reads the roster JSON file. An empty path resolves to
// roster.json under the config directory.
func loadRoster(path string) ([]*game.Player, error) {
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "roster.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file %s: %w", path, err)
	}

	var entries []rosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse roster file %s: %w", path, err)
	}
	if len(entries) < game.RosterSize {
		return nil, fmt.Errorf("roster needs at least %d players, found %d", game.RosterSize, len(entries))
	}

	seen := make(map[string]bool, len(entries))
	players := make([]*game.Player, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("roster entry %d is missing id or name", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate player id %s in roster", e.ID)
		}
		seen[e.ID] = true
		players = append(players, &game.Player{
			ID:       e.ID,
			Name:     e.Name,
			Jersey:   e.Jersey,
			Position: e.Position,
		})
	}
	return players, nil
}
