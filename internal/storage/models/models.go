// Package models contains row types shared between repositories and
// commands.
package models

import "time"

// Game is one persisted game record produced by checkpoint aggregation.
type Game struct {
	ID           string
	EventID      string
	OpponentName string
	HomeScore    int
	AwayScore    int
	Result       string // "win", "loss", "tie"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
