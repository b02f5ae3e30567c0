package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/storage"
	"github.com/courtside/tracker/internal/storage/models"
)

// GameRepository implements session.GameStore on sqlite.
type GameRepository struct {
	db   *storage.DB
	conn *sql.DB
}

// NewGameRepository creates a game repository.
func NewGameRepository(db *storage.DB) *GameRepository {
	return &GameRepository{db: db, conn: db.Conn()}
}

// FindGameRecord returns the game id already persisted for the event.
func (r *GameRepository) FindGameRecord(ctx context.Context, eventID string) (string, bool, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT id FROM games WHERE event_id = ?`, eventID)
	var id string
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query game record: %w", err)
	}
	return id, true, nil
}

// CreateGameRecord creates the game row and returns its id.
func (r *GameRepository) CreateGameRecord(ctx context.Context, eventID, opponentName string) (string, error) {
	id := uuid.NewString()
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO games (id, event_id, opponent_name) VALUES (?, ?, ?)`,
		id, eventID, opponentName,
	)
	if err != nil {
		return "", fmt.Errorf("insert game record: %w", err)
	}
	return id, nil
}

// GetGameByEvent loads the persisted game record for the event, or nil when
// no checkpoint has run yet.
func (r *GameRepository) GetGameByEvent(ctx context.Context, eventID string) (*models.Game, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT id, event_id, opponent_name, home_score, away_score, result, created_at, updated_at
		FROM games WHERE event_id = ?`, eventID)
	g := &models.Game{}
	err := row.Scan(&g.ID, &g.EventID, &g.OpponentName, &g.HomeScore, &g.AwayScore,
		&g.Result, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query game record: %w", err)
	}
	return g, nil
}

// SaveCheckpoint writes every player line plus the score and result for the
// game in one transaction, overwriting any previous checkpoint. A checkpoint
// is all-or-nothing: a partially written one would disagree with the score
// row it sits next to.
func (r *GameRepository) SaveCheckpoint(ctx context.Context, gameID string, lines map[string]*game.StatLine, homeScore, awayScore int, result string) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for playerID, line := range lines {
			if err := upsertPlayerStats(ctx, tx, gameID, playerID, line); err != nil {
				return fmt.Errorf("upsert stats for player %s: %w", playerID, err)
			}
		}
		return updateGameScore(ctx, tx, gameID, homeScore, awayScore, result)
	})
}

func upsertPlayerStats(ctx context.Context, tx *sql.Tx, gameID, playerID string, line *game.StatLine) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO player_game_stats (
			game_id, player_id, points, rebounds_off, rebounds_def, assists,
			steals, blocks, fouls, turnovers, fg_made, fg_attempted,
			three_made, three_attempted, ft_made, ft_attempted, plus_minus,
			charges_taken, deflections, points_in_paint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id, player_id) DO UPDATE SET
			points = excluded.points,
			rebounds_off = excluded.rebounds_off,
			rebounds_def = excluded.rebounds_def,
			assists = excluded.assists,
			steals = excluded.steals,
			blocks = excluded.blocks,
			fouls = excluded.fouls,
			turnovers = excluded.turnovers,
			fg_made = excluded.fg_made,
			fg_attempted = excluded.fg_attempted,
			three_made = excluded.three_made,
			three_attempted = excluded.three_attempted,
			ft_made = excluded.ft_made,
			ft_attempted = excluded.ft_attempted,
			plus_minus = excluded.plus_minus,
			charges_taken = excluded.charges_taken,
			deflections = excluded.deflections,
			points_in_paint = excluded.points_in_paint`,
		gameID, playerID, line.Points, line.ReboundsOff, line.ReboundsDef, line.Assists,
		line.Steals, line.Blocks, line.Fouls, line.Turnovers, line.FGMade, line.FGAttempted,
		line.ThreeMade, line.ThreeAttempted, line.FTMade, line.FTAttempted, line.PlusMinus,
		line.ChargesTaken, line.Deflections, line.PointsInPaint,
	)
	return err
}

func updateGameScore(ctx context.Context, tx *sql.Tx, gameID string, homeScore, awayScore int, result string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE games SET home_score = ?, away_score = ?, result = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, homeScore, awayScore, result, gameID)
	if err != nil {
		return fmt.Errorf("update game score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("game %s not found", gameID)
	}
	return nil
}

// GetPlayerGameStats reads back one player's persisted line, used by export
// and tests.
func (r *GameRepository) GetPlayerGameStats(ctx context.Context, gameID, playerID string) (*game.StatLine, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT points, rebounds_off, rebounds_def, assists, steals, blocks,
		       fouls, turnovers, fg_made, fg_attempted, three_made,
		       three_attempted, ft_made, ft_attempted, plus_minus,
		       charges_taken, deflections, points_in_paint
		FROM player_game_stats WHERE game_id = ? AND player_id = ?`, gameID, playerID)
	line := &game.StatLine{}
	err := row.Scan(&line.Points, &line.ReboundsOff, &line.ReboundsDef, &line.Assists,
		&line.Steals, &line.Blocks, &line.Fouls, &line.Turnovers, &line.FGMade,
		&line.FGAttempted, &line.ThreeMade, &line.ThreeAttempted, &line.FTMade,
		&line.FTAttempted, &line.PlusMinus, &line.ChargesTaken, &line.Deflections,
		&line.PointsInPaint)
	if err != nil {
		return nil, fmt.Errorf("query player game stats: %w", err)
	}
	return line, nil
}

// CountGameRecords returns how many game rows exist for the event. Resume
// idempotence tests use this to prove no duplicate rows appear.
func (r *GameRepository) CountGameRecords(ctx context.Context, eventID string) (int, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE event_id = ?`, eventID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count game records: %w", err)
	}
	return n, nil
}
