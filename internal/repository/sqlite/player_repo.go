package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/freeeve/playersync/internal/model"
)

const playerColumns = `id, name, sport, team, age, matches, runs_or_goals, average, created_at`

// PlayerRepo stores players in SQLite.
type PlayerRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlayerRepo creates a PlayerRepo.
func NewPlayerRepo(db *sql.DB) *PlayerRepo {
	return &PlayerRepo{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var p model.Player
	var createdAt int64
	err := row.Scan(&p.ID, &p.Name, &p.Sport, &p.Team, &p.Age,
		&p.Stats.Matches, &p.Stats.RunsOrGoals, &p.Stats.Average, &createdAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}

// Create inserts a new player. The caller supplies the ID.
func (r *PlayerRepo) Create(ctx context.Context, p model.Player) (*model.Player, error) {
	created, err := scanPlayer(r.db.QueryRowContext(ctx,
		`INSERT INTO players (id, name, sport, team, age, matches, runs_or_goals, average, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+playerColumns,
		p.ID, p.Name, p.Sport, p.Team, p.Age, p.Stats.Matches, p.Stats.RunsOrGoals, p.Stats.Average,
		r.now().UTC().UnixMilli(),
	))
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return created, nil
}

// FindByID looks up a player by ID.
func (r *PlayerRepo) FindByID(ctx context.Context, id string) (*model.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find player by id: %w", err)
	}
	return p, nil
}

// List returns players in insertion order, optionally restricted to one sport.
func (r *PlayerRepo) List(ctx context.Context, sport string) ([]model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players`
	var args []any
	if sport != "" {
		query += ` WHERE sport = ?`
		args = append(args, sport)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// UpdateStats replaces a player's stats and returns the updated record.
func (r *PlayerRepo) UpdateStats(ctx context.Context, id string, stats model.Stats) (*model.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx,
		`UPDATE players SET matches = ?, runs_or_goals = ?, average = ?
		 WHERE id = ?
		 RETURNING `+playerColumns,
		stats.Matches, stats.RunsOrGoals, stats.Average, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update player stats: %w", err)
	}
	return p, nil
}

// Delete removes a player. It reports whether a row was deleted.
func (r *PlayerRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete player: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of stored players.
func (r *PlayerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}
