package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/playersync/internal/model"
)

const playerColumns = `id, name, sport, team, age, matches, runs_or_goals, average, created_at`

// PlayerRepo handles player database operations.
type PlayerRepo struct {
	db *sql.DB
}

// NewPlayerRepo creates a PlayerRepo.
func NewPlayerRepo(db *sql.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var p model.Player
	err := row.Scan(&p.ID, &p.Name, &p.Sport, &p.Team, &p.Age,
		&p.Stats.Matches, &p.Stats.RunsOrGoals, &p.Stats.Average, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new player. The caller supplies the ID.
func (r *PlayerRepo) Create(ctx context.Context, p model.Player) (*model.Player, error) {
	created, err := scanPlayer(r.db.QueryRowContext(ctx,
		`INSERT INTO players (id, name, sport, team, age, matches, runs_or_goals, average)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+playerColumns,
		p.ID, p.Name, p.Sport, p.Team, p.Age, p.Stats.Matches, p.Stats.RunsOrGoals, p.Stats.Average,
	))
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return created, nil
}

// FindByID looks up a player by ID.
func (r *PlayerRepo) FindByID(ctx context.Context, id string) (*model.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find player by id: %w", err)
	}
	return p, nil
}

// List returns all players in insertion order, optionally restricted to one sport.
// Rows inserted in the same transaction share created_at, so seq decides.
func (r *PlayerRepo) List(ctx context.Context, sport string) ([]model.Player, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if sport == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+playerColumns+` FROM players ORDER BY seq`)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+playerColumns+` FROM players WHERE sport = $1 ORDER BY seq`, sport)
	}
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
		`UPDATE players SET matches = $1, runs_or_goals = $2, average = $3
		 WHERE id = $4
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
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
