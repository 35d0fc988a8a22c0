// Package sqlite provides the SQLite-backed player store. It is the default
// store for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	sport         TEXT NOT NULL,
	team          TEXT NOT NULL DEFAULT '',
	age           INTEGER NOT NULL DEFAULT 0,
	matches       INTEGER NOT NULL DEFAULT 0,
	runs_or_goals INTEGER NOT NULL DEFAULT 0,
	average       REAL NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS players_sport_idx ON players (sport);
`

// Open opens the SQLite database at path and creates the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return db, nil
}
