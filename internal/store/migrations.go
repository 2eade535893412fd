package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for the audit tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ticks (
		id        TEXT PRIMARY KEY,
		at        TEXT NOT NULL,
		backlog   INTEGER NOT NULL,
		agents    INTEGER NOT NULL,
		managed   INTEGER NOT NULL,
		alive     INTEGER NOT NULL,
		pending   INTEGER NOT NULL,
		decision  TEXT NOT NULL,
		error     TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS commands (
		id        TEXT PRIMARY KEY,
		tick_id   TEXT NOT NULL REFERENCES ticks(id) ON DELETE CASCADE,
		action    TEXT NOT NULL,
		node      TEXT NOT NULL,
		reason    TEXT NOT NULL,
		issued_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ticks_at ON ticks(at)`,
	`CREATE INDEX IF NOT EXISTS idx_commands_tick_id ON commands(tick_id)`,
	`CREATE INDEX IF NOT EXISTS idx_commands_issued_at ON commands(issued_at)`,
}

// migrate applies all schema statements in order.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// Include the first line of the statement for context.
			head := strings.SplitN(strings.TrimSpace(stmt), "\n", 2)[0]
			return &migrationError{stmt: head, err: err}
		}
	}
	return nil
}

type migrationError struct {
	stmt string
	err  error
}

func (e *migrationError) Error() string { return "migrate: " + e.stmt + ": " + e.err.Error() }

func (e *migrationError) Unwrap() error { return e.err }
