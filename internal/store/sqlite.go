package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/agentpool/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// A single connection keeps the pragmas below in effect for every
	// query and makes ":memory:" databases behave as one database.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// RecordTick inserts the tick and its commands in one transaction.
func (s *SQLiteStore) RecordTick(ctx context.Context, tick *model.TickRecord, cmds []model.Command) error {
	s.logger.Debug("sql", "op", "insert", "table", "ticks", "id", tick.ID, "commands", len(cmds))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ticks (id, at, backlog, agents, managed, alive, pending, decision, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tick.ID, tick.At.Format(time.RFC3339Nano),
		tick.Backlog, tick.Agents, tick.Managed, tick.Alive, tick.Pending,
		tick.Decision, tick.Error,
	)
	if err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}

	for _, cmd := range cmds {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO commands (id, tick_id, action, node, reason, issued_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			cmd.ID, tick.ID, string(cmd.Action), string(cmd.Node), cmd.Reason,
			cmd.IssuedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert command %s: %w", cmd.ID, err)
		}
	}

	return tx.Commit()
}

// ListTicks returns the most recent ticks, newest first.
func (s *SQLiteStore) ListTicks(ctx context.Context, limit int) ([]*model.TickRecord, error) {
	s.logger.Debug("sql", "op", "select", "table", "ticks", "limit", limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, backlog, agents, managed, alive, pending, decision, error
		 FROM ticks ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []*model.TickRecord
	for rows.Next() {
		var t model.TickRecord
		var at string
		if err := rows.Scan(&t.ID, &at, &t.Backlog, &t.Agents, &t.Managed, &t.Alive, &t.Pending, &t.Decision, &t.Error); err != nil {
			return nil, err
		}
		if t.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse tick time %q: %w", at, err)
		}
		ticks = append(ticks, &t)
	}
	return ticks, rows.Err()
}

// ListCommands returns the most recently issued commands, newest first.
func (s *SQLiteStore) ListCommands(ctx context.Context, limit int) ([]*model.Command, error) {
	s.logger.Debug("sql", "op", "select", "table", "commands", "limit", limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, node, reason, issued_at
		 FROM commands ORDER BY issued_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []*model.Command
	for rows.Next() {
		var c model.Command
		var action, node, issuedAt string
		if err := rows.Scan(&c.ID, &action, &node, &c.Reason, &issuedAt); err != nil {
			return nil, err
		}
		c.Action = model.Action(action)
		c.Node = model.Node(node)
		if c.IssuedAt, err = time.Parse(time.RFC3339Nano, issuedAt); err != nil {
			return nil, fmt.Errorf("parse command time %q: %w", issuedAt, err)
		}
		cmds = append(cmds, &c)
	}
	return cmds, rows.Err()
}

// PruneTicksBefore deletes ticks recorded before t; their commands go with
// them via the foreign key cascade.
func (s *SQLiteStore) PruneTicksBefore(ctx context.Context, t time.Time) error {
	s.logger.Debug("sql", "op", "delete", "table", "ticks", "before", t)

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ticks WHERE at < ?`, t.Format(time.RFC3339Nano))
	return err
}
