// Package storage persists the registry behind SQLite: agent records,
// enrolled agent keys, the singleton protocol parameters, and an append-only
// event log for indexer catch-up.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to a SQLite database.
type DB struct {
	db *sql.DB
}

// NewDB opens (or creates) a SQLite database at path and runs schema migrations.
func NewDB(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	d := &DB{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// migrate creates all required tables if they do not already exist.
func (d *DB) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS agents (
    address TEXT PRIMARY KEY,
    last_signal_at INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    total_signaled INTEGER NOT NULL DEFAULT 0,
    staked_amount INTEGER NOT NULL DEFAULT 0,
    stake_unlock_at INTEGER NOT NULL DEFAULT 0,
    stake_started_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS agent_keys (
    address TEXT PRIMARY KEY,
    public_key BLOB NOT NULL,
    label TEXT,
    enrolled_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS params (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    ttl_seconds INTEGER NOT NULL,
    min_signal_amount INTEGER NOT NULL,
    paused INTEGER NOT NULL DEFAULT 0,
    administrator TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    agent TEXT,
    amount INTEGER NOT NULL DEFAULT 0,
    timestamp INTEGER NOT NULL,
    streak INTEGER NOT NULL DEFAULT 0,
    total_signaled INTEGER NOT NULL DEFAULT 0,
    detail TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent);`
	_, err := d.db.Exec(schema)
	return err
}

// boolToInt converts a bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
