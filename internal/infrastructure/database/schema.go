package database

import (
	"context"
	"fmt"
)

// schema is the camcore database schema.
//
// camera_state holds exactly one row (id = 1): the authoritative device cell.
// state_history is an append-only audit trail of accepted writes.
//
// All statements are idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS camera_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		value TEXT NOT NULL CHECK (value IN ('on', 'off')),
		updated_at_ms INTEGER NOT NULL,
		updated_at_readable TEXT NOT NULL,
		actual TEXT CHECK (actual IN ('on', 'off')),
		reported_at_ms INTEGER
	) STRICT`,

	`CREATE TABLE IF NOT EXISTS state_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		field TEXT NOT NULL CHECK (field IN ('target', 'actual')),
		value TEXT NOT NULL CHECK (value IN ('on', 'off')),
		source TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL
	) STRICT`,

	`CREATE INDEX IF NOT EXISTS idx_state_history_created_at
		ON state_history(created_at_ms)`,
}

// Migrate applies the schema to the database.
//
// Safe to call on every startup: all statements are CREATE IF NOT EXISTS.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
