package sqlite

import (
	"context"
	"fmt"
)

// schemaStatements define the database structure. Each statement is
// idempotent so Migrate can run at every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'staff', 'administrator')),
		location_id TEXT,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		zip_code TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		expected_duration INTEGER NOT NULL,
		priority TEXT NOT NULL CHECK (priority IN ('low', 'medium', 'high')),
		is_open INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS queue_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		location_id TEXT NOT NULL REFERENCES locations(id),
		position INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('waiting', 'almost-ready', 'served', 'left')),
		joined_at TEXT NOT NULL,
		served_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_entries_location_status
		ON queue_entries (location_id, status, position)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_entries_user_status
		ON queue_entries (user_id, status)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_queue_entries_one_active_per_user
		ON queue_entries (user_id) WHERE status IN ('waiting', 'almost-ready')`,
	`CREATE TABLE IF NOT EXISTS queue_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		location_label TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('served', 'left')),
		joined_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_history_user
		ON queue_history (user_id, completed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_history_completed
		ON queue_history (completed_at)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		location_id TEXT NOT NULL REFERENCES locations(id),
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		duration INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('upcoming', 'completed', 'cancelled')),
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_user
		ON appointments (user_id, date, time)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_location_date
		ON appointments (location_id, date)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		revoked_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires
		ON sessions (expires_at)`,
}

// Migrate creates the database schema if it does not exist yet
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, statement := range schemaStatements {
		if _, err := cp.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
