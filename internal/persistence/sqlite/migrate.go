package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations run in order exactly once each; applied versions are tracked in
// schema_migrations. New statements go at the end, existing entries are frozen.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		location TEXT,
		status TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
		client_name TEXT,
		client_surname TEXT,
		phone TEXT,
		birth_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_owner_date ON appointments(owner_id, date)`,
	`CREATE TABLE IF NOT EXISTS availability_rules (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS availability_settings (
		owner_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		slot_granularity_minutes INTEGER NOT NULL CHECK (slot_granularity_minutes > 0),
		default_duration_minutes INTEGER NOT NULL CHECK (default_duration_minutes > 0),
		buffer_minutes INTEGER NOT NULL CHECK (buffer_minutes >= 0),
		min_advance_hours INTEGER NOT NULL DEFAULT 0,
		max_advance_days INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	)`,
}

// Migrate applies any pending schema migrations inside a single transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("sqlite: create migration table: %w", err)
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var current int
		if err := tx.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
			return fmt.Errorf("sqlite: read migration version: %w", err)
		}

		for version := current + 1; version <= len(migrations); version++ {
			if _, err := tx.Exec(migrations[version-1]); err != nil {
				return fmt.Errorf("sqlite: apply migration %d: %w", version, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`, version); err != nil {
				return fmt.Errorf("sqlite: record migration %d: %w", version, err)
			}
		}
		return nil
	})
}
