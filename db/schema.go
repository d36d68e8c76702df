package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS. The statements are
// portable between SQLite and PostgreSQL: timestamps are stored as RFC 3339
// text and list fields as JSON text.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		name TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		deadline TEXT NOT NULL DEFAULT '',
		rules TEXT NOT NULL DEFAULT '[]',
		prizes TEXT NOT NULL DEFAULT '[]',
		state TEXT NOT NULL CHECK (state IN ('active', 'ended', 'deactivated')),
		created_at TEXT NOT NULL,
		ended_at TEXT,
		deactivated_at TEXT,
		logo_key TEXT,
		logo_url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_state ON events(state)`,

	`CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		event_name TEXT NOT NULL REFERENCES events(name) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		email TEXT NOT NULL,
		team_name TEXT NOT NULL DEFAULT '',
		project_name TEXT NOT NULL DEFAULT '',
		github_repo TEXT NOT NULL,
		demo_video TEXT NOT NULL DEFAULT '',
		live_demo_url TEXT NOT NULL DEFAULT '',
		live_demo_credentials TEXT NOT NULL DEFAULT '',
		submitted_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_event ON submissions(event_name)`,
	// Пустые email и репозиторий допустимы, если поле не обязательное,
	// поэтому уникальность проверяется только для заполненных значений.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_email
		ON submissions(event_name, email) WHERE email <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_repo
		ON submissions(event_name, github_repo) WHERE github_repo <> ''`,

	`CREATE TABLE IF NOT EXISTS participants (
		event_name TEXT NOT NULL REFERENCES events(name) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		email TEXT NOT NULL,
		team_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (event_name, email)
	)`,

	`CREATE TABLE IF NOT EXISTS teams (
		event_name TEXT NOT NULL REFERENCES events(name) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (event_name, name)
	)`,

	`CREATE TABLE IF NOT EXISTS winners (
		event_name TEXT NOT NULL REFERENCES events(name) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		team_name TEXT NOT NULL,
		project_name TEXT NOT NULL DEFAULT '',
		points INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (event_name, team_name)
	)`,

	`CREATE TABLE IF NOT EXISTS admin_credential (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL
	)`,
}
