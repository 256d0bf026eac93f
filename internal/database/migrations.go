package database

import "github.com/jmoiron/sqlx"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sqlx.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sqlx.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS courses (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    syllabus_text TEXT,
    analysis TEXT,
    file_uploaded INTEGER NOT NULL DEFAULT 0,
    analysis_complete INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS weekly_entries (
    course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    week TEXT NOT NULL,
    content TEXT NOT NULL,
    PRIMARY KEY (course_id, position)
);

CREATE TABLE IF NOT EXISTS deliverables (
    course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    weight TEXT NOT NULL,
    due_date TEXT NOT NULL,
    PRIMARY KEY (course_id, position)
);

CREATE TABLE IF NOT EXISTS completion_states (
    course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    deliverable TEXT NOT NULL,
    done INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (course_id, deliverable)
);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "settings table",
		Up: func(tx *sqlx.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT DEFAULT (datetime('now'))
);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
