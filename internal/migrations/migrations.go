package migrations

import (
	"database/sql"
	"fmt"
)

// getAllMigrations returns all available migrations in order
func getAllMigrations() []Migration {
	return []Migration{
		{
			ID:          "000_initial_schema",
			Description: "Create notes, tags and note_tags",
			Up:          migration000Up,
			Down:        dropTables("note_tags", "tags", "notes"),
		},
		{
			ID:          "001_add_file_attachments",
			Description: "Add file attachments with per-file summaries",
			Up:          migration001Up,
			Down:        dropTables("note_attachments"),
		},
		{
			ID:          "002_add_note_links",
			Description: "Add links attached to notes",
			Up:          migration002Up,
			Down:        dropTables("note_links"),
		},
		// Add new migrations here in chronological order
	}
}

func execAll(tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func dropTables(tables ...string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return nil
	}
}

// migration000Up creates notes with an inline JSON embedding column and the tag tables
func migration000Up(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			summary TEXT,
			embedding TEXT,
			favorite INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS note_tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			tag_id INTEGER NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE,
			FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE,
			UNIQUE(note_id, tag_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_tags_note_id ON note_tags(note_id)`,
		`CREATE INDEX IF NOT EXISTS idx_note_tags_tag_id ON note_tags(tag_id)`,
	)
}

func migration001Up(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS note_attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			filename TEXT NOT NULL,
			original_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			file_path TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_attachments_note_id ON note_attachments(note_id)`,
	)
}

func migration002Up(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS note_links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_links_note_id ON note_links(note_id)`,
	)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
