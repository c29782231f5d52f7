package migrations

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/streed/smart-notes/internal/logger"
)

// Migration is one schema change, applied inside a transaction.
type Migration struct {
	ID          string                 // Unique identifier, sorted lexically (e.g. "001_note_links")
	Description string                 // Human-readable description
	Up          func(tx *sql.Tx) error // Migration function
	Down        func(tx *sql.Tx) error // Rollback function (optional)
}

// MigrationStatus reports whether a migration has been applied
type MigrationStatus struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

// MigrationRunner applies migrations and records them in schema_migrations
type MigrationRunner struct {
	db         *sql.DB
	migrations []Migration
}

func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return newRunner(db, getAllMigrations())
}

func newRunner(db *sql.DB, migrations []Migration) *MigrationRunner {
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return &MigrationRunner{db: db, migrations: sorted}
}

func (mr *MigrationRunner) createMigrationsTable() error {
	_, err := mr.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (mr *MigrationRunner) getAppliedMigrations() (map[string]bool, error) {
	rows, err := mr.db.Query("SELECT id FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan migration id: %w", err)
		}
		applied[id] = true
	}

	return applied, rows.Err()
}

// inTx runs fn in a transaction and rolls back if it fails.
func (mr *MigrationRunner) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := mr.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			logger.Error("Failed to rollback transaction: %v", rollbackErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RunMigrations applies every pending migration in ID order
func (mr *MigrationRunner) RunMigrations() error {
	if err := mr.createMigrationsTable(); err != nil {
		return err
	}

	applied, err := mr.getAppliedMigrations()
	if err != nil {
		return err
	}

	pending := 0
	for _, m := range mr.migrations {
		if applied[m.ID] {
			continue
		}

		logger.Info("Running migration: %s - %s", m.ID, m.Description)
		m := m
		err := mr.inTx(func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.ID, err)
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (id, description, applied_at) VALUES (?, ?, ?)",
				m.ID, m.Description, time.Now().UTC(),
			)
			if err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		pending++
	}

	if pending == 0 {
		logger.Debug("No pending migrations - database is up to date")
	} else {
		logger.Info("Applied %d migrations", pending)
	}
	return nil
}

// GetMigrationStatus returns the status of all migrations
func (mr *MigrationRunner) GetMigrationStatus() ([]MigrationStatus, error) {
	if err := mr.createMigrationsTable(); err != nil {
		return nil, err
	}
	applied, err := mr.getAppliedMigrations()
	if err != nil {
		return nil, err
	}

	status := make([]MigrationStatus, 0, len(mr.migrations))
	for _, m := range mr.migrations {
		status = append(status, MigrationStatus{
			ID:          m.ID,
			Description: m.Description,
			Applied:     applied[m.ID],
		})
	}
	return status, nil
}

// RollbackMigration reverts one applied migration that has a Down step
func (mr *MigrationRunner) RollbackMigration(migrationID string) error {
	var target *Migration
	for i := range mr.migrations {
		if mr.migrations[i].ID == migrationID {
			target = &mr.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %s not found", migrationID)
	}
	if target.Down == nil {
		return fmt.Errorf("migration %s does not support rollback", migrationID)
	}

	applied, err := mr.getAppliedMigrations()
	if err != nil {
		return err
	}
	if !applied[migrationID] {
		return fmt.Errorf("migration %s is not applied", migrationID)
	}

	logger.Info("Rolling back migration: %s - %s", target.ID, target.Description)
	return mr.inTx(func(tx *sql.Tx) error {
		if err := target.Down(tx); err != nil {
			return fmt.Errorf("rollback %s failed: %w", migrationID, err)
		}
		if _, err := tx.Exec("DELETE FROM schema_migrations WHERE id = ?", migrationID); err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", migrationID, err)
		}
		return nil
	})
}
