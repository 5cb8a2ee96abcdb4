package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the
// application expects. If the database cannot be migrated to this
// version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS workflows (
					id TEXT PRIMARY KEY,
					case_number TEXT NOT NULL,
					revision_id TEXT NOT NULL UNIQUE,
					period_from DATETIME NOT NULL,
					period_to DATETIME NOT NULL,
					state TEXT NOT NULL,
					disposition TEXT,
					claim_document_id TEXT,
					claim_received_at DATETIME,
					claim_json TEXT,
					receipt_json TEXT,
					version INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_workflows_case ON workflows(case_number)`,
				`CREATE INDEX idx_workflows_state ON workflows(state)`,

				`CREATE TABLE IF NOT EXISTS claim_documents (
					id TEXT PRIMARY KEY,
					received_at DATETIME NOT NULL,
					payload BLOB NOT NULL,
					status TEXT NOT NULL DEFAULT 'UNPROCESSED'
				)`,
				`CREATE INDEX idx_claim_documents_status ON claim_documents(status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add simulation snapshots for claim consistency checks",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS simulation_snapshots (
					revision_id TEXT PRIMARY KEY,
					snapshot TEXT NOT NULL,
					computed_date DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
}

// runMigrations applies all pending migrations inside transactions,
// tracking progress in PRAGMA user_version.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		slog.Info("Applying migration", "version", m.Version, "description", m.Description)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
		current = m.Version
	}

	if current != ExpectedSchemaVersion {
		return fmt.Errorf("schema version %d does not match expected %d", current, ExpectedSchemaVersion)
	}
	return nil
}
