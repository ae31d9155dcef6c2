package store

import (
	"database/sql"
	"fmt"

	"emodccdl/internal/logging"
)

// Schema versions:
// v1: runs, records and diagnostics
// v2: graph_nodes and graph_edges
const CurrentSchemaVersion = 2

type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "runs, records and diagnostics",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id TEXT PRIMARY KEY,
				kind TEXT NOT NULL,
				source TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS records (
				run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				line INTEGER NOT NULL,
				iv_name TEXT NOT NULL,
				params TEXT NOT NULL,
				PRIMARY KEY (run_id, line)
			)`,
			`CREATE TABLE IF NOT EXISTS diagnostics (
				run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				seq INTEGER NOT NULL,
				line INTEGER NOT NULL,
				kind TEXT NOT NULL,
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				PRIMARY KEY (run_id, seq)
			)`,
		},
	},
	{
		version:     2,
		description: "graph nodes and edges",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS graph_nodes (
				run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				idx INTEGER NOT NULL,
				label TEXT NOT NULL,
				color TEXT NOT NULL,
				shape TEXT NOT NULL,
				line TEXT NOT NULL,
				PRIMARY KEY (run_id, idx)
			)`,
			`CREATE TABLE IF NOT EXISTS graph_edges (
				run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				from_idx INTEGER NOT NULL,
				to_idx INTEGER NOT NULL,
				signal TEXT NOT NULL,
				PRIMARY KEY (run_id, from_idx, to_idx, signal)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_graph_edges_signal ON graph_edges(signal)`,
		},
	},
}

// migrate applies every migration newer than the recorded schema version.
func migrate(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "migrate")
	defer timer.Stop()

	log := logging.Get(logging.CategoryStore)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	current := SchemaVersion(db)
	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration v%d: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration v%d failed: %w", m.version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.version, m.description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record schema version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration v%d: %w", m.version, err)
		}
		log.Info("Migration applied: v%d (%s)", m.version, m.description)
		applied++
	}

	log.Debug("Schema migrations complete: from=%d applied=%d", current, applied)
	return nil
}

// SchemaVersion returns the highest recorded schema version, or 0.
func SchemaVersion(db *sql.DB) int {
	var version sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_versions").Scan(&version); err != nil {
		logging.Get(logging.CategoryStore).Debug("Schema version lookup failed: %v", err)
		return 0
	}
	return int(version.Int64)
}
