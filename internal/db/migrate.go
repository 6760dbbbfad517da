package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the schema. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Databases created before revisions existed already have the
			// other columns; re-running ADD COLUMN on a current one fails.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      BLOB,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`,

	// Monotonic per-key revision. A deleted key keeps its row with a NULL
	// value so that its revision never goes backwards.
	`ALTER TABLE kv_entries ADD COLUMN revision INTEGER NOT NULL DEFAULT 1`,

	`CREATE INDEX IF NOT EXISTS idx_kv_entries_live ON kv_entries(key) WHERE value IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS schema_meta (
		name  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`INSERT INTO schema_meta (name, value) VALUES ('kv_schema', '2')
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
}
