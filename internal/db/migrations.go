package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: events were first stored without a trip link.
	`CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at)`,
	// Migration 2: speed up the per-caliber threshold lookup.
	`CREATE INDEX IF NOT EXISTS idx_ammo_thresholds_caliber_enabled
	     ON ammo_thresholds(caliber, enabled)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
