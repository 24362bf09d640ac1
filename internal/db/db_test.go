package db

import (
	"path/filepath"
	"testing"
)

func TestOpenEnforcesForeignKeys(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO ammo_details (item_id, caliber, quantity, unit, rounds_per_unit)
		VALUES (999, '9mm Luger', 1, 'BOX', 50)`)
	if err == nil {
		t.Error("expected foreign key violation for unknown item")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zaloga.sqlite3")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(database); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}
}
