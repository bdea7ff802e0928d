package shared

import "testing"

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}

	for _, m := range migrations {
		if m.Up == "" {
			t.Errorf("migration %d missing up script", m.Version)
		}
		if m.Down == "" {
			t.Errorf("migration %d missing down script", m.Version)
		}
	}
}

func TestRunMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("creates tracks table", func(t *testing.T) {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='tracks'").Scan(&name)
		if err != nil {
			t.Fatalf("tracks table not found: %v", err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		if err := RunMigrations(db); err != nil {
			t.Errorf("second run failed: %v", err)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to count migrations: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty migrations table, got %d rows", count)
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error rolling back with nothing applied")
		}
	})
}
