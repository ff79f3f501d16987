package migrations

import (
	"context"
	"path/filepath"
	"testing"

	dbpkg "github.com/aydin/tutorhub/internal/db"
)

func TestMigrateIsRerunnable(t *testing.T) {
	database, err := dbpkg.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	migrator := NewMigrator(database.DB)

	if err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	// Applied migrations are tracked; a rerun is a no-op.
	if err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	for _, table := range []string{"Users", "Meetings", "Reports", "Messages", "WellbeingAlerts"} {
		var name string
		err := database.DB.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing after migrate: %v", table, err)
		}
	}

	var applied int
	if err := database.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count applied: %v", err)
	}
	if applied == 0 {
		t.Fatal("no migrations recorded")
	}
}

func TestForeignKeysCascade(t *testing.T) {
	database, err := dbpkg.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := NewMigrator(database.DB).Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	res, err := database.DB.ExecContext(ctx,
		"INSERT INTO Users (Username, Name, Password, Role) VALUES ('u', 'U', 'p', 'Student')")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, _ := res.LastInsertId()
	if _, err := database.DB.ExecContext(ctx,
		"INSERT INTO Reports (StudentId, Score, Date) VALUES (?, 5, '2025-01-01T00:00:00Z')", userID); err != nil {
		t.Fatalf("insert report: %v", err)
	}

	if _, err := database.DB.ExecContext(ctx, "DELETE FROM Users WHERE Id = ?", userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var count int
	if err := database.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM Reports WHERE StudentId = ?", userID).Scan(&count); err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if count != 0 {
		t.Fatalf("reports = %d after owner delete, want cascade to 0", count)
	}
}
