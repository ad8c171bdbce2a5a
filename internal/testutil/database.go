package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/MediTrack-HMS/visit-queue-service/internal/db"
)

// SetupTestDB connects to the database named by TEST_DATABASE_URL and applies
// migrations. Tests that need a real database are skipped when the variable
// is unset or the database is unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	database, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		t.Skipf("Test database unreachable: %v", err)
	}

	if err := db.Migrate(context.Background(), database); err != nil {
		database.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// CleanupTables truncates the service tables between tests.
func CleanupTables(t *testing.T, database *sql.DB) {
	t.Helper()

	if _, err := database.Exec("TRUNCATE TABLE hospital.queue_tickets, hospital.patients RESTART IDENTITY"); err != nil {
		t.Fatalf("Failed to clean up test tables: %v", err)
	}
}
