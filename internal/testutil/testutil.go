// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"geocache/internal/store"
)

// TestPostgres creates a test database connection and returns a cleanup
// function. Skips the test unless TEST_DATABASE_URL is set.
func TestPostgres(t *testing.T, ttl time.Duration) (*store.Postgres, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pg, err := store.NewPostgres(ctx, connString, ttl)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	// Run migrations
	if err := pg.RunMigrations(connString); err != nil {
		pg.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanup := func() {
		pg.Pool.Exec(ctx, "DELETE FROM ip_locations")
		pg.Close()
	}

	return pg, cleanup
}

// TestFileStore creates a fallback file store in a temp directory.
func TestFileStore(t *testing.T, ttl time.Duration) *store.File {
	t.Helper()

	f, err := store.NewFile(filepath.Join(t.TempDir(), "fallback.json"), ttl)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return f
}
