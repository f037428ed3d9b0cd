// Package testing provides testing utilities and helpers for the screening
// service.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/valuescreen/internal/database"
)

// NewTestDB creates a migrated in-memory SQLite database closed on test
// cleanup.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()
	return open(t, database.MemoryPath, name)
}

// NewTestDBFromFile creates a migrated file backed database in a temporary
// directory. Use it when WAL behaviour or reopening matters.
func NewTestDBFromFile(t *testing.T, name string) *database.DB {
	t.Helper()
	return open(t, filepath.Join(t.TempDir(), name+".db"), name)
}

func open(t *testing.T, path, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}
	return db
}
