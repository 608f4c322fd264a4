// Package testutil provides shared test helpers for setting up stores
// and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/fele-systems/memendex/internal/repo"
	"github.com/fele-systems/memendex/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *repo.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "memendex-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := repo.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary upload directory with an FS provider.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	uploadDir := t.TempDir()
	store, err := storage.NewFS(uploadDir)
	if err != nil {
		t.Fatal(err)
	}
	return uploadDir, store
}
