// Package testutil provides shared test helpers for setting up
// library directories and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/eyefile/internal/files"
	"github.com/starford/eyefile/internal/store"
)

// TestStore creates a temporary SQLite database that is automatically
// cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "eyefile-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoot creates a temporary library directory with a files.Root.
func TestRoot(t *testing.T) (string, *files.Root) {
	t.Helper()
	dir := t.TempDir()
	root, err := files.NewRoot(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, root
}
