package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite gives a test a fully migrated metastore on a file under
// t.TempDir(). Both pools are closed automatically when the test finishes.
// Tests that never exercise the read/write split can just use writeDB.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "meta.sqlite"), 4)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return writeDB, readDB
}
