package db

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	write := buildDSN("/tmp/meta.sqlite", "write")
	assert.True(t, strings.HasPrefix(write, "/tmp/meta.sqlite?"))
	assert.Contains(t, write, "_journal_mode=WAL")
	assert.Contains(t, write, "_busy_timeout=5000")
	assert.Contains(t, write, "_synchronous=NORMAL")
	assert.Contains(t, write, "_foreign_keys=on")
	assert.Contains(t, write, "_txlock=immediate")

	read := buildDSN("/tmp/meta.sqlite", "read")
	assert.Contains(t, read, "_journal_mode=WAL")
	assert.NotContains(t, read, "_txlock")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "meta.sqlite"), "invalid", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_WritePool(t *testing.T) {
	pool, err := OpenSQLite(filepath.Join(t.TempDir(), "meta.sqlite"), "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	var journalMode string
	require.NoError(t, pool.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	var busyTimeout int
	require.NoError(t, pool.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var fk int
	require.NoError(t, pool.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	assert.Equal(t, 1, pool.Stats().MaxOpenConnections)
}

func TestOpenSQLite_ReadPoolSizing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.sqlite")
	wdb, err := OpenSQLite(path, "write", 0)
	require.NoError(t, err)
	wdb.Close()

	pool, err := OpenSQLite(path, "read", 0)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	assert.Equal(t, 4, pool.Stats().MaxOpenConnections)

	pool8, err := OpenSQLite(path, "read", 8)
	require.NoError(t, err)
	t.Cleanup(func() { pool8.Close() })
	assert.Equal(t, 8, pool8.Stats().MaxOpenConnections)
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/meta.sqlite", "write", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpenSQLitePair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	require.NoError(t, err)
	t.Cleanup(func() {
		writeDB.Close()
		readDB.Close()
	})

	assert.Equal(t, 1, writeDB.Stats().MaxOpenConnections)
	assert.Equal(t, 4, readDB.Stats().MaxOpenConnections)

	// Writes through the write pool are visible to the read pool.
	_, err = writeDB.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, val TEXT)")
	require.NoError(t, err)
	_, err = writeDB.Exec("INSERT INTO t (val) VALUES ('hello')")
	require.NoError(t, err)

	var val string
	require.NoError(t, readDB.QueryRow("SELECT val FROM t WHERE id = 1").Scan(&val))
	assert.Equal(t, "hello", val)
}

func TestOpenSQLitePair_ConcurrentAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	require.NoError(t, err)
	t.Cleanup(func() {
		writeDB.Close()
		readDB.Close()
	})

	_, err = writeDB.Exec("CREATE TABLE counter (id INTEGER PRIMARY KEY, n INTEGER)")
	require.NoError(t, err)
	_, err = writeDB.Exec("INSERT INTO counter (id, n) VALUES (1, 0)")
	require.NoError(t, err)

	// busy_timeout keeps concurrent writers and readers from SQLITE_BUSY.
	var wg sync.WaitGroup
	writeErrs := make([]error, 20)
	readErrs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = writeDB.Exec("UPDATE counter SET n = n + 1 WHERE id = 1")
		}(i)
		go func(idx int) {
			defer wg.Done()
			var n int
			readErrs[idx] = readDB.QueryRow("SELECT n FROM counter WHERE id = 1").Scan(&n)
		}(i)
	}
	wg.Wait()

	for i := range writeErrs {
		assert.NoError(t, writeErrs[i], "writer %d", i)
		assert.NoError(t, readErrs[i], "reader %d", i)
	}

	var n int
	require.NoError(t, readDB.QueryRow("SELECT n FROM counter WHERE id = 1").Scan(&n))
	assert.Equal(t, 20, n)
}

func TestRunMigrations_CreatesMetastoreTables(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)
	_ = writeDB

	for _, table := range []string{"templates", "generation_runs", "api_keys"} {
		var name string
		err := readDB.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
		assert.Equal(t, table, name)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)
	// A second run must be a no-op, not an error.
	require.NoError(t, RunMigrations(writeDB))
}
