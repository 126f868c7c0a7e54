// Package db provides connectivity and migration support for the SQLite
// metastore that holds templates, generation runs, and API keys.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Hardening applied to every pool.
const (
	busyTimeoutMS      = "5000"
	synchronousLevel   = "NORMAL"
	walJournalMode     = "WAL"
	defaultReadPoolMax = 4
	pingTimeout        = 5 * time.Second
)

// OpenSQLite opens a *sql.DB pool over the SQLite file at path.
//
// mode selects pool sizing and transaction locking:
//   - "write": single connection (MaxOpenConns=1) with _txlock=immediate
//   - "read":  maxOpen connections (0 means 4), no _txlock
//
// Every pool gets WAL journaling, a 5s busy timeout, synchronous=NORMAL,
// and foreign keys enforced.
func OpenSQLite(path string, mode string, maxOpen int) (*sql.DB, error) {
	var open, idle int
	switch mode {
	case "write":
		open, idle = 1, 1
	case "read":
		if maxOpen <= 0 {
			maxOpen = defaultReadPoolMax
		}
		open, idle = maxOpen, maxOpen
	default:
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	pool, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}
	pool.SetMaxOpenConns(open)
	pool.SetMaxIdleConns(idle)
	pool.SetConnMaxLifetime(time.Hour)

	if err := ping(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return pool, nil
}

func ping(pool *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return pool.PingContext(ctx)
}

// OpenSQLitePair opens a single-writer pool and a sized read pool over the
// same SQLite file. The split keeps write transactions serialized while
// reads fan out, which is how SQLite behaves best under a Go HTTP server.
//
// readMaxOpen controls the read pool size (0 defaults to 4).
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	if writeDB, err = OpenSQLite(path, "write", 0); err != nil {
		return nil, nil, err
	}
	if readDB, err = OpenSQLite(path, "read", readMaxOpen); err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}
	return writeDB, readDB, nil
}

// buildDSN appends the hardened connection parameters to the file path.
// Write pools additionally take immediate transaction locks so concurrent
// writers queue instead of failing on lock upgrade.
func buildDSN(path string, mode string) string {
	params := url.Values{
		"_journal_mode": {walJournalMode},
		"_busy_timeout": {busyTimeoutMS},
		"_synchronous":  {synchronousLevel},
		"_foreign_keys": {"on"},
	}
	if mode == "write" {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
