package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoDatabase is returned by OpenExisting when there is no database file.
var ErrNoDatabase = errors.New("no portfolio database")

// busyTimeout bounds how long a write waits for another process's lock.
const busyTimeout = 5 * time.Second

// Files returns the database path followed by the journal files SQLite keeps
// next to it. Together they hold every committed change; the shared-memory
// index is left out because readers touch it too.
func Files(dbPath string) []string {
	return []string{dbPath, dbPath + "-wal", dbPath + "-journal"}
}

// Size returns the bytes used by the database and its journal files. Files
// that do not exist count as zero.
func Size(dbPath string) (int64, error) {
	var total int64
	for _, f := range Files(dbPath) {
		stat, err := os.Stat(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("sizing %s: %w", filepath.Base(f), err)
		}
		total += stat.Size()
	}
	return total, nil
}

// Open opens or creates the SQLite database at dbPath with WAL journaling,
// foreign keys, and a busy timeout so a second portfolio process waits for
// the lock instead of failing.
func Open(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: pragmas are per connection and SQLite has one writer.
	conn.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds()),
	} {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return conn, nil
}

// Create makes dataDir and a database with the current schema at dbPath. An
// existing database is migrated instead; created reports which happened.
func Create(dataDir, dbPath string) (conn *sql.DB, created bool, err error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, false, fmt.Errorf("creating data directory: %w", err)
	}

	if _, err := os.Stat(dbPath); err == nil {
		conn, err := OpenExisting(dbPath)
		return conn, false, err
	} else if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("checking database: %w", err)
	}

	conn, err = Open(dbPath)
	if err != nil {
		return nil, false, err
	}
	if err := Initialize(conn); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("initializing schema: %w", err)
	}
	return conn, true, nil
}

// OpenExisting opens a database made by Create and migrates it to the
// current schema. A missing file is ErrNoDatabase rather than a new, empty
// database.
func OpenExisting(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDatabase
		}
		return nil, fmt.Errorf("checking database: %w", err)
	}

	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return conn, nil
}
