package metadata

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// schemaVersion is bumped whenever the schema below changes shape.
// An on-disk database at an older version gets a snapshot backup
// before the new schema is applied.
const schemaVersion = 1

// DB wraps the embedded SQLite database holding skillhub metadata.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens the metadata database at path. The schema is
// applied idempotently; foreign keys and WAL journaling are always on.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// OpenMemory creates an in-memory metadata database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// migrate applies the schema, snapshotting the database file first when
// the stored version is older than the current one.
func (d *DB) migrate() error {
	var current int
	if err := d.QueryRow(`PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if current != 0 && current < schemaVersion && d.path != ":memory:" {
		if err := backupFile(d.path); err != nil {
			return fmt.Errorf("backing up database before migration: %w", err)
		}
	}

	if _, err := d.Exec(schema); err != nil {
		return err
	}
	_, err := d.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion))
	return err
}

// backupFile copies the database file next to itself with a .backup suffix.
func backupFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".backup")
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// schema contains the full database schema. The skill_summaries table is
// reserved for cached per-skill rows and cascades with its repository.
const schema = `
CREATE TABLE IF NOT EXISTS repositories (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL UNIQUE,
    local_path TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT 50 CHECK(priority BETWEEN 0 AND 100),
    license TEXT NOT NULL DEFAULT '',
    skill_count INTEGER NOT NULL DEFAULT 0,
    last_updated DATETIME,
    auto_update INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS skill_summaries (
    skill_id TEXT PRIMARY KEY,
    repo_id TEXT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'general'
);

CREATE INDEX IF NOT EXISTS idx_skill_summaries_repo ON skill_summaries(repo_id);
`

// Typed error kinds for store writes.
var (
	// ErrBusy means another writer holds the database lock.
	ErrBusy = errors.New("metadata store busy")
	// ErrConstraint means a uniqueness or check constraint was violated.
	ErrConstraint = errors.New("metadata constraint violation")
	// ErrCorrupt means the database file failed integrity checks.
	ErrCorrupt = errors.New("metadata store corrupt")
)

// classify maps a driver error onto the store's typed error kinds,
// preserving the original as wrapped context.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", ErrBusy, err)
	case strings.Contains(msg, "constraint"), strings.Contains(msg, "SQLITE_CONSTRAINT"):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	case strings.Contains(msg, "malformed"), strings.Contains(msg, "SQLITE_CORRUPT"):
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	default:
		return err
	}
}
