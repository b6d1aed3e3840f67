package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

const ddlChunks = `CREATE TABLE IF NOT EXISTS chunks (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Compile-time interface compliance check.
var _ Store = (*SQLite)(nil)

// SQLite is a Store persisted in a single SQLite file.
type SQLite struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens (creating if needed) the cache database at path.
// The parent directory is created with 0700 permissions.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// One writer at a time avoids SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(ddlChunks); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM chunks WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return value, true, nil
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
