// Package storage is the SQLite cache used by the fetch job. It remembers
// place details and review translations so a rerun inside the cache TTL
// does not spend Places or Translation quota again.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/garyellow/taichung-eats-linebot/internal/config"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// DB wraps the SQLite database connection
type DB struct {
	conn     *sql.DB
	path     string
	cacheTTL time.Duration
	now      func() time.Time
}

// New opens the database at dbPath, applies pragmas and creates the schema.
// Entries older than cacheTTL are treated as missing.
func New(ctx context.Context, dbPath string, cacheTTL time.Duration) (*DB, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The fetch job is sequential; a single connection also keeps
	// ":memory:" databases from splitting across connections.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", config.DatabaseBusyTimeout.Milliseconds()),
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return newWithConn(conn, dbPath, cacheTTL), nil
}

func newWithConn(conn *sql.DB, path string, cacheTTL time.Duration) *DB {
	return &DB{conn: conn, path: path, cacheTTL: cacheTTL, now: time.Now}
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// CacheTTL returns the configured cache TTL
func (db *DB) CacheTTL() time.Duration {
	return db.cacheTTL
}

// cutoff is the Unix time before which entries are expired.
func (db *DB) cutoff() int64 {
	return db.now().Add(-db.cacheTTL).Unix()
}

// NewTestDB creates an in-memory database with a 7-day TTL.
func NewTestDB(ctx context.Context) (*DB, error) {
	return New(ctx, ":memory:", 168*time.Hour)
}
