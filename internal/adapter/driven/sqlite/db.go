// Package sqlite stores the credential list in an SQLite database. It is the
// alternative to the JSON file backend and is selected with
// WPASS_STORE_BACKEND=sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// synchronous(FULL) keeps a saved credential list across power loss in WAL
// mode.
const filePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"

// DB holds the writer and reader pools of one credential database. The
// writer is limited to a single connection to avoid "database is locked"
// errors.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB

	path    string
	version uint
}

// Open opens the database file at path and migrates it to the latest
// schema. A missing file is created readable by the owner only.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := ensureFile(path); err != nil {
		return nil, err
	}
	return open(ctx, fmt.Sprintf("file:%s?%s", path, filePragmas), path)
}

// OpenMemory opens a migrated in-memory database named name. Both pools see
// the same data through the shared cache; it disappears on Close.
func OpenMemory(ctx context.Context, name string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", url.PathEscape(name))
	return open(ctx, dsn, ":memory:")
}

func open(ctx context.Context, dsn, path string) (*DB, error) {
	writer, err := openPool(ctx, dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	reader, err := openPool(ctx, dsn, 2)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: path}
	db.version, err = migrateUp(writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openPool(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxConns)
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}

func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("create database file: %w", err)
	}
	return f.Close()
}

// Path returns the database file, or ":memory:".
func (db *DB) Path() string { return db.path }

// SchemaVersion returns the migration version the database was brought to.
func (db *DB) SchemaVersion() uint { return db.version }

// Close closes both pools and returns the first error.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
