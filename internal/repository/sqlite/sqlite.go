// Package sqlite implements repository.KeyValueStore on an embedded SQLite file.
//
// WHY SQLITE FOR A KEY-VALUE STORE?
// The catalog only needs "get/set a document by key", but it needs that
// document to survive restarts and to be written atomically. SQLite gives us
// both in a single local file with no server to run, which is exactly the
// role localStorage played for the browser version of the catalog.
//
// modernc.org/sqlite is a pure Go translation of SQLite — no C compiler
// needed, so `go build` works everywhere Go works.
//
// ":memory:" gives a throwaway database, which the tests use.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/bookreview/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// compile-time check that *DB implements repository.KeyValueStore
var _ repository.KeyValueStore = (*DB)(nil)

// DB wraps a sql.DB connection pool holding the kv table.
type DB struct {
	conn      *sql.DB
	namespace string
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// namespace is prepended to every key ("bookreview" + "users" →
// "bookreview:users") so several catalogs can share one file.
func New(dbPath, namespace string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A :memory: database lives and dies with its connection. If the pool
	// opened a second connection it would see an empty database, so we pin
	// the pool to one connection.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping so a bad path or permissions problem surfaces here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets the HTTP API read while the CLI writes to the same file.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Wait instead of failing immediately when another process holds the lock.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn, namespace: strings.TrimSpace(namespace)}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the kv table. CREATE TABLE IF NOT EXISTS makes it safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

func (db *DB) key(k string) string {
	if db.namespace == "" {
		return k
	}
	return db.namespace + ":" + k
}

// Get returns the value stored under key, or repository.ErrKeyNotFound.
//
// sql.ErrNoRows is translated to the repository sentinel so the catalog
// never has to know it is talking to SQL.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`,
		db.key(key),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrKeyNotFound
		}
		return nil, fmt.Errorf("sqlite: getting key %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set stores value under key, replacing any previous value.
//
// ON CONFLICT ... DO UPDATE keeps the row (and its rowid) and only swaps the
// value, which is the whole-document overwrite the catalog relies on.
func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		db.key(key),
		string(value),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, db.key(key)); err != nil {
		return fmt.Errorf("sqlite: deleting key %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys under this namespace, without the prefix.
// Used by the CLI's diagnostics; the catalog itself never enumerates.
func (db *DB) Keys(ctx context.Context) ([]string, error) {
	prefix := ""
	if db.namespace != "" {
		prefix = db.namespace + ":"
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT key FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlite: scanning key row: %w", err)
		}
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating keys: %w", err)
	}
	return keys, nil
}
