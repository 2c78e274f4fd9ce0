// Package sqlite provides a storage backend on a single SQLite database file,
// using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/picatz/typedstorage/storage"
	_ "modernc.org/sqlite"
)

const (
	pragmaJournalModeWAL = `PRAGMA journal_mode=WAL`
	pragmaBusyTimeout    = `PRAGMA busy_timeout=5000`
	pragmaSynchronous    = `PRAGMA synchronous=NORMAL`

	createTable = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY NOT NULL,
	value TEXT NOT NULL
) WITHOUT ROWID`

	selectValue = `SELECT value FROM kv WHERE key = ?`
	upsertValue = `INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	deleteKey  = `DELETE FROM kv WHERE key = ?`
	selectKeys = `SELECT key FROM kv ORDER BY key`
	deleteAll  = `DELETE FROM kv`
)

var _ storage.Store = (*Backend)(nil)

// Backend stores entries in a single kv table.
type Backend struct {
	db   *sql.DB
	path string

	// mergeMu serializes the read-modify-write cycle of Merge.
	mergeMu sync.Mutex
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite storage: empty path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open sqlite storage: create parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite storage: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	for _, stmt := range []string{pragmaJournalModeWAL, pragmaBusyTimeout, pragmaSynchronous, createTable} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite %q: %w", stmt, err)
		}
	}

	return &Backend{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *Backend) Path() string {
	return b.path
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, selectValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// inTx runs fn in a transaction, committing if it returns nil.
func (b *Backend) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	return get(ctx, b.db, key)
}

func (b *Backend) Set(ctx context.Context, key, value string) error {
	if _, err := b.db.ExecContext(ctx, upsertValue, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (b *Backend) Remove(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, deleteKey, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Merge deep merges value into the JSON object stored under key, inside one transaction.
func (b *Backend) Merge(ctx context.Context, key, value string) error {
	b.mergeMu.Lock()
	defer b.mergeMu.Unlock()

	return b.inTx(ctx, func(tx *sql.Tx) error {
		current, ok, err := get(ctx, tx, key)
		if err != nil {
			return err
		}

		base := storage.EmptyObject
		if ok {
			base = current
		}

		merged, err := storage.MergeJSON(base, value)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, upsertValue, key, merged); err != nil {
			return fmt.Errorf("merge %q: %w", key, err)
		}
		return nil
	})
}

func (b *Backend) MultiGet(ctx context.Context, keys []string) ([]storage.Lookup, error) {
	lookups := make([]storage.Lookup, 0, len(keys))

	err := b.inTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			value, ok, err := get(ctx, tx, key)
			if err != nil {
				return err
			}
			lookups = append(lookups, storage.Lookup{Key: key, Value: value, Found: ok})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lookups, nil
}

func (b *Backend) MultiSet(ctx context.Context, entries []storage.Entry) error {
	return b.inTx(ctx, func(tx *sql.Tx) error {
		for _, entry := range entries {
			if _, err := tx.ExecContext(ctx, upsertValue, entry.Key, entry.Value); err != nil {
				return fmt.Errorf("set %q: %w", entry.Key, err)
			}
		}
		return nil
	})
}

func (b *Backend) MultiRemove(ctx context.Context, keys []string) error {
	return b.inTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, deleteKey, key); err != nil {
				return fmt.Errorf("remove %q: %w", key, err)
			}
		}
		return nil
	})
}

// AllKeys returns every key, sorted.
func (b *Backend) AllKeys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, selectKeys)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

func (b *Backend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, deleteAll); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close(context.Context) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
