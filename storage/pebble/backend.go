package pebble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/picatz/typedstorage/storage"
)

// Ensure that Backend implements the storage.Store interface.
var _ storage.Store = (*Backend)(nil)

// Backend is a storage backend that uses Pebble as the underlying storage engine.
//
// Pebble can use an in-memory filesystem or a directory on disk for storage, depending
// on the options provided. Every write is committed with [pebble.Sync].
type Backend struct {
	db *pebble.DB

	// mergeMu serializes the read-modify-write cycle of Merge.
	mergeMu sync.Mutex
}

// NewBackend creates a new Pebble storage backend.
func NewBackend(dirname string, opts *pebble.Options) (*Backend, error) {
	db, err := pebble.Open(dirname, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}

	return &Backend{db: db}, nil
}

type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func get(r reader, key string) (string, bool, error) {
	valueBytes, closer, err := r.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get value: %w", err)
	}
	defer closer.Close()

	// The slice is only valid until closer is closed, string() copies it.
	return string(valueBytes), true, nil
}

// Get retrieves a value from the storage backend by its key.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	return get(b.db, key)
}

// Set stores a key-value pair in the storage backend.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := b.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	return nil
}

// Remove removes a key-value pair from the storage backend.
func (b *Backend) Remove(ctx context.Context, key string) error {
	if err := b.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Merge deep merges value into the JSON object stored under key.
func (b *Backend) Merge(ctx context.Context, key, value string) error {
	b.mergeMu.Lock()
	defer b.mergeMu.Unlock()

	current, ok, err := get(b.db, key)
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

	return b.Set(ctx, key, merged)
}

// MultiGet reads every key from a single snapshot of the database.
func (b *Backend) MultiGet(ctx context.Context, keys []string) ([]storage.Lookup, error) {
	snap := b.db.NewSnapshot()
	defer snap.Close()

	lookups := make([]storage.Lookup, 0, len(keys))
	for _, key := range keys {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("stopped multi get via context: %w", ctx.Err())
		}

		value, ok, err := get(snap, key)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, storage.Lookup{Key: key, Value: value, Found: ok})
	}
	return lookups, nil
}

// MultiSet writes every entry in one atomic batch.
func (b *Backend) MultiSet(ctx context.Context, entries []storage.Entry) error {
	batch := b.db.NewBatch()
	defer batch.Close()

	for _, entry := range entries {
		if err := batch.Set([]byte(entry.Key), []byte(entry.Value), nil); err != nil {
			return fmt.Errorf("failed to add %q to batch: %w", entry.Key, err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// MultiRemove deletes every key in one atomic batch.
func (b *Backend) MultiRemove(ctx context.Context, keys []string) error {
	batch := b.db.NewBatch()
	defer batch.Close()

	for _, key := range keys {
		if err := batch.Delete([]byte(key), nil); err != nil {
			return fmt.Errorf("failed to add %q to batch: %w", key, err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// AllKeys returns every key in the database, in byte order.
func (b *Backend) AllKeys(ctx context.Context) ([]string, error) {
	iter, err := b.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pebble storage backend iterator: %w", err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("stopped iteration via context: %w", ctx.Err())
		}
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

// Clear deletes the whole key range, from the first key up to and
// including the last one.
func (b *Backend) Clear(ctx context.Context) error {
	iter, err := b.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("failed to create pebble storage backend iterator: %w", err)
	}

	var (
		first, last []byte
		nonEmpty    = iter.First()
	)
	if nonEmpty {
		first = append([]byte{}, iter.Key()...)
		nonEmpty = iter.Last()
		last = append([]byte{}, iter.Key()...)
	}
	if err := errors.Join(iter.Error(), iter.Close()); err != nil {
		return fmt.Errorf("failed to find key range: %w", err)
	}

	if !nonEmpty {
		return nil
	}

	// The end of a range deletion is exclusive, so extend past the last key.
	end := append(last, 0)

	if err := b.db.DeleteRange(first, end, pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete key range: %w", err)
	}
	return nil
}

// Flush flushes the storage backend.
func (b *Backend) Flush(ctx context.Context) error {
	if err := b.db.Flush(); err != nil {
		return fmt.Errorf("failed to flush pebble database: %w", err)
	}
	return nil
}

// Close closes the storage backend.
func (b *Backend) Close(ctx context.Context) error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close pebble database: %w", err)
	}
	return nil
}
