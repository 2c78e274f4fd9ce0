package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/picatz/typedstorage/storage"
)

var _ storage.Store = (*Backend)(nil)

// Backend is an in-memory store. Entries are kept in insertion order.
type Backend struct {
	mu    sync.RWMutex
	store []storage.Entry
}

// NewBackend creates a new in-memory storage backend, which uses a slice to store entries.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) index(key string) int {
	return slices.IndexFunc(b.store, func(e storage.Entry) bool {
		return e.Key == key
	})
}

func (b *Backend) get(key string) (string, bool) {
	if i := b.index(key); i >= 0 {
		return b.store[i].Value, true
	}
	return "", false
}

func (b *Backend) set(key, value string) {
	// Check if the key already exists, and if so, update the value.
	if i := b.index(key); i >= 0 {
		b.store[i].Value = value
		return
	}
	b.store = append(b.store, storage.Entry{Key: key, Value: value})
}

func (b *Backend) remove(key string) {
	if i := b.index(key); i >= 0 {
		b.store = slices.Delete(b.store, i, i+1)
	}
}

// Get retrieves a value from the in-memory store by its key.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.get(key)
	return value, ok, nil
}

// Set stores a key-value pair in the in-memory store.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.set(key, value)
	return nil
}

// Remove deletes a key-value pair from the in-memory store by its key.
func (b *Backend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.remove(key)
	return nil
}

// Merge deep merges value into the JSON object stored under key.
func (b *Backend) Merge(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	base := storage.EmptyObject
	if current, ok := b.get(key); ok {
		base = current
	}

	merged, err := storage.MergeJSON(base, value)
	if err != nil {
		return err
	}

	b.set(key, merged)
	return nil
}

// MultiGet reads every key under a single lock.
func (b *Backend) MultiGet(ctx context.Context, keys []string) ([]storage.Lookup, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lookups := make([]storage.Lookup, 0, len(keys))
	for _, key := range keys {
		value, ok := b.get(key)
		lookups = append(lookups, storage.Lookup{Key: key, Value: value, Found: ok})
	}
	return lookups, nil
}

// MultiSet writes every entry under a single lock.
func (b *Backend) MultiSet(ctx context.Context, entries []storage.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range entries {
		b.set(entry.Key, entry.Value)
	}
	return nil
}

// MultiRemove deletes every key under a single lock.
func (b *Backend) MultiRemove(ctx context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range keys {
		b.remove(key)
	}
	return nil
}

// AllKeys returns every key in insertion order.
func (b *Backend) AllKeys(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.store))
	for _, entry := range b.store {
		keys = append(keys, entry.Key)
	}
	return keys, nil
}

// Clear drops every entry.
func (b *Backend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = nil
	return nil
}

// Close is a no-op for the in-memory backend.
func (b *Backend) Close(context.Context) error {
	return nil
}
