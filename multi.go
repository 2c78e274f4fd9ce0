package typedstorage

import (
	"context"
	"log/slog"

	"github.com/picatz/typedstorage/storage"
)

// Item is a typed value paired with its key, ready for [Storage.MultiSet].
type Item interface {
	Key() string

	value() any
}

type pair[V any] struct {
	key Key[V]
	val V
}

func (p pair[V]) Key() string { return p.key.name }
func (p pair[V]) value() any  { return p.val }

// Pair binds value to key for a batched write.
func Pair[V any](key Key[V], value V) Item {
	return pair[V]{key: key, val: value}
}

// MultiSet encodes every item and writes them all in one call to the
// store, in argument order. Nothing is written if any item fails to encode.
func (s *Storage) MultiSet(ctx context.Context, items ...Item) error {
	s.logger.DebugContext(ctx, "multi set", slog.Int("count", len(items)))

	entries := make([]storage.Entry, 0, len(items))
	for _, item := range items {
		text, err := s.encode(item.Key(), item.value())
		if err != nil {
			return err
		}
		entries = append(entries, storage.Entry{Key: item.Key(), Value: text})
	}
	return s.store.MultiSet(ctx, entries)
}

// Values holds the result of [Storage.MultiGet]: one slot per requested key,
// each either a decoded value or absent.
type Values struct {
	names  []string
	keys   map[string]AnyKey
	values map[string]any
	found  map[string]bool
}

// Names returns the requested names in request order.
func (v *Values) Names() []string {
	return append([]string(nil), v.names...)
}

// Len returns the number of distinct requested keys.
func (v *Values) Len() int {
	return len(v.found)
}

// Has reports whether name was requested.
func (v *Values) Has(name string) bool {
	_, ok := v.found[name]
	return ok
}

// Found reports whether a value was stored under name.
func (v *Values) Found(name string) bool {
	return v.found[name]
}

// Get returns the decoded value read for key. ok is false when the key was
// absent, was not requested, or was requested with a different value type.
func Get[V any](v *Values, key Key[V]) (value V, ok bool) {
	if !v.found[key.name] {
		return value, false
	}
	if _, same := v.keys[key.name].(Key[V]); !same {
		return value, false
	}
	// A stored null decodes to a nil interface when V is an interface type.
	value, _ = v.values[key.name].(V)
	return value, true
}

// MultiGet reads all keys in one call to the store and decodes each value
// present. The result covers exactly the requested keys.
func (s *Storage) MultiGet(ctx context.Context, keys ...AnyKey) (*Values, error) {
	s.logger.DebugContext(ctx, "multi get", slog.Int("count", len(keys)))

	names := make([]string, 0, len(keys))
	byName := make(map[string]AnyKey, len(keys))
	for _, key := range keys {
		if _, dup := byName[key.Name()]; dup {
			continue
		}
		names = append(names, key.Name())
		byName[key.Name()] = key
	}

	lookups, err := s.store.MultiGet(ctx, names)
	if err != nil {
		return nil, err
	}

	values := &Values{
		names:  names,
		keys:   byName,
		values: make(map[string]any, len(keys)),
		found:  make(map[string]bool, len(keys)),
	}
	for _, name := range names {
		values.found[name] = false
	}

	for _, lookup := range lookups {
		key, requested := byName[lookup.Key]
		if !requested || !lookup.Found {
			continue
		}

		value, err := key.decode(s.codec, lookup.Value)
		if err != nil {
			return nil, &MalformedDataError{Key: lookup.Key, Err: err}
		}
		values.values[lookup.Key] = value
		values.found[lookup.Key] = true
	}

	return values, nil
}

// MultiRemove deletes all keys in one call to the store.
func (s *Storage) MultiRemove(ctx context.Context, keys ...AnyKey) error {
	s.logger.DebugContext(ctx, "multi remove", slog.Int("count", len(keys)))

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key.Name())
	}
	return s.store.MultiRemove(ctx, names)
}
