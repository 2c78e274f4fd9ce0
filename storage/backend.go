package storage

import "context"

// Entry is a key and the text stored under it.
type Entry struct {
	Key   string
	Value string
}

// Lookup is the outcome of reading one key as part of a batch.
//
// Found is false when nothing is stored under Key, in which case
// Value is empty.
type Lookup struct {
	Key   string
	Value string
	Found bool
}

// Store is a key-value store addressed by string keys holding string values.
//
// Implementations decide durability and atomicity. Removing a key that does
// not exist is not an error. MultiGet returns exactly one Lookup per requested
// key, in the order requested.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Merge(ctx context.Context, key, value string) error
	MultiGet(ctx context.Context, keys []string) ([]Lookup, error)
	MultiSet(ctx context.Context, entries []Entry) error
	MultiRemove(ctx context.Context, keys []string) error
	AllKeys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}
