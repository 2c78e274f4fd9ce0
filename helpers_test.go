package typedstorage_test

import (
	"context"

	"github.com/picatz/typedstorage/storage"
)

var _ storage.Store = failingStore{}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error           { return f.err }
func (f failingStore) Remove(context.Context, string) error                { return f.err }
func (f failingStore) Merge(context.Context, string, string) error         { return f.err }
func (f failingStore) MultiGet(context.Context, []string) ([]storage.Lookup, error) {
	return nil, f.err
}
func (f failingStore) MultiSet(context.Context, []storage.Entry) error { return f.err }
func (f failingStore) MultiRemove(context.Context, []string) error     { return f.err }
func (f failingStore) AllKeys(context.Context) ([]string, error)       { return nil, f.err }
func (f failingStore) Clear(context.Context) error                     { return f.err }

// extraLookupStore answers MultiGet with one more lookup than was requested.
type extraLookupStore struct {
	storage.Store
	extra storage.Lookup
}

func (s extraLookupStore) MultiGet(ctx context.Context, keys []string) ([]storage.Lookup, error) {
	lookups, err := s.Store.MultiGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	return append(lookups, s.extra), nil
}
