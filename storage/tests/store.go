package tests

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/picatz/typedstorage/storage"
	"github.com/shoenig/test/must"
)

// StoreSuite tests a backend implementation of the storage package, using
// the provided store instance to perform the tests. The store is cleared
// before each case.
func StoreSuite(t *testing.T, store storage.Store) {
	t.Helper()

	reset := func(t *testing.T) {
		t.Helper()
		must.NoError(t, store.Clear(t.Context()))
	}

	t.Run("set and get", func(t *testing.T) {
		reset(t)

		err := store.Set(t.Context(), "hello", "world")
		must.NoError(t, err)

		value, ok, err := store.Get(t.Context(), "hello")
		must.NoError(t, err)
		must.True(t, ok)
		must.Eq(t, "world", value)

		err = store.Set(t.Context(), "hello", "world2")
		must.NoError(t, err)

		value, ok, err = store.Get(t.Context(), "hello")
		must.NoError(t, err)
		must.True(t, ok)
		must.Eq(t, "world2", value)
	})

	t.Run("empty value is not absent", func(t *testing.T) {
		reset(t)

		must.NoError(t, store.Set(t.Context(), "empty", ""))

		value, ok, err := store.Get(t.Context(), "empty")
		must.NoError(t, err)
		must.True(t, ok)
		must.Eq(t, "", value)
	})

	t.Run("get missing", func(t *testing.T) {
		reset(t)

		value, ok, err := store.Get(t.Context(), "missing")
		must.NoError(t, err)
		must.False(t, ok)
		must.Eq(t, "", value)
	})

	t.Run("remove", func(t *testing.T) {
		reset(t)

		must.NoError(t, store.Set(t.Context(), "hello", "world"))
		must.NoError(t, store.Remove(t.Context(), "hello"))

		_, ok, err := store.Get(t.Context(), "hello")
		must.NoError(t, err)
		must.False(t, ok)

		// Removing an absent key is not an error.
		must.NoError(t, store.Remove(t.Context(), "hello"))
	})

	t.Run("batch", func(t *testing.T) {
		reset(t)

		err := store.MultiSet(t.Context(), []storage.Entry{
			{Key: "a", Value: "1"},
			{Key: "b", Value: "2"},
		})
		must.NoError(t, err)

		lookups, err := store.MultiGet(t.Context(), []string{"b", "c", "a"})
		must.NoError(t, err)
		must.Eq(t, []storage.Lookup{
			{Key: "b", Value: "2", Found: true},
			{Key: "c"},
			{Key: "a", Value: "1", Found: true},
		}, lookups)

		must.NoError(t, store.MultiRemove(t.Context(), []string{"a", "c"}))

		keys, err := store.AllKeys(t.Context())
		must.NoError(t, err)
		must.Eq(t, []string{"b"}, keys)
	})

	t.Run("merge", func(t *testing.T) {
		reset(t)

		err := store.Set(t.Context(), "profile", `{"name":"gopher","tags":["a","b"],"address":{"city":"Oslo","zip":"0150"}}`)
		must.NoError(t, err)

		err = store.Merge(t.Context(), "profile", `{"tags":["c"],"address":{"city":"Bergen"},"age":3}`)
		must.NoError(t, err)

		value, ok, err := store.Get(t.Context(), "profile")
		must.NoError(t, err)
		must.True(t, ok)

		var got map[string]any
		must.NoError(t, json.Unmarshal([]byte(value), &got))
		must.Eq(t, map[string]any{
			"name":    "gopher",
			"tags":    []any{"c"},
			"address": map[string]any{"city": "Bergen", "zip": "0150"},
			"age":     float64(3),
		}, got)
	})

	t.Run("merge absent", func(t *testing.T) {
		reset(t)

		must.NoError(t, store.Merge(t.Context(), "fresh", `{"z":1, "a":{"b":true}}`))

		value, ok, err := store.Get(t.Context(), "fresh")
		must.NoError(t, err)
		must.True(t, ok)
		must.Eq(t, `{"a":{"b":true},"z":1}`, value)
	})

	t.Run("merge not an object", func(t *testing.T) {
		reset(t)

		must.NoError(t, store.Set(t.Context(), "list", `[1,2,3]`))

		err := store.Merge(t.Context(), "list", `{"a":1}`)
		must.ErrorIs(t, err, storage.ErrNotMergeable)

		value, _, err := store.Get(t.Context(), "list")
		must.NoError(t, err)
		must.Eq(t, `[1,2,3]`, value)
	})

	t.Run("all keys and clear", func(t *testing.T) {
		reset(t)

		for _, key := range []string{"x", "y", "z"} {
			must.NoError(t, store.Set(t.Context(), key, key))
		}

		keys, err := store.AllKeys(t.Context())
		must.NoError(t, err)
		slices.Sort(keys)
		must.Eq(t, []string{"x", "y", "z"}, keys)

		must.NoError(t, store.Clear(t.Context()))

		keys, err = store.AllKeys(t.Context())
		must.NoError(t, err)
		must.SliceEmpty(t, keys)
	})
}
