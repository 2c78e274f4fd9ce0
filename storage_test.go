package typedstorage_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/picatz/typedstorage"
	"github.com/picatz/typedstorage/storage"
	"github.com/picatz/typedstorage/storage/memory"
	backendPebble "github.com/picatz/typedstorage/storage/pebble"
	"github.com/picatz/typedstorage/storage/sqlite"
	"github.com/shoenig/test/must"
)

type Address struct {
	City string `json:"city"`
	Zip  string `json:"zip"`
}

type User struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Tags    []string `json:"tags"`
	Address Address  `json:"address"`
}

var (
	schema  = typedstorage.NewSchema()
	Profile = typedstorage.Define[User](schema, "profile")
	A       = typedstorage.Define[int](schema, "a")
	B       = typedstorage.Define[int](schema, "b")
	C       = typedstorage.Define[int](schema, "c")
	Raw     = typedstorage.Define[string](schema, "raw")
)

// stores returns every backend, so each case runs against all of them.
func stores(t *testing.T) map[string]storage.Store {
	t.Helper()

	p, err := backendPebble.NewBackend("", &pebble.Options{FS: vfs.NewMem()})
	must.NoError(t, err)
	t.Cleanup(func() {
		must.NoError(t, p.Close(t.Context()))
	})

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "kv.db"))
	must.NoError(t, err)
	t.Cleanup(func() {
		must.NoError(t, s.Close(t.Context()))
	})

	return map[string]storage.Store{
		"memory": memory.NewBackend(),
		"pebble": p,
		"sqlite": s,
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s *typedstorage.Storage)) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, typedstorage.New(store, typedstorage.WithSchema(schema)))
		})
	}
}

func TestStorage_round_trip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		want := User{
			Name:    "gopher",
			Age:     13,
			Tags:    []string{"go", "kv"},
			Address: Address{City: "Oslo", Zip: "0150"},
		}

		must.NoError(t, typedstorage.SetItem(t.Context(), s, Profile, want))

		got, err := typedstorage.GetItem(t.Context(), s, Profile)
		must.NoError(t, err)
		must.Eq(t, want, got)
	})
}

func TestStorage_not_found(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		_, err := typedstorage.GetItem(t.Context(), s, Profile)
		must.ErrorIs(t, err, typedstorage.ErrNotFound)

		var notFound *typedstorage.NotFoundError
		must.True(t, errors.As(err, &notFound))
		must.Eq(t, "profile", notFound.Key)

		value, ok, err := typedstorage.GetNullableItem(t.Context(), s, Profile)
		must.NoError(t, err)
		must.False(t, ok)
		must.Eq(t, User{}, value)
	})
}

func TestStorage_multi(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		err := s.MultiSet(t.Context(), typedstorage.Pair(A, 1), typedstorage.Pair(B, 2))
		must.NoError(t, err)

		values, err := s.MultiGet(t.Context(), A, B, C)
		must.NoError(t, err)
		must.Eq(t, []string{"a", "b", "c"}, values.Names())
		must.Eq(t, 3, values.Len())

		a, ok := typedstorage.Get(values, A)
		must.True(t, ok)
		must.Eq(t, 1, a)

		b, ok := typedstorage.Get(values, B)
		must.True(t, ok)
		must.Eq(t, 2, b)

		c, ok := typedstorage.Get(values, C)
		must.False(t, ok)
		must.Eq(t, 0, c)
		must.True(t, values.Has("c"))
		must.False(t, values.Found("c"))

		_, ok = typedstorage.Get(values, Raw)
		must.False(t, ok)
		must.False(t, values.Has("raw"))

		must.NoError(t, s.MultiRemove(t.Context(), A, B))

		values, err = s.MultiGet(t.Context(), A, B)
		must.NoError(t, err)
		must.False(t, values.Found("a"))
		must.False(t, values.Found("b"))
	})
}

func TestStorage_multi_get_duplicates(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		must.NoError(t, typedstorage.SetItem(t.Context(), s, A, 1))

		values, err := s.MultiGet(t.Context(), A, A, B)
		must.NoError(t, err)
		must.Eq(t, []string{"a", "b"}, values.Names())
		must.Eq(t, 2, values.Len())

		a, ok := typedstorage.Get(values, A)
		must.True(t, ok)
		must.Eq(t, 1, a)
	})
}

func TestStorage_multi_get_unrequested(t *testing.T) {
	store := extraLookupStore{
		Store: memory.NewBackend(),
		extra: storage.Lookup{Key: "extra", Value: "not json", Found: true},
	}
	s := typedstorage.New(store)

	must.NoError(t, typedstorage.SetItem(t.Context(), s, A, 1))

	values, err := s.MultiGet(t.Context(), A)
	must.NoError(t, err)
	must.Eq(t, []string{"a"}, values.Names())
	must.Eq(t, 1, values.Len())
	must.False(t, values.Has("extra"))
	must.False(t, values.Found("extra"))
}

func TestStorage_multi_get_null(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		anything := typedstorage.NewKey[any]("anything")
		user := typedstorage.NewKey[*User]("user")

		must.NoError(t, typedstorage.SetItem(t.Context(), s, anything, nil))
		must.NoError(t, typedstorage.SetItem(t.Context(), s, user, nil))

		_, ok, err := typedstorage.GetNullableItem(t.Context(), s, anything)
		must.NoError(t, err)
		must.True(t, ok)

		values, err := s.MultiGet(t.Context(), anything, user)
		must.NoError(t, err)
		must.True(t, values.Found("anything"))
		must.True(t, values.Found("user"))

		v, ok := typedstorage.Get(values, anything)
		must.True(t, ok)
		must.Nil(t, v)

		u, ok := typedstorage.Get(values, user)
		must.True(t, ok)
		must.Nil(t, u)

		// Same name, different value type.
		_, ok = typedstorage.Get(values, typedstorage.NewKey[string]("anything"))
		must.False(t, ok)
	})
}

func TestParsePatch(t *testing.T) {
	patch, err := typedstorage.ParsePatch(`{"id":9007199254740993,"a":{"b":1.5}}`)
	must.NoError(t, err)
	must.EqOp(t, json.Number("9007199254740993"), patch["id"].(json.Number))

	for _, text := range []string{`null`, `[1]`, `"x"`, `{"a":`, `{} {}`, ``} {
		_, err := typedstorage.ParsePatch(text)
		must.ErrorIs(t, err, typedstorage.ErrInvalidPatch, must.Sprintf("text %q", text))
	}
}

func TestStorage_remove(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		must.NoError(t, typedstorage.SetItem(t.Context(), s, A, 42))
		must.NoError(t, typedstorage.RemoveItem(t.Context(), s, A))

		_, ok, err := typedstorage.GetNullableItem(t.Context(), s, A)
		must.NoError(t, err)
		must.False(t, ok)
	})
}

func TestStorage_clear(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		must.NoError(t, typedstorage.SetItem(t.Context(), s, A, 1))
		must.NoError(t, s.SetKey(t.Context(), "undeclared", "x"))

		keys, err := s.AllKeys(t.Context())
		must.NoError(t, err)
		must.SliceLen(t, 2, keys)

		must.NoError(t, s.Clear(t.Context()))

		keys, err = s.AllKeys(t.Context())
		must.NoError(t, err)
		must.SliceEmpty(t, keys)
	})
}

func TestStorage_raw_keys(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		must.NoError(t, s.SetKey(t.Context(), "raw", "hello"))

		text, ok, err := s.GetKey(t.Context(), "raw")
		must.NoError(t, err)
		must.True(t, ok)
		must.Eq(t, "hello", text)

		// "hello" without quotes is not JSON, so the typed read fails.
		_, err = typedstorage.GetItem(t.Context(), s, Raw)
		var malformed *typedstorage.MalformedDataError
		must.True(t, errors.As(err, &malformed))
		must.Eq(t, "raw", malformed.Key)

		must.NoError(t, s.RemoveKey(t.Context(), "raw"))

		_, ok, err = s.GetKey(t.Context(), "raw")
		must.NoError(t, err)
		must.False(t, ok)
	})
}

func TestStorage_malformed_multi_get(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		must.NoError(t, s.SetKey(t.Context(), "a", `{"not":"an int"}`))

		_, err := s.MultiGet(t.Context(), A)
		var malformed *typedstorage.MalformedDataError
		must.True(t, errors.As(err, &malformed))
		must.Eq(t, "a", malformed.Key)
	})
}

func TestStorage_merge(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *typedstorage.Storage) {
		err := typedstorage.SetItem(t.Context(), s, Profile, User{
			Name:    "gopher",
			Age:     13,
			Tags:    []string{"a", "b"},
			Address: Address{City: "Oslo", Zip: "0150"},
		})
		must.NoError(t, err)

		err = typedstorage.MergeItem(t.Context(), s, Profile, typedstorage.Patch{
			"age":     14,
			"tags":    []string{"c"},
			"address": typedstorage.Patch{"city": "Bergen"},
		})
		must.NoError(t, err)

		got, err := typedstorage.GetItem(t.Context(), s, Profile)
		must.NoError(t, err)
		must.Eq(t, User{
			Name:    "gopher",
			Age:     14,
			Tags:    []string{"c"},
			Address: Address{City: "Bergen", Zip: "0150"},
		}, got)
	})
}

func TestStorage_merge_not_object(t *testing.T) {
	s := typedstorage.New(memory.NewBackend())

	must.NoError(t, typedstorage.SetItem(t.Context(), s, A, 1))

	err := typedstorage.MergeItem(t.Context(), s, A, typedstorage.Patch{"x": 1})
	must.ErrorIs(t, err, storage.ErrNotMergeable)
}

func TestStorage_encode_error(t *testing.T) {
	s := typedstorage.New(memory.NewBackend())
	Chan := typedstorage.NewKey[chan int]("chan")

	err := typedstorage.SetItem(t.Context(), s, Chan, make(chan int))
	var encodeErr *typedstorage.EncodeError
	must.True(t, errors.As(err, &encodeErr))
	must.Eq(t, "chan", encodeErr.Key)

	err = s.MultiSet(t.Context(), typedstorage.Pair(A, 1), typedstorage.Pair(Chan, make(chan int)))
	must.True(t, errors.As(err, &encodeErr))

	// Nothing from the failed batch is written.
	keys, err := s.AllKeys(t.Context())
	must.NoError(t, err)
	must.SliceEmpty(t, keys)
}

func TestStorage_known(t *testing.T) {
	s := typedstorage.New(memory.NewBackend(), typedstorage.WithSchema(schema))
	must.True(t, s.Known("profile"))
	must.False(t, s.Known("undeclared"))

	must.False(t, typedstorage.New(memory.NewBackend()).Known("profile"))
}

func TestStorage_logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := typedstorage.New(memory.NewBackend(), typedstorage.WithLogger(logger))
	must.NoError(t, typedstorage.SetItem(t.Context(), s, A, 7))

	must.StrContains(t, buf.String(), `msg="set item"`)
	must.StrContains(t, buf.String(), "key=a")
}

type countingCodec struct {
	typedstorage.JSONCodec
	encoded int
}

func (c *countingCodec) Encode(v any) ([]byte, error) {
	c.encoded++
	return c.JSONCodec.Encode(v)
}

func TestStorage_codec(t *testing.T) {
	codec := &countingCodec{}
	s := typedstorage.New(memory.NewBackend(), typedstorage.WithCodec(codec))

	must.NoError(t, typedstorage.SetItem(t.Context(), s, A, 7))
	must.NoError(t, s.MultiSet(t.Context(), typedstorage.Pair(B, 8), typedstorage.Pair(C, 9)))
	must.Eq(t, 3, codec.encoded)

	got, err := typedstorage.GetItem(t.Context(), s, C)
	must.NoError(t, err)
	must.Eq(t, 9, got)
}

func TestStorage_store_errors_pass_through(t *testing.T) {
	boom := errors.New("boom")
	s := typedstorage.New(failingStore{err: boom})

	_, err := typedstorage.GetItem(t.Context(), s, A)
	must.ErrorIs(t, err, boom)
	must.EqOp(t, boom, err)

	_, err = s.MultiGet(t.Context(), A)
	must.EqOp(t, boom, err)

	must.EqOp(t, boom, typedstorage.SetItem(t.Context(), s, A, 1))
	must.EqOp(t, boom, typedstorage.MergeItem(t.Context(), s, Profile, typedstorage.Patch{"age": 1}))
	must.EqOp(t, boom, s.Clear(t.Context()))
}
