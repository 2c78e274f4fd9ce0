package typedstorage

import (
	"log/slog"

	"github.com/picatz/typedstorage/storage"
)

// Storage maps typed values onto a [storage.Store].
//
// A Storage is safe for concurrent use as long as its store is. It keeps
// no state between calls.
type Storage struct {
	store  storage.Store
	codec  Codec
	logger *slog.Logger
	schema *Schema
}

// Option is a function that configures a Storage.
type Option func(*Storage)

// WithCodec sets the codec used to encode and decode values.
//
// If the codec is nil, [JSONCodec] is used.
func WithCodec(c Codec) Option {
	return func(s *Storage) {
		if c == nil {
			c = JSONCodec{}
		}
		s.codec = c
	}
}

// WithLogger sets the logger used for per-operation debug logs.
//
// If the logger is nil, nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(s *Storage) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		s.logger = l
	}
}

// WithSchema attaches the schema consulted by [Storage.Known].
func WithSchema(schema *Schema) Option {
	return func(s *Storage) {
		s.schema = schema
	}
}

// New returns a Storage backed by store.
//
// # Example
//
//	s := typedstorage.New(memory.NewBackend())
func New(store storage.Store, opts ...Option) *Storage {
	s := &Storage{
		store:  store,
		codec:  JSONCodec{},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Store returns the underlying store.
func (s *Storage) Store() storage.Store {
	return s.store
}

func (s *Storage) encode(key string, v any) (string, error) {
	data, err := s.codec.Encode(v)
	if err != nil {
		return "", &EncodeError{Key: key, Err: err}
	}
	return string(data), nil
}
