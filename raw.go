package typedstorage

import (
	"context"
	"log/slog"
)

// GetKey reads the raw text stored under name, for keys outside the schema.
// Nothing is decoded.
func (s *Storage) GetKey(ctx context.Context, name string) (string, bool, error) {
	s.logger.DebugContext(ctx, "get key", slog.String("key", name))

	return s.store.Get(ctx, name)
}

// SetKey stores text under name as is.
func (s *Storage) SetKey(ctx context.Context, name, text string) error {
	s.logger.DebugContext(ctx, "set key", slog.String("key", name))

	return s.store.Set(ctx, name, text)
}

// RemoveKey deletes whatever is stored under name.
func (s *Storage) RemoveKey(ctx context.Context, name string) error {
	s.logger.DebugContext(ctx, "remove key", slog.String("key", name))

	return s.store.Remove(ctx, name)
}

// AllKeys returns every key the store holds. Keys outside the schema are
// included; use [Storage.Known] to tell them apart.
func (s *Storage) AllKeys(ctx context.Context) ([]string, error) {
	s.logger.DebugContext(ctx, "all keys")

	return s.store.AllKeys(ctx)
}

// Known reports whether name is declared in the schema given with
// [WithSchema]. Without a schema nothing is known.
func (s *Storage) Known(name string) bool {
	return s.schema != nil && s.schema.Has(name)
}

// Clear removes every key from the store, declared or not.
func (s *Storage) Clear(ctx context.Context) error {
	s.logger.InfoContext(ctx, "clear")

	return s.store.Clear(ctx)
}
