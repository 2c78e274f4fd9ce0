package typedstorage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
)

// GetItem reads and decodes the value stored under key.
//
// It returns an error matching [ErrNotFound] when nothing is stored, and a
// [*MalformedDataError] when the stored text does not decode into V.
func GetItem[V any](ctx context.Context, s *Storage, key Key[V]) (V, error) {
	value, ok, err := GetNullableItem(ctx, s, key)
	if err != nil {
		return value, err
	}
	if !ok {
		return value, &NotFoundError{Key: key.name}
	}
	return value, nil
}

// GetNullableItem is like [GetItem], but reports absence through ok
// instead of an error.
func GetNullableItem[V any](ctx context.Context, s *Storage, key Key[V]) (value V, ok bool, err error) {
	s.logger.DebugContext(ctx, "get item", slog.String("key", key.name))

	text, ok, err := s.store.Get(ctx, key.name)
	if err != nil || !ok {
		return value, false, err
	}

	if err := s.codec.Decode([]byte(text), &value); err != nil {
		var zero V
		return zero, false, &MalformedDataError{Key: key.name, Err: err}
	}
	return value, true, nil
}

// SetItem encodes value and stores it under key, replacing any previous value.
func SetItem[V any](ctx context.Context, s *Storage, key Key[V], value V) error {
	s.logger.DebugContext(ctx, "set item", slog.String("key", key.name))

	text, err := s.encode(key.name, value)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key.name, text)
}

// Patch is a partial JSON object for [MergeItem]. Nested Patch or
// map[string]any values merge recursively; anything else replaces.
type Patch map[string]any

// ErrInvalidPatch is returned by [ParsePatch] when text is not a JSON object.
var ErrInvalidPatch = errors.New("typedstorage: patch must be a JSON object")

// ParsePatch decodes text into a Patch. Numbers are kept as [json.Number]
// so integers beyond float64 precision are written back unchanged.
func ParsePatch(text string) (Patch, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var patch Patch
	if err := dec.Decode(&patch); err != nil {
		return nil, errors.Join(ErrInvalidPatch, err)
	}
	if dec.More() || patch == nil {
		return nil, ErrInvalidPatch
	}
	return patch, nil
}

// MergeItem asks the store to deep merge patch into the object stored under
// key. See [storage.MergeJSON] for the exact rules.
//
// Merging requires the stored value of V to be encoded as a JSON object.
func MergeItem[V any](ctx context.Context, s *Storage, key Key[V], patch Patch) error {
	s.logger.DebugContext(ctx, "merge item", slog.String("key", key.name), slog.Int("fields", len(patch)))

	text, err := s.encode(key.name, patch)
	if err != nil {
		return err
	}
	return s.store.Merge(ctx, key.name, text)
}

// RemoveItem deletes the value stored under key, if any.
func RemoveItem[V any](ctx context.Context, s *Storage, key Key[V]) error {
	s.logger.DebugContext(ctx, "remove item", slog.String("key", key.name))

	return s.store.Remove(ctx, key.name)
}
