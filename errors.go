package typedstorage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by [GetItem] when nothing is stored under the key.
//
// Use [GetNullableItem] when absence is expected.
var ErrNotFound = errors.New("typedstorage: not found")

// NotFoundError reports the key that was missing. It matches [ErrNotFound]
// with [errors.Is].
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("typedstorage: key %q not found", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MalformedDataError is returned when stored text cannot be decoded into
// the value type of its key.
type MalformedDataError struct {
	Key string
	Err error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("typedstorage: malformed data for key %q: %v", e.Key, e.Err)
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when a value cannot be encoded, for example
// because it holds a channel or a function.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("typedstorage: failed to encode value for key %q: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
