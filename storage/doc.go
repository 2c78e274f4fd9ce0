// Package storage defines the string-keyed, string-valued key-value store
// that the typed facade delegates to, along with the merge algorithm shared
// by every backend.
//
// Backends live in subpackages: [memory] for ephemeral use, [pebble] for an
// embedded LSM store, and [sqlite] for a single-file database.
//
// [memory]: https://pkg.go.dev/github.com/picatz/typedstorage/storage/memory
// [pebble]: https://pkg.go.dev/github.com/picatz/typedstorage/storage/pebble
// [sqlite]: https://pkg.go.dev/github.com/picatz/typedstorage/storage/sqlite
package storage
