// Package store persists the session dataset in a key-value backend.
//
// Three backends implement KV: an embedded pebble database (the default),
// a PostgreSQL table reached through pgxpool, and an in-memory map used by
// tests and the CLI. DatasetStore layers the dataset encoding on top.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// Entry is one key-value pair written by SetAll.
type Entry struct {
	Key   string
	Value []byte
}

// KV is a minimal key-value backend. SetAll and DeleteAll apply atomically
// where the backend supports it. Deleting a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetAll(ctx context.Context, entries ...Entry) error
	DeleteAll(ctx context.Context, keys ...string) error
	Close() error
}
