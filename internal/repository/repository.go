// Package repository defines the persistence contract the catalog is built on.
//
// The catalog keeps each collection (users, books, reviews) and the session
// under a single key as one JSON document, the same layout a browser's
// localStorage would hold. Any backend that can get, set and delete a byte
// value by key can therefore serve the catalog:
//
//	repository/sqlite  → a local file (default)
//	repository/redis   → a shared Redis instance
//	repository/memory  → process memory (tests, throwaway runs)
package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value is stored under a key.
// It is a storage condition, not a domain error; the catalog turns it into
// an empty collection or an anonymous session.
var ErrKeyNotFound = errors.New("repository: key not found")

// KeyValueStore persists opaque values by key.
//
// Set overwrites the whole value; there are no partial writes. Delete of a
// missing key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// KeyLister is implemented by backends that can enumerate their keys.
type KeyLister interface {
	Keys(ctx context.Context) ([]string, error)
}
