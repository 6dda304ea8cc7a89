// internal/storage/storage.go
package storage

import "errors"

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("record not found")

// Backend is the interface all storage implementations must satisfy.
// Records are opaque JSON documents addressed by key; every Put replaces
// the whole document.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}
