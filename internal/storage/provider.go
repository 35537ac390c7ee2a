// Package storage defines the key-value backends that persist small JSON
// blobs by string key.
package storage

import (
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// Provider is the interface for key-value persistence.
type Provider interface {
	// Get returns the value stored under key, or apperr.ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Close releases the backend.
	Close() error
}

// Open creates the provider named by backend. path is a directory for the
// fs backend and a database file for sqlite; memory ignores it.
func Open(backend, path string) (Provider, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFS:
		return NewFS(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
