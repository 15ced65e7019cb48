// Package storage defines the interface to talk to the storage backends
package storage

import (
	"context"
	"errors"
)

type (
	// Storage is the interface to implement when building a storage
	// backend. Cache paths are slash-separated and relative to the
	// root of the backend.
	Storage interface {
		FileExists(ctx context.Context, cachePath string) (bool, error)
		GetFile(ctx context.Context, cachePath string) ([]byte, error)
		StoreFile(ctx context.Context, cachePath string, data []byte) error
	}
)

// ErrNotFound is returned by GetFile when no entry exists for the path
var ErrNotFound = errors.New("cache entry not found")
