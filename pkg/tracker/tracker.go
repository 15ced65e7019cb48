// Package tracker holds a process-local index of cache locations known
// to be present in the storage. It only short-circuits positive
// lookups: a location missing from the tracker must still be checked
// against the storage.
package tracker

import "sync"

type (
	// Tracker is the interface the proxy uses to remember which cache
	// locations it has already seen in the storage
	Tracker interface {
		Has(cachePath string) bool
		Mark(cachePath string)
	}

	// Memory implements Tracker in process memory. Entries are never
	// evicted so memory usage grows with the number of distinct
	// locations served during the process lifetime.
	Memory struct {
		known sync.Map
	}
)

// NewMemory returns an empty in-memory tracker
func NewMemory() *Memory { return &Memory{} }

// Has reports whether Mark was called for the location before
func (m *Memory) Has(cachePath string) bool {
	_, ok := m.known.Load(cachePath)
	return ok
}

// Mark records the location as present, calling it again is a no-op
func (m *Memory) Mark(cachePath string) {
	m.known.Store(cachePath, struct{}{})
}
