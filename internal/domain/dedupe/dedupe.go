// Package dedupe tracks participant identifiers seen while loading a dataset
// so that each participant is kept once.
package dedupe

import (
	"sync"
	"sync/atomic"
)

// Deduper records seen participant ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(id int64) bool

	// Duplicates is the number of SeenAndRecord calls that returned true.
	Duplicates() int64
}

// inMemoryDeduper implements Deduper with a map. It never evicts: an evicted
// id would let a later duplicate row through.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[int64]struct{}
	capacity int
	dups     atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		capacity: 1024,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[int64]struct{}, d.capacity)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		d.dups.Add(1)
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Duplicates() int64 {
	return d.dups.Load()
}
