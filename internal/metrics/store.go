package metrics

import "sync/atomic"

// Store holds the single current snapshot. One writer (the scheduler)
// swaps the pointer; any number of readers load it without blocking.
// The snapshot behind the pointer is never mutated, so a reader can
// keep using what it got even while a newer one is published.
type Store struct {
	cur atomic.Pointer[Snapshot]
}

// NewStore seeds the store with an all-unavailable placeholder so reads
// before the first cycle completes see sane zeros instead of nil.
func NewStore() *Store {
	s := &Store{}
	s.cur.Store(&Snapshot{})
	return s
}

// Publish atomically replaces the current snapshot. The caller must not
// modify snap afterwards.
func (s *Store) Publish(snap *Snapshot) {
	s.cur.Store(snap)
}

// Read returns the latest published snapshot. Never blocks.
func (s *Store) Read() *Snapshot {
	return s.cur.Load()
}
