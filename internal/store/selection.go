package store

import "sync"

// Selection holds the id of the record shown in a detail panel. It never
// holds the record itself; Collection.Resolve re-reads it on every render.
type Selection[K comparable] struct {
	mu  sync.Mutex
	id  K
	set bool
}

// Select replaces any previous selection.
func (s *Selection[K]) Select(id K) {
	s.mu.Lock()
	s.id, s.set = id, true
	s.mu.Unlock()
}

func (s *Selection[K]) Clear() {
	s.mu.Lock()
	var zero K
	s.id, s.set = zero, false
	s.mu.Unlock()
}

// ClearIf clears the selection only while it still points at id.
func (s *Selection[K]) ClearIf(id K) {
	s.mu.Lock()
	if s.set && s.id == id {
		var zero K
		s.id, s.set = zero, false
	}
	s.mu.Unlock()
}

func (s *Selection[K]) ID() (K, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.set
}
