package lifecycle

import (
	"sync"
	"time"
)

// Scheduler runs deferred callbacks keyed by record id. A callback must look
// its record up again when it fires; the record may have changed or gone.
type Scheduler[K comparable] struct {
	mu      sync.Mutex
	timers  map[K]*time.Timer
	stopped bool
}

func NewScheduler[K comparable]() *Scheduler[K] {
	return &Scheduler[K]{timers: make(map[K]*time.Timer)}
}

// After schedules fn for key after d, replacing any callback already
// scheduled for key. It reports false once the scheduler is stopped.
func (s *Scheduler[K]) After(d time.Duration, key K, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if old, ok := s.timers[key]; ok {
		old.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		current, ok := s.timers[key]
		if !ok || current != t {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
	s.timers[key] = t
	return true
}

// Cancel drops the callback for key. It reports whether one was pending.
func (s *Scheduler[K]) Cancel(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, key)
	return true
}

func (s *Scheduler[K]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending callback and refuses new ones.
func (s *Scheduler[K]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
