package host

import (
	"sync"

	"github.com/vango-dev/canopy/pkg/ui"
)

// Scheduler collects update requests. Repeated requests for a node that is
// still queued are dropped. It is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	pending []ui.ID
	queued  map[ui.ID]struct{}
	wake    chan struct{}
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		queued: make(map[ui.ID]struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// RequestUpdate implements ui.Scheduler.
func (s *Scheduler) RequestUpdate(id ui.ID) {
	s.mu.Lock()
	if _, ok := s.queued[id]; !ok {
		s.queued[id] = struct{}{}
		s.pending = append(s.pending, id)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
		// Already signalled
	}
}

// Wake is signalled after requests arrive.
func (s *Scheduler) Wake() <-chan struct{} {
	return s.wake
}

// Take returns the queued IDs in request order and clears the queue.
func (s *Scheduler) Take() []ui.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	clear(s.queued)
	return out
}

// Len returns the number of queued IDs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
