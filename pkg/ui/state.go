package ui

import "sync"

// Scheduler receives re-render requests for mounted nodes.
type Scheduler interface {
	RequestUpdate(id ID)
}

// State is the per-node widget state. It is shared by the render side and
// the paint side; the mutex only hands it over between goroutines, and it is
// never held while another node's state is locked.
type State struct {
	mu    sync.Mutex
	value any
	id    ID
	sched Scheduler
}

// NewState returns a State holding v.
func NewState(v any) *State {
	return &State{value: v}
}

// Bind records the node that owns s and where its update requests go.
func (s *State) Bind(id ID, sched Scheduler) {
	s.mu.Lock()
	s.id, s.sched = id, sched
	s.mu.Unlock()
}

// ID returns the owning node, or nil before the state is mounted.
func (s *State) ID() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Get returns the current value.
func (s *State) Get() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the current value without scheduling a render.
func (s *State) Set(v any) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Update replaces the value with fn(old) and schedules a re-render of the
// owning node.
func (s *State) Update(fn func(old any) any) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.mu.Unlock()
	s.RequestUpdate()
}

// RequestUpdate schedules a re-render of the owning node. It reports false
// when the state is not mounted or has no scheduler.
func (s *State) RequestUpdate() bool {
	s.mu.Lock()
	id, sched := s.id, s.sched
	s.mu.Unlock()
	if id.IsNil() || sched == nil {
		return false
	}
	sched.RequestUpdate(id)
	return true
}

// Value returns the state's value as a T.
func Value[T any](s *State) (T, bool) {
	v, ok := s.Get().(T)
	return v, ok
}
