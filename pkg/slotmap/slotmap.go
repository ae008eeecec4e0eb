// Package slotmap implements a generational, key-stable arena.
//
// Values live in a dense backing slice; keys index a slot table that points
// into it. Removing a value swaps the physically last value into the hole, so
// iteration stays compact, and bumps the slot's generation, so a key held
// across a remove-then-reuse cycle never aliases the new occupant.
//
// A slot is a single int32: values >= 0 are the dense entry index of a filled
// slot, negative values encode -(pos+1) where pos is the slot's position in
// the free list. Keeping the free-list position in the slot lets InsertAt
// claim an arbitrary free slot in O(1).
package slotmap

import (
	"fmt"
	"iter"

	"github.com/vango-dev/canopy/internal/errors"
)

// Key is an opaque handle into a SlotMap: generation<<32 | index.
// Generations start at 1, so the zero Key is never valid.
type Key uint64

// Nil is the zero Key. It never refers to a value.
const Nil Key = 0

// MakeKey assembles a key from a slot index and a generation.
func MakeKey(index, generation uint32) Key {
	return Key(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index of k.
func (k Key) Index() uint32 { return uint32(k) }

// Generation returns the generation of k.
func (k Key) Generation() uint32 { return uint32(k >> 32) }

// IsNil reports whether k is the zero Key.
func (k Key) IsNil() bool { return k == Nil }

// String returns "index#generation", or "nil".
func (k Key) String() string {
	if k.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d#%d", k.Index(), k.Generation())
}

type entry[T any] struct {
	key   Key
	value T
}

// SlotMap is a generational arena. The zero value is ready to use.
//
// Pointers returned by Get and At stay valid only until the next Insert,
// InsertAt or Remove.
type SlotMap[T any] struct {
	slots   []int32
	gens    []uint32 // grows with slots, never truncated
	entries []entry[T]
	free    []uint32
}

// New returns an empty SlotMap with room for capacity values.
func New[T any](capacity int) *SlotMap[T] {
	return &SlotMap[T]{
		slots:   make([]int32, 0, capacity),
		gens:    make([]uint32, 0, capacity),
		entries: make([]entry[T], 0, capacity),
	}
}

// Len returns the number of live values.
func (m *SlotMap[T]) Len() int {
	return len(m.entries)
}

// SlotSize returns the number of slots, filled or free.
func (m *SlotMap[T]) SlotSize() int {
	return len(m.slots)
}

// NextKey returns the key the next Insert will return. It does not mutate.
func (m *SlotMap[T]) NextKey() Key {
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		return MakeKey(idx, m.gens[idx])
	}
	idx := uint32(len(m.slots))
	if int(idx) < len(m.gens) {
		return MakeKey(idx, m.gens[idx])
	}
	return MakeKey(idx, 1)
}

// Insert stores v and returns its key. Free slots are reused LIFO.
func (m *SlotMap[T]) Insert(v T) Key {
	k := m.NextKey()
	m.fill(k, v)
	return k
}

// InsertAt stores v under exactly k. It panics if k is nil or its slot is
// already filled. Used to mirror keys chosen by another SlotMap.
func (m *SlotMap[T]) InsertAt(k Key, v T) {
	if k.IsNil() || k.Generation() == 0 {
		panic(errors.New("E101").WithDetailf("cannot insert at %v", k))
	}
	m.fill(k, v)
}

func (m *SlotMap[T]) fill(k Key, v T) {
	idx := k.Index()
	for uint32(len(m.slots)) <= idx {
		i := uint32(len(m.slots))
		if int(i) >= len(m.gens) {
			m.gens = append(m.gens, 1)
		}
		m.slots = append(m.slots, -int32(len(m.free))-1)
		m.free = append(m.free, i)
	}
	if m.slots[idx] >= 0 {
		panic(errors.New("E102").WithDetailf("slot %d holds %v", idx, m.entries[m.slots[idx]].key))
	}
	m.unfree(idx)
	m.gens[idx] = k.Generation()
	m.slots[idx] = int32(len(m.entries))
	m.entries = append(m.entries, entry[T]{key: k, value: v})
}

// unfree removes the free slot idx from the free list.
func (m *SlotMap[T]) unfree(idx uint32) {
	pos := -(m.slots[idx] + 1)
	last := int32(len(m.free) - 1)
	moved := m.free[last]
	m.free[pos] = moved
	m.slots[moved] = -(pos + 1)
	m.free = m.free[:last]
}

// Contains reports whether k refers to a live value.
func (m *SlotMap[T]) Contains(k Key) bool {
	idx := k.Index()
	if k.IsNil() || int(idx) >= len(m.slots) {
		return false
	}
	ei := m.slots[idx]
	return ei >= 0 && m.entries[ei].key == k
}

// Get returns a pointer to the value stored under k.
func (m *SlotMap[T]) Get(k Key) (*T, bool) {
	if !m.Contains(k) {
		return nil, false
	}
	return &m.entries[m.slots[k.Index()]].value, true
}

// At returns a pointer to the value stored under k and panics if k is not
// live. Holding a stale key is a bookkeeping bug, not a recoverable state.
func (m *SlotMap[T]) At(k Key) *T {
	v, ok := m.Get(k)
	if !ok {
		panic(errors.New("E101").WithDetailf("key %v", k))
	}
	return v
}

// Remove deletes the value stored under k and returns it.
func (m *SlotMap[T]) Remove(k Key) (T, bool) {
	var zero T
	if !m.Contains(k) {
		return zero, false
	}
	idx := k.Index()
	ei := m.slots[idx]
	v := m.entries[ei].value

	last := int32(len(m.entries) - 1)
	if ei != last {
		m.entries[ei] = m.entries[last]
		m.slots[m.entries[ei].key.Index()] = ei
	}
	m.entries[last] = entry[T]{}
	m.entries = m.entries[:last]

	m.gens[idx]++
	if m.gens[idx] == 0 {
		m.gens[idx] = 1
	}
	m.slots[idx] = -int32(len(m.free)) - 1
	m.free = append(m.free, idx)
	m.truncate()
	return v, true
}

// truncate drops trailing free slots so SlotSize converges on Len.
func (m *SlotMap[T]) truncate() {
	for n := len(m.slots); n > 0 && m.slots[n-1] < 0; n-- {
		m.unfree(uint32(n - 1))
		m.slots = m.slots[:n-1]
	}
}

// Clear removes every value. Generations are kept.
func (m *SlotMap[T]) Clear() {
	for len(m.entries) > 0 {
		m.Remove(m.entries[len(m.entries)-1].key)
	}
}

// All iterates live values in storage order.
func (m *SlotMap[T]) All() iter.Seq2[Key, *T] {
	return func(yield func(Key, *T) bool) {
		for i := range m.entries {
			if !yield(m.entries[i].key, &m.entries[i].value) {
				return
			}
		}
	}
}

// Keys returns the live keys in storage order.
func (m *SlotMap[T]) Keys() []Key {
	keys := make([]Key, len(m.entries))
	for i := range m.entries {
		keys[i] = m.entries[i].key
	}
	return keys
}
