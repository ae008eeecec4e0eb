package slotmap

import (
	"math/rand"
	"testing"

	"github.com/vango-dev/canopy/internal/errors"
)

func expectPanicCode(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %s", code)
		}
		err, ok := r.(*errors.Error)
		if !ok {
			t.Fatalf("panic value = %T (%v), want *errors.Error", r, r)
		}
		if err.Code != code {
			t.Fatalf("panic code = %s, want %s", err.Code, code)
		}
	}()
	fn()
}

func TestKeyEncoding(t *testing.T) {
	k := MakeKey(7, 3)
	if k.Index() != 7 || k.Generation() != 3 {
		t.Errorf("MakeKey(7, 3) = %d#%d", k.Index(), k.Generation())
	}
	if k.String() != "7#3" {
		t.Errorf("String() = %q, want 7#3", k.String())
	}
	if !Nil.IsNil() || Nil.String() != "nil" {
		t.Errorf("Nil = %q, want nil", Nil.String())
	}
}

func TestInsertGet(t *testing.T) {
	var m SlotMap[string]
	a := m.Insert("a")
	b := m.Insert("b")

	if a == b {
		t.Fatalf("Insert returned the same key twice: %v", a)
	}
	if a.IsNil() || b.IsNil() {
		t.Fatal("Insert returned a nil key")
	}
	if v, ok := m.Get(a); !ok || *v != "a" {
		t.Errorf("Get(a) = %v, %v, want a", v, ok)
	}
	if v := m.At(b); *v != "b" {
		t.Errorf("At(b) = %q, want b", *v)
	}
	if m.Len() != 2 || m.SlotSize() != 2 {
		t.Errorf("Len/SlotSize = %d/%d, want 2/2", m.Len(), m.SlotSize())
	}
}

func TestRemoveInvalidatesOnlyThatKey(t *testing.T) {
	m := New[int](4)
	a := m.Insert(1)
	b := m.Insert(2)
	c := m.Insert(3)

	v, ok := m.Remove(a)
	if !ok || v != 1 {
		t.Fatalf("Remove(a) = %d, %v, want 1, true", v, ok)
	}
	if m.Contains(a) {
		t.Error("a still present after Remove")
	}
	if _, ok := m.Remove(a); ok {
		t.Error("second Remove(a) should fail")
	}
	if got := *m.At(b); got != 2 {
		t.Errorf("At(b) = %d, want 2", got)
	}
	if got := *m.At(c); got != 3 {
		t.Errorf("At(c) = %d, want 3", got)
	}
}

func TestCompaction(t *testing.T) {
	var m SlotMap[string]
	a := m.Insert("a")
	m.Insert("b")
	c := m.Insert("c")

	m.Remove(c)
	if m.SlotSize() != 2 {
		t.Errorf("SlotSize after removing last = %d, want 2", m.SlotSize())
	}

	m.Remove(a)
	if m.SlotSize() != 2 {
		t.Errorf("SlotSize after removing interior = %d, want 2", m.SlotSize())
	}

	d := m.Insert("d")
	if d.Index() != a.Index() {
		t.Errorf("Insert reused index %d, want %d", d.Index(), a.Index())
	}
	if d == a {
		t.Error("reused slot must carry a new generation")
	}
	if m.SlotSize() != 2 {
		t.Errorf("SlotSize after reuse = %d, want 2", m.SlotSize())
	}
	if _, ok := m.Get(a); ok {
		t.Error("stale key a must not read the new occupant")
	}
	if got := *m.At(d); got != "d" {
		t.Errorf("At(d) = %q, want d", got)
	}
}

func TestTrailingFreeSlotsTruncate(t *testing.T) {
	var m SlotMap[int]
	keys := make([]Key, 5)
	for i := range keys {
		keys[i] = m.Insert(i)
	}
	// Free an interior run first, then the tail; everything from index 1 on
	// becomes trailing free space.
	m.Remove(keys[2])
	m.Remove(keys[3])
	m.Remove(keys[1])
	if m.SlotSize() != 5 {
		t.Fatalf("SlotSize = %d, want 5", m.SlotSize())
	}
	m.Remove(keys[4])
	if m.SlotSize() != 1 {
		t.Errorf("SlotSize = %d, want 1", m.SlotSize())
	}
	if next := m.NextKey(); next.Index() != 1 {
		t.Errorf("NextKey index = %d, want 1", next.Index())
	}
	// The regrown slot must not resurrect the old generation.
	k := m.Insert(10)
	if k == keys[1] {
		t.Error("regrown slot aliases a removed key")
	}
}

func TestNextKeyPredictsInsert(t *testing.T) {
	var m SlotMap[int]
	for i := 0; i < 10; i++ {
		want := m.NextKey()
		got := m.Insert(i)
		if got != want {
			t.Fatalf("Insert = %v, NextKey predicted %v", got, want)
		}
		if i%3 == 0 {
			m.Remove(got)
			next := m.NextKey()
			if next.Index() != got.Index() || next.Generation() != got.Generation()+1 {
				t.Fatalf("NextKey after Remove(%v) = %v, want same index with next generation", got, next)
			}
		}
	}
}

func TestInsertAt(t *testing.T) {
	var m SlotMap[string]
	k := MakeKey(5, 1)
	m.InsertAt(k, "root")

	if m.SlotSize() != 6 || m.Len() != 1 {
		t.Fatalf("SlotSize/Len = %d/%d, want 6/1", m.SlotSize(), m.Len())
	}
	if got := *m.At(k); got != "root" {
		t.Errorf("At = %q, want root", got)
	}

	// Gap slots are free and get reused before the table grows.
	next := m.Insert("x")
	if next.Index() >= 5 {
		t.Errorf("Insert used index %d, want a gap slot", next.Index())
	}

	// Claiming a gap slot out of LIFO order keeps the free list consistent.
	m.InsertAt(MakeKey(0, 4), "zero")
	seen := map[uint32]bool{}
	for m.SlotSize() > m.Len() {
		seen[m.Insert("fill").Index()] = true
	}
	for idx := range seen {
		if idx == 0 || idx == 5 || idx == next.Index() {
			t.Errorf("free list handed out filled index %d", idx)
		}
	}
}

func TestInsertAtFilledPanics(t *testing.T) {
	var m SlotMap[int]
	k := m.Insert(1)
	expectPanicCode(t, "E102", func() { m.InsertAt(k, 2) })
	expectPanicCode(t, "E101", func() { m.InsertAt(Nil, 2) })
}

func TestAtStalePanics(t *testing.T) {
	var m SlotMap[int]
	k := m.Insert(1)
	m.Remove(k)
	expectPanicCode(t, "E101", func() { m.At(k) })
	expectPanicCode(t, "E101", func() { m.At(MakeKey(99, 1)) })
}

func TestAllAndKeys(t *testing.T) {
	var m SlotMap[int]
	a := m.Insert(1)
	b := m.Insert(2)
	c := m.Insert(3)
	m.Remove(a)

	sum := 0
	for k, v := range m.All() {
		if k != b && k != c {
			t.Errorf("All yielded unexpected key %v", k)
		}
		sum += *v
	}
	if sum != 5 {
		t.Errorf("sum over All = %d, want 5", sum)
	}
	if len(m.Keys()) != 2 {
		t.Errorf("Keys() = %v, want 2 keys", m.Keys())
	}

	m.Clear()
	if m.Len() != 0 || m.SlotSize() != 0 {
		t.Errorf("after Clear Len/SlotSize = %d/%d", m.Len(), m.SlotSize())
	}
	if m.Contains(b) {
		t.Error("Clear left b reachable")
	}
}

func TestChurnKeyStability(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var m SlotMap[int]
	live := map[Key]int{}
	var dead []Key

	for step := 0; step < 5000; step++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			k := m.Insert(step)
			if _, dup := live[k]; dup {
				t.Fatalf("step %d: Insert returned live key %v", step, k)
			}
			live[k] = step
			continue
		}
		for k := range live {
			if v, ok := m.Remove(k); !ok || v != live[k] {
				t.Fatalf("step %d: Remove(%v) = %d, %v, want %d", step, k, v, ok, live[k])
			}
			delete(live, k)
			dead = append(dead, k)
			break
		}
	}

	if m.Len() != len(live) {
		t.Fatalf("Len = %d, want %d", m.Len(), len(live))
	}
	for k, want := range live {
		if got, ok := m.Get(k); !ok || *got != want {
			t.Fatalf("Get(%v) = %v, %v, want %d", k, got, ok, want)
		}
	}
	for _, k := range dead {
		if m.Contains(k) {
			t.Fatalf("removed key %v is live again", k)
		}
	}

	for k := range live {
		m.Remove(k)
	}
	if m.SlotSize() != 0 {
		t.Errorf("SlotSize after draining = %d, want 0", m.SlotSize())
	}
}
