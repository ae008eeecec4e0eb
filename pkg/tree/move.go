package tree

import "github.com/vango-dev/canopy/internal/errors"

// Mover relinks an existing node. Its payload and ID are preserved.
type Mover[T any] struct {
	t  *Tree[T]
	id NodeID
}

// Move starts relinking id. The root cannot be moved.
func (t *Tree[T]) Move(id NodeID) Mover[T] {
	if id == t.root {
		panic(errors.New("E103").WithDetailf("cannot move root %v", id))
	}
	t.nodes.At(id)
	return Mover[T]{t: t, id: id}
}

// Before places the node immediately before ref.
func (m Mover[T]) Before(ref NodeID) {
	m.t.requireSibling(ref)
	m.checkTarget(ref)
	m.t.unlink(m.id)
	m.t.linkBefore(ref, m.id)
}

// After places the node immediately after ref.
func (m Mover[T]) After(ref NodeID) {
	m.t.requireSibling(ref)
	m.checkTarget(ref)
	m.t.unlink(m.id)
	m.t.linkAfter(ref, m.id)
}

// Append makes the node the last child of parent.
func (m Mover[T]) Append(parent NodeID) {
	m.checkTarget(parent)
	m.t.unlink(m.id)
	m.t.linkLast(parent, m.id)
}

// Prepend makes the node the first child of parent.
func (m Mover[T]) Prepend(parent NodeID) {
	m.checkTarget(parent)
	m.t.unlink(m.id)
	m.t.linkFirst(parent, m.id)
}

func (m Mover[T]) checkTarget(ref NodeID) {
	if m.t.isWithin(ref, m.id) {
		panic(errors.New("E104").WithDetailf("move %v relative to %v", m.id, ref))
	}
}
