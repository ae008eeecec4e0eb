package tree

import (
	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/slotmap"
)

// NodeID identifies a node. The zero NodeID is nil.
type NodeID = slotmap.Key

// Link is a node payload together with its structural links.
type Link[T any] struct {
	Value T

	parent NodeID
	prev   NodeID
	next   NodeID
	first  NodeID
	last   NodeID
}

// Parent returns the parent link, or nil for the root.
func (l *Link[T]) Parent() NodeID { return l.parent }

// PrevSibling returns the previous sibling link.
func (l *Link[T]) PrevSibling() NodeID { return l.prev }

// NextSibling returns the next sibling link.
func (l *Link[T]) NextSibling() NodeID { return l.next }

// FirstChild returns the first child link.
func (l *Link[T]) FirstChild() NodeID { return l.first }

// LastChild returns the last child link.
func (l *Link[T]) LastChild() NodeID { return l.last }

// Tree is an intrusive tree over a slotmap. The zero value is an empty tree.
type Tree[T any] struct {
	nodes slotmap.SlotMap[Link[T]]
	root  NodeID
}

// New returns an empty tree with room for capacity nodes.
func New[T any](capacity int) *Tree[T] {
	return &Tree[T]{nodes: *slotmap.New[Link[T]](capacity)}
}

// Len returns the number of nodes.
func (t *Tree[T]) Len() int { return t.nodes.Len() }

// Root returns the root node, or nil if none is attached.
func (t *Tree[T]) Root() NodeID { return t.root }

// Contains reports whether id is a live node.
func (t *Tree[T]) Contains(id NodeID) bool { return t.nodes.Contains(id) }

// NextID returns the ID the next inserted node will receive.
func (t *Tree[T]) NextID() NodeID { return t.nodes.NextKey() }

// IDs returns every live node ID in storage order.
func (t *Tree[T]) IDs() []NodeID { return t.nodes.Keys() }

// Get returns the payload of id.
func (t *Tree[T]) Get(id NodeID) (*T, bool) {
	l, ok := t.nodes.Get(id)
	if !ok {
		return nil, false
	}
	return &l.Value, true
}

// At returns the payload of id and panics if id is not live.
// The pointer is valid until the next insertion or removal.
func (t *Tree[T]) At(id NodeID) *T {
	return &t.nodes.At(id).Value
}

// Link returns the full link record of id and panics if id is not live.
func (t *Tree[T]) Link(id NodeID) *Link[T] {
	return t.nodes.At(id)
}

// Parent returns the parent of id, or nil for the root.
func (t *Tree[T]) Parent(id NodeID) NodeID { return t.nodes.At(id).parent }

// FirstChild returns the first child of id.
func (t *Tree[T]) FirstChild(id NodeID) NodeID { return t.nodes.At(id).first }

// LastChild returns the last child of id.
func (t *Tree[T]) LastChild(id NodeID) NodeID { return t.nodes.At(id).last }

// NextSibling returns the sibling after id.
func (t *Tree[T]) NextSibling(id NodeID) NodeID { return t.nodes.At(id).next }

// PrevSibling returns the sibling before id.
func (t *Tree[T]) PrevSibling(id NodeID) NodeID { return t.nodes.At(id).prev }

// ChildCount returns the number of children of id.
func (t *Tree[T]) ChildCount(id NodeID) int {
	n := 0
	for c := t.nodes.At(id).first; !c.IsNil(); c = t.nodes.At(c).next {
		n++
	}
	return n
}

// Attach creates the root node.
func (t *Tree[T]) Attach(v T) NodeID {
	if !t.root.IsNil() {
		panic(errors.New("E106").WithDetailf("root %v", t.root))
	}
	t.root = t.nodes.Insert(Link[T]{Value: v})
	return t.root
}

// AttachAt creates the root node under a pre-chosen ID.
func (t *Tree[T]) AttachAt(id NodeID, v T) {
	if !t.root.IsNil() {
		panic(errors.New("E106").WithDetailf("root %v", t.root))
	}
	t.nodes.InsertAt(id, Link[T]{Value: v})
	t.root = id
}

// AppendChild adds v as the last child of parent.
func (t *Tree[T]) AppendChild(parent NodeID, v T) NodeID {
	t.nodes.At(parent)
	id := t.nodes.Insert(Link[T]{Value: v})
	t.linkLast(parent, id)
	return id
}

// AppendChildAt adds v under id as the last child of parent.
func (t *Tree[T]) AppendChildAt(parent, id NodeID, v T) {
	t.nodes.At(parent)
	t.nodes.InsertAt(id, Link[T]{Value: v})
	t.linkLast(parent, id)
}

// PrependChild adds v as the first child of parent.
func (t *Tree[T]) PrependChild(parent NodeID, v T) NodeID {
	t.nodes.At(parent)
	id := t.nodes.Insert(Link[T]{Value: v})
	t.linkFirst(parent, id)
	return id
}

// InsertBefore adds v as the sibling immediately before ref.
func (t *Tree[T]) InsertBefore(ref NodeID, v T) NodeID {
	t.requireSibling(ref)
	id := t.nodes.Insert(Link[T]{Value: v})
	t.linkBefore(ref, id)
	return id
}

// InsertBeforeAt adds v under id as the sibling immediately before ref.
func (t *Tree[T]) InsertBeforeAt(ref, id NodeID, v T) {
	t.requireSibling(ref)
	t.nodes.InsertAt(id, Link[T]{Value: v})
	t.linkBefore(ref, id)
}

// InsertAfter adds v as the sibling immediately after ref.
func (t *Tree[T]) InsertAfter(ref NodeID, v T) NodeID {
	t.requireSibling(ref)
	id := t.nodes.Insert(Link[T]{Value: v})
	t.linkAfter(ref, id)
	return id
}

func (t *Tree[T]) requireSibling(ref NodeID) {
	if t.nodes.At(ref).parent.IsNil() {
		panic(errors.New("E103").WithDetailf("reference %v", ref))
	}
}

func (t *Tree[T]) linkLast(parent, id NodeID) {
	p := t.nodes.At(parent)
	n := t.nodes.At(id)
	n.parent, n.prev, n.next = parent, p.last, slotmap.Nil
	if p.last.IsNil() {
		p.first = id
	} else {
		t.nodes.At(p.last).next = id
	}
	p.last = id
}

func (t *Tree[T]) linkFirst(parent, id NodeID) {
	p := t.nodes.At(parent)
	n := t.nodes.At(id)
	n.parent, n.prev, n.next = parent, slotmap.Nil, p.first
	if p.first.IsNil() {
		p.last = id
	} else {
		t.nodes.At(p.first).prev = id
	}
	p.first = id
}

func (t *Tree[T]) linkBefore(ref, id NodeID) {
	r := t.nodes.At(ref)
	n := t.nodes.At(id)
	n.parent, n.prev, n.next = r.parent, r.prev, ref
	if r.prev.IsNil() {
		t.nodes.At(r.parent).first = id
	} else {
		t.nodes.At(r.prev).next = id
	}
	r.prev = id
}

func (t *Tree[T]) linkAfter(ref, id NodeID) {
	r := t.nodes.At(ref)
	n := t.nodes.At(id)
	n.parent, n.prev, n.next = r.parent, ref, r.next
	if r.next.IsNil() {
		t.nodes.At(r.parent).last = id
	} else {
		t.nodes.At(r.next).prev = id
	}
	r.next = id
}

// unlink removes id from its parent's child list. Its own children stay.
func (t *Tree[T]) unlink(id NodeID) {
	n := t.nodes.At(id)
	if n.prev.IsNil() {
		if !n.parent.IsNil() {
			t.nodes.At(n.parent).first = n.next
		}
	} else {
		t.nodes.At(n.prev).next = n.next
	}
	if n.next.IsNil() {
		if !n.parent.IsNil() {
			t.nodes.At(n.parent).last = n.prev
		}
	} else {
		t.nodes.At(n.next).prev = n.prev
	}
	n.parent, n.prev, n.next = slotmap.Nil, slotmap.Nil, slotmap.Nil
}

// Detach unlinks id, removes it from the tree and returns its link together
// with a Drain over its descendants. The descendants are still stored until
// the drain yields them; consume the drain or Close it.
func (t *Tree[T]) Detach(id NodeID) (Link[T], *Drain[T]) {
	if id == t.root {
		t.root = slotmap.Nil
	} else {
		t.unlink(id)
	}
	link, _ := t.nodes.Remove(id)
	d := &Drain[T]{tree: t}
	d.pushChildren(link.first)
	return link, d
}

// Delete detaches id and drains its subtree. It returns the number of nodes
// removed, id included.
func (t *Tree[T]) Delete(id NodeID) int {
	_, d := t.Detach(id)
	return 1 + d.Close()
}

// isWithin reports whether id is top or one of its descendants.
func (t *Tree[T]) isWithin(id, top NodeID) bool {
	for n := id; !n.IsNil(); n = t.nodes.At(n).parent {
		if n == top {
			return true
		}
	}
	return false
}
