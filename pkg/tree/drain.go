package tree

import "iter"

// Drain yields the descendants of a detached node in pre-order, removing
// each from the tree as it is yielded.
type Drain[T any] struct {
	tree  *Tree[T]
	stack []NodeID
	buf   []NodeID
}

func (d *Drain[T]) pushChildren(first NodeID) {
	d.buf = d.buf[:0]
	for c := first; !c.IsNil(); c = d.tree.nodes.At(c).next {
		d.buf = append(d.buf, c)
	}
	for i := len(d.buf) - 1; i >= 0; i-- {
		d.stack = append(d.stack, d.buf[i])
	}
}

// Next removes and returns the next descendant.
func (d *Drain[T]) Next() (NodeID, Link[T], bool) {
	n := len(d.stack)
	if n == 0 {
		return 0, Link[T]{}, false
	}
	id := d.stack[n-1]
	d.stack = d.stack[:n-1]
	d.pushChildren(d.tree.nodes.At(id).first)
	link, _ := d.tree.nodes.Remove(id)
	return id, link, true
}

// Close removes every descendant not yet yielded and returns how many it
// removed. Close is idempotent.
func (d *Drain[T]) Close() int {
	n := 0
	for {
		if _, _, ok := d.Next(); !ok {
			return n
		}
		n++
	}
}

// All returns an iterator over the remaining descendants. Breaking out of
// the loop early still removes the rest.
func (d *Drain[T]) All() iter.Seq2[NodeID, Link[T]] {
	return func(yield func(NodeID, Link[T]) bool) {
		defer d.Close()
		for {
			id, link, ok := d.Next()
			if !ok || !yield(id, link) {
				return
			}
		}
	}
}
