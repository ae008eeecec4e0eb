package tree

import (
	"iter"

	"github.com/vango-dev/canopy/pkg/slotmap"
)

// Direction is the move a Walk made to reach a node.
type Direction uint8

const (
	Down Direction = iota // from the parent, or the walk start
	Side                  // from the previous sibling
	Up                    // back from the last child
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case Down:
		return "Down"
	case Side:
		return "Side"
	case Up:
		return "Up"
	default:
		return "Unknown"
	}
}

// Step is one visit of a Walk.
type Step struct {
	ID  NodeID
	Dir Direction
}

// Children iterates the children of id in order.
func (t *Tree[T]) Children(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for c := t.nodes.At(id).first; !c.IsNil(); c = t.nodes.At(c).next {
			if !yield(c) {
				return
			}
		}
	}
}

// Ancestors iterates from the parent of id up to the root.
func (t *Tree[T]) Ancestors(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for p := t.nodes.At(id).parent; !p.IsNil(); p = t.nodes.At(p).parent {
			if !yield(p) {
				return
			}
		}
	}
}

// NextSiblings iterates the siblings after id.
func (t *Tree[T]) NextSiblings(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for s := t.nodes.At(id).next; !s.IsNil(); s = t.nodes.At(s).next {
			if !yield(s) {
				return
			}
		}
	}
}

// PrevSiblings iterates the siblings before id, nearest first.
func (t *Tree[T]) PrevSiblings(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for s := t.nodes.At(id).prev; !s.IsNil(); s = t.nodes.At(s).prev {
			if !yield(s) {
				return
			}
		}
	}
}

// Following returns the node after the subtree of id in a pre-order walk
// bounded by top, or nil when the walk leaves top.
func (t *Tree[T]) Following(id, top NodeID) NodeID {
	for n := id; n != top && !n.IsNil(); n = t.nodes.At(n).parent {
		if next := t.nodes.At(n).next; !next.IsNil() {
			return next
		}
	}
	return slotmap.Nil
}

// Descendants iterates the descendants of id in pre-order. id itself is
// not yielded.
func (t *Tree[T]) Descendants(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		cur := t.nodes.At(id).first
		for !cur.IsNil() {
			if !yield(cur) {
				return
			}
			if first := t.nodes.At(cur).first; !first.IsNil() {
				cur = first
				continue
			}
			cur = t.Following(cur, id)
		}
	}
}

// PostOrder iterates the descendants of id children-first. id itself is
// not yielded.
func (t *Tree[T]) PostOrder(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		cur := t.deepestFirst(id)
		for cur != id {
			if !yield(cur) {
				return
			}
			if next := t.nodes.At(cur).next; !next.IsNil() {
				cur = t.deepestFirst(next)
				continue
			}
			cur = t.nodes.At(cur).parent
		}
	}
}

func (t *Tree[T]) deepestFirst(id NodeID) NodeID {
	for {
		first := t.nodes.At(id).first
		if first.IsNil() {
			return id
		}
		id = first
	}
}

// Walk visits the subtree of id depth-first, yielding every arrival at a
// node with the direction it came from. id is yielded first with Down and,
// if it has children, last with Up.
func (t *Tree[T]) Walk(id NodeID) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		if !yield(Step{ID: id, Dir: Down}) {
			return
		}
		cur := id
		descend := true
		for {
			if descend {
				if first := t.nodes.At(cur).first; !first.IsNil() {
					cur = first
					if !yield(Step{ID: cur, Dir: Down}) {
						return
					}
					continue
				}
			}
			if cur == id {
				return
			}
			if next := t.nodes.At(cur).next; !next.IsNil() {
				cur, descend = next, true
				if !yield(Step{ID: cur, Dir: Side}) {
					return
				}
				continue
			}
			cur, descend = t.nodes.At(cur).parent, false
			if !yield(Step{ID: cur, Dir: Up}) {
				return
			}
		}
	}
}
