package tree

import "fmt"

// Verify checks the link invariants of the whole tree: sibling chains are
// doubly linked and agree with their parent's first and last child, only
// the root has no parent, and every stored node is reachable from the root.
func (t *Tree[T]) Verify() error {
	if t.root.IsNil() {
		if t.nodes.Len() != 0 {
			return fmt.Errorf("tree: %d nodes stored without a root", t.nodes.Len())
		}
		return nil
	}
	if !t.nodes.Contains(t.root) {
		return fmt.Errorf("tree: root %v is not stored", t.root)
	}
	if p := t.nodes.At(t.root).parent; !p.IsNil() {
		return fmt.Errorf("tree: root %v has parent %v", t.root, p)
	}

	reached := 1
	for id, link := range t.nodes.All() {
		if id != t.root && link.parent.IsNil() {
			return fmt.Errorf("tree: node %v has no parent", id)
		}
		prev := NodeID(0)
		for c := link.first; !c.IsNil(); c = t.nodes.At(c).next {
			cl, ok := t.nodes.Get(c)
			if !ok {
				return fmt.Errorf("tree: node %v links to missing child %v", id, c)
			}
			if cl.parent != id {
				return fmt.Errorf("tree: child %v of %v points to parent %v", c, id, cl.parent)
			}
			if cl.prev != prev {
				return fmt.Errorf("tree: child %v of %v has prev %v, want %v", c, id, cl.prev, prev)
			}
			prev = c
			reached++
			if reached > t.nodes.Len() {
				return fmt.Errorf("tree: sibling cycle under %v", id)
			}
		}
		if link.last != prev {
			return fmt.Errorf("tree: node %v has last child %v, want %v", id, link.last, prev)
		}
	}
	if reached != t.nodes.Len() {
		return fmt.Errorf("tree: %d nodes reachable, %d stored", reached, t.nodes.Len())
	}
	return nil
}
