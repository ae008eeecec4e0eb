// Package tree provides an intrusive tree stored in a slotmap.
//
// Every node carries parent, previous-sibling, next-sibling, first-child and
// last-child links expressed as NodeIDs rather than pointers, so the tree
// never owns cycles and nodes can be moved without copying payloads.
//
// Structural operations on stale or foreign IDs panic. Callers track which
// IDs are live; an ID must not be kept across a Detach of one of its
// ancestors.
//
// # Traversal
//
// Children, Ancestors, NextSiblings, PrevSiblings, Descendants and PostOrder
// return iter.Seq values. Walk yields one Step per visit together with the
// direction of the move that led there:
//
//	Down  entering a node from its parent (or the walk start)
//	Side  moving to the next sibling
//	Up    returning to a parent after its last child
//
// Layout and paint use Walk to push and pop per-level state (constraints,
// absolute origins) without recursion.
package tree
