// Package reconcile computes the edit sequence that turns a node's mounted
// children into a freshly rendered child list.
//
// Children are matched by ui.TypedKey: the widget's dynamic type plus its
// explicit key, or its position when it has none. A Reconciler walks the new
// sequence once, keeping a cursor on the first mounted child that is still
// waiting for its match, and emits:
//
//	New                 unmatched child, cursor past the end: append
//	Insertion           unmatched child: insert before the cursor child
//	Update              matched at the cursor: update in place
//	UpdateAndPlacement  matched further ahead: update and move before the cursor child
//	Deletion            mounted child with no match, in mounted order, last
//
// Matching uses a map from old keys to positions, so a reconciliation is
// O(n) in the number of children. There is no longest-common-subsequence
// step: a child that moved toward the front costs one placement, a child
// that moved toward the back lets every child it passed be placed instead.
//
// # Duplicate keys
//
// The first old child carrying a key claims the first new child with that
// key. Later duplicates never match: old ones are deleted, new ones are
// inserted as fresh nodes.
package reconcile
