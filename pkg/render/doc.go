// Package render owns the tree of mounted widgets and turns declarative
// element trees into patches.
//
// A Tree keeps two arenas in lockstep: the intrusive tree of ui.Pod values
// and a slot map of per-node render state. Every ID live in one is live in
// the other. Render and Update run render steps in pre-order: a step renders
// a node's widget, reconciles the result against the node's mounted
// children, mutates both arenas and records a Patch for each change. Nodes
// whose widget declines the update are marked Skipped and their subtree is
// left alone for the rest of the pass.
//
// # Basic Usage
//
//	t := render.New(render.WithLogger(logger))
//	patches := t.Render(ui.New(app{}))
//	// later, for a node whose state changed:
//	patches = t.Update(id)
//
// Patches must be applied downstream in the order they are returned. The
// first Render emits an Append with a nil Parent for the internal root that
// holds the element passed to Render.
//
// # Dirty Tracking
//
// A node that changes is marked dirty together with its ancestors. The walk
// stops at the first ancestor already marked, so a node is dirty only if its
// parent is too. Commit clears every mark.
package render
