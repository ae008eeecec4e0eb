// Package paint mirrors the render tree on the painting side. It applies
// render patches under the same node IDs, runs layout and paints into a
// Canvas.
//
// Every node carries invalidation flags. Inserted and updated nodes get all
// three; Dirty is propagated to ancestors and the walk stops at the first
// ancestor already dirty. Layout re-measures a node only when it is flagged,
// when its constraints changed or when the pass is forced with WithForce;
// otherwise the cached size is reused. Paint does nothing unless the root is
// dirty; when it runs it redraws every node and clears every flag.
//
// Removed nodes are unlinked right away. The pods of those that were painted
// are kept on the parent until the next Paint, which runs their Unmount
// hooks. A node inserted and removed between two paints gets neither hook.
package paint
