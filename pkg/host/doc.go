// Package host runs a widget tree the way an application does: a render
// goroutine owns the render tree and a paint loop owns the paint tree.
//
// The render goroutine mounts the root element, then waits on a coalescing
// Scheduler for nodes whose state asked for a re-render. Every pass becomes
// a Batch sent to the paint loop, which applies the patches in order, lays
// the tree out within the viewport, paints it and hands the finished Batch
// to every BatchObserver.
//
// # Usage
//
//	h := host.New(app,
//	    host.WithViewport(ui.Size{Width: 800, Height: 600}),
//	    host.WithObserver(inspector),
//	)
//	if err := h.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Widget state is shared between the two goroutines through ui.State, whose
// lock is only held for one node at a time.
package host
