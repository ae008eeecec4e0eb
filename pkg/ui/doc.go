// Package ui defines the widget model shared by the render and paint trees.
//
// # Core Types
//
// Element is the transient, declarative description of a widget produced on
// every render pass. Pod is the persistent mounted instance an Element is
// reconciled into; its State survives every update and is only created when
// the node is inserted.
//
// # Capabilities
//
// Every widget implements Widget (Render). The remaining capabilities are
// optional interfaces discovered with type assertions:
//
//	Updater    ShouldUpdate: decline a re-render when nothing changed
//	Stateful   InitialState: seed the per-node State
//	Layouter   Layout: size itself and place its children
//	Painter    Paint: draw into a Canvas
//	Mounter    Mount: first paint after insertion
//	Unmounter  Unmount: last call after removal
//
// # Keys
//
// TypedKey pairs the dynamic type of a widget with either its explicit Key
// or its position among its siblings, so two different widget types at the
// same position never match during reconciliation.
package ui
