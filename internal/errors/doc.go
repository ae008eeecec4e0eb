// Package errors provides coded, structured errors for canopy.
//
// Two kinds of failure flow through this package:
//   - Programmer errors inside the tree engine (stale node IDs, sibling
//     operations on the root, arena desynchronization). These are raised
//     with panic(errors.New(code)...) and are never recovered by the engine.
//   - Recoverable errors at the outer surfaces (configuration, snapshot
//     storage, the inspector). These are returned as ordinary errors and
//     can be inspected with errors.As.
//
// # Error Codes
//
// Each error has a unique code (e.g., "E101") that maps to a category, a
// short message and a longer explanation:
//
//	E1xx  tree engine (arena, intrusive tree, render tree)
//	E2xx  configuration
//	E3xx  snapshot storage
//
// # Usage
//
//	panic(errors.New("E101").WithDetail(fmt.Sprintf("key %v", k)))
//
//	return errors.New("E201").WithDetail("viewport width must be positive")
package errors
