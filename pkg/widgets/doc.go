// Package widgets holds a handful of small widgets used by the demo app
// and by tests: Text, Column, Row, Padding and Counter.
//
// They measure text with a fixed cell size; there is no font shaping.
package widgets
