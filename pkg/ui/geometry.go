package ui

import (
	"fmt"
	"math"
)

// Size is a width and height in logical pixels.
type Size struct {
	Width, Height float64
}

// Point is a position in logical pixels.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect is an origin and a size.
type Rect struct {
	Origin Point
	Size   Size
}

// String returns the string representation of the Rect.
func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.Origin.X, r.Origin.Y, r.Size.Width, r.Size.Height)
}

// Constraints bound the size a widget may choose.
type Constraints struct {
	Min, Max Size
}

// Tight constrains to exactly s.
func Tight(s Size) Constraints {
	return Constraints{Min: s, Max: s}
}

// Loose allows any size up to s.
func Loose(s Size) Constraints {
	return Constraints{Max: s}
}

// Unbounded allows any size.
func Unbounded() Constraints {
	inf := math.Inf(1)
	return Constraints{Max: Size{Width: inf, Height: inf}}
}

// Constrain clamps s into c.
func (c Constraints) Constrain(s Size) Size {
	return Size{
		Width:  math.Min(math.Max(s.Width, c.Min.Width), c.Max.Width),
		Height: math.Min(math.Max(s.Height, c.Min.Height), c.Max.Height),
	}
}

// Deflate shrinks both bounds by the given insets, never below zero.
func (c Constraints) Deflate(horizontal, vertical float64) Constraints {
	shrink := func(v, by float64) float64 { return math.Max(0, v-by) }
	return Constraints{
		Min: Size{Width: shrink(c.Min.Width, horizontal), Height: shrink(c.Min.Height, vertical)},
		Max: Size{Width: shrink(c.Max.Width, horizontal), Height: shrink(c.Max.Height, vertical)},
	}
}
