package ui

import "strings"

// Flags are per-node invalidation bits.
type Flags uint8

const (
	// Dirty means this node or a descendant changed since the last commit.
	Dirty Flags = 1 << iota
	// NeedsLayout means the node must be measured again.
	NeedsLayout
	// NeedsPaint means the node must be drawn again.
	NeedsPaint

	// AllFlags is raised on inserted and updated nodes.
	AllFlags = Dirty | NeedsLayout | NeedsPaint
)

// Has reports whether every bit of f2 is set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// String returns the set flags joined by "|".
func (f Flags) String() string {
	if f == 0 {
		return "Clean"
	}
	var parts []string
	if f.Has(Dirty) {
		parts = append(parts, "Dirty")
	}
	if f.Has(NeedsLayout) {
		parts = append(parts, "NeedsLayout")
	}
	if f.Has(NeedsPaint) {
		parts = append(parts, "NeedsPaint")
	}
	return strings.Join(parts, "|")
}
