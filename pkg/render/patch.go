package render

import (
	"fmt"

	"github.com/vango-dev/canopy/pkg/ui"
)

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchAppend    PatchOp = 0x01 // Mount a node as the last child of Parent
	PatchInsert    PatchOp = 0x02 // Mount a node before its sibling Before
	PatchUpdate    PatchOp = 0x03 // Replace a node's widget and children
	PatchPlacement PatchOp = 0x04 // Move a node before its sibling Before
	PatchRemove    PatchOp = 0x05 // Unmount a node and its subtree
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchAppend:
		return "Append"
	case PatchInsert:
		return "Insert"
	case PatchUpdate:
		return "Update"
	case PatchPlacement:
		return "Placement"
	case PatchRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// Patch is a single structural change to mirror downstream.
type Patch struct {
	Op      PatchOp
	ID      ui.ID      // Node the patch applies to
	Parent  ui.ID      // Append target; nil when ID is the root
	Before  ui.ID      // Insert and Placement anchor
	Pod     ui.Pod     // Mounted pod for Append and Insert
	Element ui.Element // Incoming element for Update
}

// String returns a short description used in logs and test failures.
func (p Patch) String() string {
	switch p.Op {
	case PatchAppend:
		return fmt.Sprintf("Append(%v <- %v %s)", p.Parent, p.ID, p.Pod.TypeName())
	case PatchInsert:
		return fmt.Sprintf("Insert(%v before %v %s)", p.ID, p.Before, p.Pod.TypeName())
	case PatchUpdate:
		return fmt.Sprintf("Update(%v %s)", p.ID, p.Element.TypeName())
	case PatchPlacement:
		return fmt.Sprintf("Placement(%v before %v)", p.ID, p.Before)
	case PatchRemove:
		return fmt.Sprintf("Remove(%v)", p.ID)
	default:
		return fmt.Sprintf("Unknown(%d)", p.Op)
	}
}

// Count tallies patches by operation.
func Count(patches []Patch) map[PatchOp]int {
	counts := make(map[PatchOp]int)
	for _, p := range patches {
		counts[p.Op]++
	}
	return counts
}
