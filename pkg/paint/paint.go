package paint

import (
	"github.com/vango-dev/canopy/pkg/tree"
	"github.com/vango-dev/canopy/pkg/ui"
)

// PaintStats describes a finished paint pass.
type PaintStats struct {
	Painted   int // nodes visited
	Changed   int // nodes that carried NeedsPaint
	Mounted   int // Mount hooks run
	Unmounted int // Unmount hooks run
}

// Paint draws the whole tree into c when anything changed since the last
// paint. It runs pending lifecycle hooks, clears every flag and reports
// whether it painted.
//
// A frame is always drawn in full, so c should start empty (the host resets
// a DisplayList first). NeedsPaint does not prune the walk; it raises Dirty
// up to the root and is counted in PaintStats.Changed.
func (t *Tree) Paint(c ui.Canvas) bool {
	_, ok := t.PaintStats(c)
	return ok
}

// PaintStats is Paint returning what the pass did.
func (t *Tree) PaintStats(c ui.Canvas) (PaintStats, bool) {
	var stats PaintStats
	root := t.nodes.Root()
	if root.IsNil() || !t.nodes.At(root).Flags.Has(ui.Dirty) {
		return stats, false
	}

	// origins holds the absolute origin of every node on the current path.
	var origins []ui.Point
	for step := range t.nodes.Walk(root) {
		switch step.Dir {
		case tree.Up:
			origins = origins[:len(origins)-1]
			continue
		case tree.Side:
			origins = origins[:len(origins)-1]
		}
		var base ui.Point
		if len(origins) > 0 {
			base = origins[len(origins)-1]
		}

		n := t.nodes.At(step.ID)
		abs := base.Add(n.Bounds.Origin)
		origins = append(origins, abs)

		for _, pod := range n.DeletedChildren {
			if u, ok := pod.Widget.(ui.Unmounter); ok {
				u.Unmount(pod.State)
				stats.Unmounted++
			}
		}
		n.DeletedChildren = nil

		if !n.mounted {
			n.mounted = true
			if m, ok := n.Pod.Widget.(ui.Mounter); ok {
				m.Mount(n.Pod.State)
				stats.Mounted++
			}
		}
		if p, ok := n.Pod.Widget.(ui.Painter); ok {
			p.Paint(c, ui.Rect{Origin: abs, Size: n.Bounds.Size}, n.Pod.State)
		}
		if n.Flags.Has(ui.NeedsPaint) {
			stats.Changed++
		}
		n.Flags = 0
		stats.Painted++
	}

	t.logger.Debug("paint",
		"painted", stats.Painted,
		"changed", stats.Changed,
		"mounted", stats.Mounted,
		"unmounted", stats.Unmounted)
	return stats, true
}
