package paint

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/tree"
	"github.com/vango-dev/canopy/pkg/ui"
)

// Node is the paint side state of a mounted widget.
type Node struct {
	Pod    ui.Pod
	Flags  ui.Flags
	Bounds ui.Rect // Origin is relative to the parent

	// DeletedChildren holds pods removed below this node since the last
	// paint. Their Unmount hooks run on the next Paint.
	DeletedChildren []ui.Pod

	constraints    ui.Constraints
	hasConstraints bool
	pass           uint64 // last layout pass that measured the node
	mounted        bool
}

// Tree is the paint side of the widget tree. It is not safe for concurrent
// use.
type Tree struct {
	nodes   *tree.Tree[Node]
	logger  *slog.Logger
	layouts uint64
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates an empty paint tree.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:  tree.New[Node](64),
		logger: slog.Default().With("component", "paint"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Apply applies patches in order. Patches must come from a single render
// tree and be applied in the order it emitted them.
func (t *Tree) Apply(patches []render.Patch) {
	for _, p := range patches {
		t.apply(p)
	}
}

func (t *Tree) apply(p render.Patch) {
	switch p.Op {
	case render.PatchAppend:
		n := Node{Pod: p.Pod, Flags: ui.AllFlags}
		if p.Parent.IsNil() {
			t.nodes.AttachAt(p.ID, n)
			return
		}
		t.nodes.AppendChildAt(p.Parent, p.ID, n)
		t.invalidate(p.Parent, ui.NeedsLayout)

	case render.PatchInsert:
		t.nodes.InsertBeforeAt(p.Before, p.ID, Node{Pod: p.Pod, Flags: ui.AllFlags})
		t.invalidate(t.nodes.Parent(p.ID), ui.NeedsLayout)

	case render.PatchUpdate:
		n := t.nodes.At(p.ID)
		n.Pod.Merge(p.Element)
		t.invalidate(p.ID, ui.AllFlags)

	case render.PatchPlacement:
		t.nodes.Move(p.ID).Before(p.Before)

	case render.PatchRemove:
		parent := t.nodes.Parent(p.ID)
		link, drain := t.nodes.Detach(p.ID)
		stash := link.Value.unmountable(nil)
		for _, l := range drain.All() {
			stash = l.Value.unmountable(stash)
		}
		if !parent.IsNil() {
			pn := t.nodes.At(parent)
			pn.DeletedChildren = append(pn.DeletedChildren, stash...)
			t.invalidate(parent, ui.NeedsLayout)
		}

	default:
		panic(errors.New("E108").WithDetailf("patch op %d", p.Op))
	}
}

// unmountable appends the pods owed an Unmount hook once n is gone: the
// stash n carried and n itself if it was ever painted.
func (n *Node) unmountable(stash []ui.Pod) []ui.Pod {
	stash = append(stash, n.DeletedChildren...)
	if n.mounted {
		stash = append(stash, n.Pod)
	}
	return stash
}

// invalidate raises flags on id and marks its ancestors Dirty, stopping at
// the first one already dirty.
func (t *Tree) invalidate(id ui.ID, flags ui.Flags) {
	n := t.nodes.At(id)
	wasDirty := n.Flags.Has(ui.Dirty)
	n.Flags |= flags | ui.Dirty
	if wasDirty {
		return
	}
	for p := t.nodes.Parent(id); !p.IsNil(); p = t.nodes.Parent(p) {
		pn := t.nodes.At(p)
		if pn.Flags.Has(ui.Dirty) {
			return
		}
		pn.Flags |= ui.Dirty
	}
}

// Invalidate raises flags on id and marks its ancestors Dirty. It reports
// false when id is not mounted.
func (t *Tree) Invalidate(id ui.ID, flags ui.Flags) bool {
	if !t.nodes.Contains(id) {
		return false
	}
	t.invalidate(id, flags)
	return true
}

// Root returns the root node ID.
func (t *Tree) Root() ui.ID {
	return t.nodes.Root()
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return t.nodes.Len()
}

// Contains reports whether id is mounted.
func (t *Tree) Contains(id ui.ID) bool {
	return t.nodes.Contains(id)
}

// IDs returns every node ID.
func (t *Tree) IDs() []ui.ID {
	return t.nodes.IDs()
}

// Node returns a copy of the node stored under id.
func (t *Tree) Node(id ui.ID) (Node, bool) {
	n, ok := t.nodes.Get(id)
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Flags returns the flags of id.
func (t *Tree) Flags(id ui.ID) ui.Flags {
	return t.nodes.At(id).Flags
}

// Children returns the children of id in order.
func (t *Tree) Children(id ui.ID) []ui.ID {
	var out []ui.ID
	for c := range t.nodes.Children(id) {
		out = append(out, c)
	}
	return out
}

// Bounds returns the absolute bounds of id.
func (t *Tree) Bounds(id ui.ID) ui.Rect {
	r := t.nodes.At(id).Bounds
	for p := t.nodes.Parent(id); !p.IsNil(); p = t.nodes.Parent(p) {
		r.Origin = r.Origin.Add(t.nodes.At(p).Bounds.Origin)
	}
	return r
}

// Verify checks the tree links and that every dirty node has a dirty
// parent.
func (t *Tree) Verify() error {
	if err := t.nodes.Verify(); err != nil {
		return err
	}
	for _, id := range t.nodes.IDs() {
		if !t.nodes.At(id).Flags.Has(ui.Dirty) {
			continue
		}
		if p := t.nodes.Parent(id); !p.IsNil() && !t.nodes.At(p).Flags.Has(ui.Dirty) {
			return fmt.Errorf("paint: node %v is dirty but its parent %v is not", id, p)
		}
	}
	return nil
}
