package render

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/reconcile"
	"github.com/vango-dev/canopy/pkg/slotmap"
	"github.com/vango-dev/canopy/pkg/tree"
	"github.com/vango-dev/canopy/pkg/ui"
)

// Status is the render step state of a node.
type Status uint8

const (
	// Fresh nodes were just inserted and have not rendered yet.
	Fresh Status = iota
	// Pending nodes hold an incoming element to merge when visited.
	Pending
	// Rendered nodes are up to date for the current pass.
	Rendered
	// Skipped nodes declined the last update; their subtree was not visited.
	Skipped
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case Pending:
		return "Pending"
	case Rendered:
		return "Rendered"
	case Skipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// nodeState is the per-node bookkeeping stored beside each pod.
type nodeState struct {
	status  Status
	pending ui.Element
	dirty   bool
}

// Tree is the render side of the widget tree. It is not safe for
// concurrent use.
type Tree struct {
	nodes  *tree.Tree[ui.Pod]
	states *slotmap.SlotMap[nodeState]
	root   ui.ID // synthetic root holding the app element

	logger    *slog.Logger
	sched     ui.Scheduler
	observers []Observer
	capacity  int

	attached bool
	patches  []Patch
	rendered int
	skipped  int
}

// New creates an empty render tree.
func New(opts ...Option) *Tree {
	t := &Tree{
		logger:   slog.Default().With("component", "render"),
		capacity: 64,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.nodes = tree.New[ui.Pod](t.capacity)
	t.states = slotmap.New[nodeState](t.capacity)
	t.root = t.nodes.Attach(ui.NewPod(ui.New(ui.PassThrough{})))
	t.states.InsertAt(t.root, nodeState{status: Rendered})
	return t
}

// Render mounts root as the single child of the tree's internal root and
// renders every node that needs it. It returns the patches in emission
// order.
func (t *Tree) Render(root ui.Element) []Patch {
	start := time.Now()
	t.beginPass()
	if !t.attached {
		t.attached = true
		t.emit(Patch{Op: PatchAppend, ID: t.root, Pod: *t.nodes.At(t.root)})
	}

	st := t.states.At(t.root)
	st.status = Pending
	st.pending = ui.New(ui.PassThrough{}, root)
	t.run(t.root)
	return t.endPass("render", t.root, start)
}

// Update re-renders the subtree rooted at id. A stale id yields no patches.
func (t *Tree) Update(id ui.ID) []Patch {
	if !t.nodes.Contains(id) {
		t.logger.Debug("update for unmounted node", "id", id)
		return nil
	}
	start := time.Now()
	t.beginPass()
	t.run(id)
	return t.endPass("update", id, start)
}

func (t *Tree) beginPass() {
	t.patches = nil
	t.rendered, t.skipped = 0, 0
}

func (t *Tree) endPass(kind string, target ui.ID, start time.Time) []Patch {
	patches := t.patches
	t.patches = nil

	p := Pass{
		Kind:     kind,
		Target:   target,
		Rendered: t.rendered,
		Skipped:  t.skipped,
		Patches:  patches,
		Nodes:    t.Len(),
		Start:    start,
		Duration: time.Since(start),
	}
	t.logger.Debug("pass",
		"kind", kind,
		"target", target,
		"rendered", p.Rendered,
		"skipped", p.Skipped,
		"patches", len(patches),
		"nodes", p.Nodes,
		"duration", p.Duration)
	for _, o := range t.observers {
		o.ObservePass(p)
	}
	return patches
}

// run steps through the subtree of top in pre-order, skipping the subtrees
// of Skipped nodes.
func (t *Tree) run(top ui.ID) {
	for cur := top; !cur.IsNil(); cur = t.next(cur, top) {
		t.step(cur)
	}
}

// next returns the render target after cur, or nil when the pass is done.
func (t *Tree) next(cur, top ui.ID) ui.ID {
	cand := t.nodes.FirstChild(cur)
	if t.states.At(cur).status == Skipped || cand.IsNil() {
		cand = t.nodes.Following(cur, top)
	}
	for !cand.IsNil() && t.states.At(cand).status == Skipped {
		cand = t.nodes.Following(cand, top)
	}
	return cand
}

// step renders one node and reconciles its children.
func (t *Tree) step(id ui.ID) {
	st := t.states.At(id)
	pod := t.nodes.At(id)
	if st.status == Pending {
		pod.Merge(st.pending)
		st.pending = ui.Element{}
	}
	st.status = Rendered

	elems := pod.Render()
	t.rendered++

	var (
		oldKeys []ui.TypedKey
		oldIDs  []ui.ID
	)
	i := 0
	for c := range t.nodes.Children(id) {
		child := t.nodes.At(c)
		oldKeys = append(oldKeys, ui.KeyOf(child.Widget, i, child.Key))
		oldIDs = append(oldIDs, c)
		i++
	}

	r := reconcile.NewReconciler(oldKeys, oldIDs, reconcile.Keys(elems), elems)
	for op := range r.All() {
		t.apply(id, op)
	}
}

// apply mutates both arenas for one reconciliation op.
func (t *Tree) apply(parent ui.ID, op reconcile.Op) {
	switch op.Kind {
	case reconcile.New:
		id, pod := t.create(parent, slotmap.Nil, op.Element)
		t.emit(Patch{Op: PatchAppend, ID: id, Parent: parent, Pod: pod})

	case reconcile.Insertion:
		id, pod := t.create(parent, op.Before, op.Element)
		t.emit(Patch{Op: PatchInsert, ID: id, Before: op.Before, Pod: pod})

	case reconcile.Update:
		t.update(op.ID, op.Element)

	case reconcile.UpdateAndPlacement:
		t.update(op.ID, op.Element)
		t.nodes.Move(op.ID).Before(op.Before)
		t.emit(Patch{Op: PatchPlacement, ID: op.ID, Before: op.Before})

	case reconcile.Deletion:
		t.remove(op.ID)
		t.markDirty(parent)
		t.emit(Patch{Op: PatchRemove, ID: op.ID})

	default:
		panic(errors.New("E108").WithDetailf("reconcile op %v", op.Kind))
	}
}

// create mounts el under parent, before the given sibling when it is set.
// The render state is stored first under the ID the tree is about to hand
// out, then the pod is linked under that same ID.
func (t *Tree) create(parent, before ui.ID, el ui.Element) (ui.ID, ui.Pod) {
	id := t.nodes.NextID()
	if next := t.states.NextKey(); next != id {
		panic(errors.New("E105").WithDetailf("tree predicts %v, render state predicts %v", id, next))
	}

	pod := ui.NewPod(el)
	pod.State.Bind(id, t.sched)
	t.states.InsertAt(id, nodeState{status: Fresh})
	if before.IsNil() {
		t.nodes.AppendChildAt(parent, id, pod)
	} else {
		t.nodes.InsertBeforeAt(before, id, pod)
	}
	t.markDirty(id)
	return id, pod
}

// update queues el for the node, or marks it Skipped when its widget
// declines.
func (t *Tree) update(id ui.ID, el ui.Element) {
	pod := t.nodes.At(id)
	if !pod.ShouldUpdate(el) {
		t.states.At(id).status = Skipped
		t.skipped++
		return
	}
	st := t.states.At(id)
	st.status = Pending
	st.pending = el
	t.markDirty(id)
	t.emit(Patch{Op: PatchUpdate, ID: id, Element: el})
}

// remove detaches id and frees the render state of every node it drains.
func (t *Tree) remove(id ui.ID) {
	_, drain := t.nodes.Detach(id)
	t.states.Remove(id)
	for child := range drain.All() {
		t.states.Remove(child)
	}
}

// markDirty marks id and its ancestors, stopping at the first one already
// marked. It returns how many nodes it marked.
func (t *Tree) markDirty(id ui.ID) int {
	n := 0
	for cur := id; !cur.IsNil(); cur = t.nodes.Parent(cur) {
		st := t.states.At(cur)
		if st.dirty {
			break
		}
		st.dirty = true
		n++
	}
	return n
}

func (t *Tree) emit(p Patch) {
	t.patches = append(t.patches, p)
}

// MarkDirty marks id and its unmarked ancestors dirty and returns how many
// nodes were marked.
func (t *Tree) MarkDirty(id ui.ID) int {
	return t.markDirty(id)
}

// Commit clears every dirty mark.
func (t *Tree) Commit() {
	for _, st := range t.states.All() {
		st.dirty = false
	}
}

// Root returns the node mounted for the element passed to Render, or nil
// before the first Render.
func (t *Tree) Root() ui.ID {
	return t.nodes.FirstChild(t.root)
}

// Container returns the internal root every app element hangs under.
func (t *Tree) Container() ui.ID {
	return t.root
}

// Len returns the number of mounted nodes, the internal root excluded.
func (t *Tree) Len() int {
	return t.nodes.Len() - 1
}

// Contains reports whether id is mounted.
func (t *Tree) Contains(id ui.ID) bool {
	return t.nodes.Contains(id)
}

// Pod returns a copy of the pod mounted at id. The copy shares its State.
func (t *Tree) Pod(id ui.ID) (ui.Pod, bool) {
	p, ok := t.nodes.Get(id)
	if !ok {
		return ui.Pod{}, false
	}
	return *p, true
}

// Status returns the render step state of id.
func (t *Tree) Status(id ui.ID) Status {
	return t.states.At(id).status
}

// Dirty reports whether id is marked dirty.
func (t *Tree) Dirty(id ui.ID) bool {
	st, ok := t.states.Get(id)
	return ok && st.dirty
}

// Parent returns the parent of id.
func (t *Tree) Parent(id ui.ID) ui.ID {
	return t.nodes.Parent(id)
}

// Children returns the children of id in order.
func (t *Tree) Children(id ui.ID) []ui.ID {
	var out []ui.ID
	for c := range t.nodes.Children(id) {
		out = append(out, c)
	}
	return out
}

// IDs returns every mounted ID, the internal root included.
func (t *Tree) IDs() []ui.ID {
	return t.nodes.IDs()
}

// Verify checks the tree links, that both arenas hold exactly the same IDs
// and that every dirty node has a dirty parent.
func (t *Tree) Verify() error {
	if err := t.nodes.Verify(); err != nil {
		return err
	}
	if t.nodes.Len() != t.states.Len() {
		return fmt.Errorf("render: %d nodes but %d render states", t.nodes.Len(), t.states.Len())
	}
	for id, st := range t.states.All() {
		if !t.nodes.Contains(id) {
			return fmt.Errorf("render: render state %v has no node", id)
		}
		if st.status == Pending {
			return fmt.Errorf("render: node %v still pending after the pass", id)
		}
		if !st.dirty {
			continue
		}
		if p := t.nodes.Parent(id); !p.IsNil() && !t.states.At(p).dirty {
			return fmt.Errorf("render: node %v is dirty but its parent %v is not", id, p)
		}
	}
	return nil
}
