package paint

import (
	"time"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/ui"
)

// LayoutOption configures a layout pass.
type LayoutOption func(*layoutPass)

// WithForce re-lays out every node whether or not it is flagged.
func WithForce() LayoutOption {
	return func(p *layoutPass) {
		p.force = true
	}
}

// LayoutStats describes a finished layout pass.
type LayoutStats struct {
	Size     ui.Size // size of the node the pass started at
	LaidOut  int     // nodes whose layout ran
	Reused   int     // nodes whose cached size was returned
	Duration time.Duration
}

type layoutPass struct {
	tree  *Tree
	id    uint64
	force bool
	stats LayoutStats
}

func (t *Tree) newLayoutPass(opts []LayoutOption) *layoutPass {
	t.layouts++
	p := &layoutPass{tree: t, id: t.layouts}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LayoutRoot lays out the whole tree within a tight viewport.
func (t *Tree) LayoutRoot(viewport ui.Size, opts ...LayoutOption) LayoutStats {
	start := time.Now()
	p := t.newLayoutPass(opts)
	if root := t.nodes.Root(); !root.IsNil() {
		p.stats.Size = p.layout(root, ui.Tight(viewport))
	}
	p.stats.Duration = time.Since(start)
	t.logger.Debug("layout",
		"viewport", viewport,
		"laid_out", p.stats.LaidOut,
		"reused", p.stats.Reused,
		"force", p.force)
	return p.stats
}

// LayoutSubtree re-lays out id with the constraints of its last layout.
// While the node's size changes, its parent is laid out again, up to the
// root. A node that was never laid out is left alone.
func (t *Tree) LayoutSubtree(id ui.ID, opts ...LayoutOption) LayoutStats {
	start := time.Now()
	p := t.newLayoutPass(opts)

	for cur := id; !cur.IsNil(); cur = t.nodes.Parent(cur) {
		n := t.nodes.At(cur)
		if !n.hasConstraints {
			break
		}
		n.Flags |= ui.NeedsLayout
		old := n.Bounds.Size
		size := p.layout(cur, n.constraints)
		p.stats.Size = size
		if size == old {
			break
		}
	}
	p.stats.Duration = time.Since(start)
	return p.stats
}

// layout measures id under c, reusing the cached size when nothing that
// affects it changed. A node is measured at most once per pass for the same
// constraints.
func (p *layoutPass) layout(id ui.ID, c ui.Constraints) ui.Size {
	t := p.tree
	n := t.nodes.At(id)
	cached := n.hasConstraints && n.constraints == c
	stale := n.Flags&(ui.NeedsLayout|ui.Dirty) != 0
	if cached && (n.pass == p.id || !p.force && !stale) {
		p.stats.Reused++
		return n.Bounds.Size
	}

	ctx := &layoutContext{pass: p, id: id}
	for child := range t.nodes.Children(id) {
		ctx.children = append(ctx.children, child)
	}

	var size ui.Size
	if l, ok := n.Pod.Widget.(ui.Layouter); ok {
		size = l.Layout(ctx, c)
	} else {
		size = defaultLayout(ctx, c)
	}
	p.stats.LaidOut++

	n = t.nodes.At(id)
	n.constraints, n.hasConstraints = c, true
	n.pass = p.id
	n.Flags &^= ui.NeedsLayout
	if size != n.Bounds.Size {
		n.Bounds.Size = size
		t.invalidate(id, ui.NeedsPaint)
	}
	return size
}

// defaultLayout stacks every child at the origin under the parent's
// constraints.
func defaultLayout(ctx ui.LayoutContext, c ui.Constraints) ui.Size {
	size := c.Min
	for i := range ctx.ChildCount() {
		s := ctx.LayoutChild(i, c)
		ctx.PlaceChild(i, ui.Point{})
		size.Width = max(size.Width, s.Width)
		size.Height = max(size.Height, s.Height)
	}
	return c.Constrain(size)
}

// layoutContext implements ui.LayoutContext for one node.
type layoutContext struct {
	pass     *layoutPass
	id       ui.ID
	children []ui.ID
}

func (c *layoutContext) ChildCount() int {
	return len(c.children)
}

func (c *layoutContext) LayoutChild(i int, cons ui.Constraints) ui.Size {
	return c.pass.layout(c.child(i), cons)
}

func (c *layoutContext) PlaceChild(i int, at ui.Point) {
	id := c.child(i)
	n := c.pass.tree.nodes.At(id)
	if n.Bounds.Origin != at {
		n.Bounds.Origin = at
		c.pass.tree.invalidate(id, ui.NeedsPaint)
	}
}

func (c *layoutContext) State() *ui.State {
	return c.pass.tree.nodes.At(c.id).Pod.State
}

func (c *layoutContext) child(i int) ui.ID {
	if i < 0 || i >= len(c.children) {
		panic(errors.New("E107").WithDetailf("child %d of %d under %v", i, len(c.children), c.id))
	}
	return c.children[i]
}
