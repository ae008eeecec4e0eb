package paint

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/ui"
	"github.com/vango-dev/canopy/pkg/vtest"
)

var viewport = ui.Size{Width: 100, Height: 100}

type pipeline struct {
	render *render.Tree
	paint  *Tree
}

func newPipeline() *pipeline {
	return &pipeline{render: render.New(), paint: New()}
}

func (p *pipeline) mount(el ui.Element) []render.Patch {
	patches := p.render.Render(el)
	p.paint.Apply(patches)
	return patches
}

func (p *pipeline) update(id ui.ID) {
	p.paint.Apply(p.render.Update(id))
}

// find returns the ID of the first probe named name.
func (p *pipeline) find(name string) ui.ID {
	for _, id := range p.paint.IDs() {
		n, _ := p.paint.Node(id)
		if pr, ok := n.Pod.Widget.(vtest.Probe); ok && pr.Name == name {
			return id
		}
	}
	return 0
}

// only keeps events starting with prefix.
func only(events []string, prefix string) []string {
	var out []string
	for _, e := range events {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func colored(log *vtest.Log, name, color string, size *ui.Size, children ...ui.Element) ui.Element {
	return ui.New(vtest.Probe{Name: name, Log: log, Color: color, Size: size}, children...)
}

func TestApplyMirrorsRenderTree(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	log := vtest.NewLog()
	p := newPipeline()

	var gen func(depth int) []ui.Element
	gen = func(depth int) []ui.Element {
		if depth == 0 {
			return nil
		}
		keys := []string{"a", "b", "c", "d", "e"}
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		out := make([]ui.Element, rng.Intn(4))
		for i := range out {
			if rng.Intn(4) == 0 {
				out[i] = log.Frozen(keys[i], gen(depth-1)...).WithKey(keys[i])
				continue
			}
			out[i] = log.Keyed(keys[i], keys[i], gen(depth-1)...)
		}
		return out
	}

	for round := 0; round < 150; round++ {
		p.mount(log.Probe("root", gen(3)...))
		log.Take()

		renderIDs, paintIDs := p.render.IDs(), p.paint.IDs()
		slices.Sort(renderIDs)
		slices.Sort(paintIDs)
		if !slices.Equal(renderIDs, paintIDs) {
			t.Fatalf("round %d: render IDs %v, paint IDs %v", round, renderIDs, paintIDs)
		}
		for _, id := range renderIDs {
			if got, want := p.paint.Children(id), p.render.Children(id); !slices.Equal(got, want) {
				t.Fatalf("round %d: Children(%v) = %v, want %v", round, id, got, want)
			}
		}
		if err := p.paint.Verify(); err != nil {
			t.Fatalf("round %d: Verify() = %v", round, err)
		}
		if rng.Intn(3) == 0 {
			p.paint.LayoutRoot(viewport)
			p.paint.Paint(&DisplayList{})
		}
	}
}

func TestInsertedNodesCarryAllFlags(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Probe("a"), log.Probe("b")))

	for _, id := range p.paint.IDs() {
		if f := p.paint.Flags(id); f != ui.AllFlags {
			t.Errorf("Flags(%v) = %s, want %s", id, f, ui.AllFlags)
		}
	}
}

func TestLayoutStacksChildren(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Sized("a", ui.Size{Width: 10, Height: 20}), log.Sized("b", ui.Size{Width: 30, Height: 5})))

	stats := p.paint.LayoutRoot(viewport)

	if stats.Size != viewport {
		t.Errorf("root size = %v, want %v", stats.Size, viewport)
	}
	tests := []struct {
		name string
		want ui.Rect
	}{
		{"app", ui.Rect{Size: viewport}},
		{"a", ui.Rect{Size: ui.Size{Width: 10, Height: 20}}},
		{"b", ui.Rect{Origin: ui.Point{Y: 20}, Size: ui.Size{Width: 30, Height: 5}}},
	}
	for _, tc := range tests {
		if got := p.paint.Bounds(p.find(tc.name)); got != tc.want {
			t.Errorf("Bounds(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
	for _, id := range p.paint.IDs() {
		if p.paint.Flags(id).Has(ui.NeedsLayout) {
			t.Errorf("Flags(%v) still has NeedsLayout after layout", id)
		}
	}
}

// skippedFixture mounts app(f(x), b) where f declines updates, lays it out,
// paints, then re-renders so that f is Skipped.
func skippedFixture(t *testing.T) (*pipeline, *vtest.Log) {
	t.Helper()
	log := vtest.NewLog()
	p := newPipeline()
	app := log.Probe("app", log.Frozen("f", log.Probe("x")), log.Probe("b"))
	p.mount(app)
	p.paint.LayoutRoot(viewport)
	p.paint.Paint(&DisplayList{})
	log.Take()

	p.mount(app)
	if s := p.render.Status(p.find("f")); s != render.Skipped {
		t.Fatalf("Status(f) = %s, want Skipped", s)
	}
	log.Take()
	return p, log
}

func TestLayoutReusesSkippedSubtree(t *testing.T) {
	p, log := skippedFixture(t)

	stats := p.paint.LayoutRoot(viewport)

	vtest.ExpectEvents(t, only(log.Take(), "layout"), "layout app", "layout b")
	if stats.Reused != 1 {
		t.Errorf("Reused = %d, want 1 (f)", stats.Reused)
	}
	if f := p.paint.Flags(p.find("x")); f != 0 {
		t.Errorf("Flags(x) = %s, want Clean", f)
	}
}

func TestForcedLayoutReachesSkippedSubtree(t *testing.T) {
	p, log := skippedFixture(t)

	stats := p.paint.LayoutRoot(viewport, WithForce())

	vtest.ExpectEvents(t, only(log.Take(), "layout"), "layout app", "layout f", "layout x", "layout b")
	if stats.Reused != 0 {
		t.Errorf("Reused = %d, want 0", stats.Reused)
	}
}

func TestNewConstraintsReachSkippedSubtree(t *testing.T) {
	p, log := skippedFixture(t)

	p.paint.LayoutRoot(ui.Size{Width: 50, Height: 80})

	vtest.ExpectEvents(t, only(log.Take(), "layout"), "layout app", "layout f", "layout x", "layout b")
	if got := p.paint.Bounds(p.find("app")).Size; got != (ui.Size{Width: 50, Height: 80}) {
		t.Errorf("app size = %v, want 50x80", got)
	}
}

// grower sizes itself from its state.
type grower struct{}

func (grower) Render([]ui.Element, *ui.State) []ui.Element { return nil }
func (grower) InitialState() any                             { return ui.Size{Width: 10, Height: 10} }
func (grower) Layout(ctx ui.LayoutContext, c ui.Constraints) ui.Size {
	s, _ := ui.Value[ui.Size](ctx.State())
	return c.Constrain(s)
}

func TestLayoutSubtreeBubbles(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Probe("col", ui.New(grower{}))))
	p.paint.LayoutRoot(viewport)
	p.paint.Paint(&DisplayList{})
	log.Take()

	col := p.find("col")
	box := p.paint.Children(col)[0]
	n, _ := p.paint.Node(box)

	n.Pod.State.Set(ui.Size{Width: 40, Height: 30})
	stats := p.paint.LayoutSubtree(box)

	vtest.ExpectEvents(t, only(log.Take(), "layout"), "layout col", "layout app")
	if stats.LaidOut != 3 {
		t.Errorf("LaidOut = %d, want 3", stats.LaidOut)
	}
	if got := p.paint.Bounds(col).Size; got != (ui.Size{Width: 40, Height: 30}) {
		t.Errorf("col size = %v, want 40x30", got)
	}
	if !p.paint.Flags(box).Has(ui.NeedsPaint) || !p.paint.Flags(p.paint.Root()).Has(ui.Dirty) {
		t.Error("a resized node must need paint and dirty the root")
	}

	// Same size again: the walk stops at the node itself.
	stats = p.paint.LayoutSubtree(box)
	if stats.LaidOut != 1 {
		t.Errorf("LaidOut = %d, want 1", stats.LaidOut)
	}
	vtest.ExpectEvents(t, only(log.Take(), "layout"))
}

func TestPaintLifecycleHooks(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Keyed("a", "a", log.Probe("x")), log.Keyed("b", "b")))
	p.paint.LayoutRoot(viewport)
	log.Take()

	if !p.paint.Paint(&DisplayList{}) {
		t.Fatal("Paint() = false on a fresh tree")
	}
	vtest.ExpectEvents(t, log.Take(),
		"mount app", "paint app",
		"mount a", "paint a",
		"mount x", "paint x",
		"mount b", "paint b")

	if p.paint.Paint(&DisplayList{}) {
		t.Error("Paint() = true with nothing changed")
	}
	for _, id := range p.paint.IDs() {
		if f := p.paint.Flags(id); f != 0 {
			t.Errorf("Flags(%v) = %s after paint, want Clean", id, f)
		}
	}

	p.mount(log.Probe("app", log.Keyed("b", "b"), log.Keyed("c", "c")))
	app, _ := p.paint.Node(p.find("app"))
	if len(app.DeletedChildren) != 2 {
		t.Fatalf("DeletedChildren = %d, want 2", len(app.DeletedChildren))
	}
	p.paint.LayoutRoot(viewport)
	log.Take()

	p.paint.Paint(&DisplayList{})
	vtest.ExpectEvents(t, log.Take(),
		"unmount a", "unmount x", "paint app",
		"paint b",
		"mount c", "paint c")
	app, _ = p.paint.Node(p.find("app"))
	if len(app.DeletedChildren) != 0 {
		t.Errorf("DeletedChildren = %d after paint, want 0", len(app.DeletedChildren))
	}
}

func TestRemovedParentCarriesStash(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Keyed("a", "a", log.Keyed("x", "x", log.Probe("y")))))
	p.paint.Paint(&DisplayList{})

	// Drop y first, then a, without painting in between.
	p.mount(log.Probe("app", log.Keyed("a", "a", log.Keyed("x", "x"))))
	p.mount(log.Probe("app"))
	log.Take()

	p.paint.Paint(&DisplayList{})
	got := only(log.Take(), "unmount")
	slices.Sort(got)
	vtest.ExpectEvents(t, got, "unmount a", "unmount x", "unmount y")
}

func TestUnpaintedNodesGetNoLifecycleHooks(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Keyed("a", "a")))
	p.paint.LayoutRoot(viewport)
	p.paint.Paint(&DisplayList{})

	// x comes and goes before a paint; y lands under a and leaves with it.
	p.mount(log.Probe("app", log.Keyed("x", "x"), log.Keyed("a", "a", log.Probe("y"))))
	p.mount(log.Probe("app"))
	app, _ := p.paint.Node(p.find("app"))
	if len(app.DeletedChildren) != 1 {
		t.Fatalf("DeletedChildren = %d, want 1", len(app.DeletedChildren))
	}
	p.paint.LayoutRoot(viewport)
	log.Take()

	p.paint.Paint(&DisplayList{})
	var hooks []string
	for _, e := range log.Take() {
		if strings.HasPrefix(e, "mount ") || strings.HasPrefix(e, "unmount ") {
			hooks = append(hooks, e)
		}
	}
	vtest.ExpectEvents(t, hooks, "unmount a")
}

func TestPaintCountsChangedNodes(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Keyed("a", "a"), log.Keyed("b", "b")))
	p.paint.LayoutRoot(viewport)

	stats, ok := p.paint.PaintStats(&DisplayList{})
	if !ok || stats.Painted != 4 || stats.Changed != 4 {
		t.Fatalf("PaintStats() = %+v, %v, want 4 painted and 4 changed", stats, ok)
	}

	if !p.paint.Invalidate(p.find("b"), ui.NeedsPaint) {
		t.Fatal("Invalidate() = false for a mounted node")
	}
	stats, ok = p.paint.PaintStats(&DisplayList{})
	if !ok || stats.Painted != 4 || stats.Changed != 1 {
		t.Errorf("PaintStats() = %+v, %v, want 4 painted and 1 changed", stats, ok)
	}
}

func TestPaintUsesAbsoluteBounds(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app",
		colored(log, "a", "red", &ui.Size{Width: 10, Height: 20}),
		colored(log, "b", "", nil, colored(log, "c", "blue", &ui.Size{Width: 5, Height: 5})),
	))
	p.paint.LayoutRoot(viewport)

	var dl DisplayList
	p.paint.Paint(&dl)

	want := []Command{
		{Kind: CommandRect, Rect: ui.Rect{Size: ui.Size{Width: 10, Height: 20}}, Color: "red"},
		{Kind: CommandRect, Rect: ui.Rect{Origin: ui.Point{Y: 20}, Size: ui.Size{Width: 5, Height: 5}}, Color: "blue"},
	}
	if diff := cmp.Diff(want, dl.Commands); diff != "" {
		t.Errorf("display list mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateDirtiesAncestorsOnly(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	p.mount(log.Probe("app", log.Probe("a", log.Probe("x")), log.Probe("b")))
	p.paint.LayoutRoot(viewport)
	p.paint.Paint(&DisplayList{})

	p.update(p.find("a"))

	tests := []struct {
		name string
		want ui.Flags
	}{
		{"app", ui.Dirty},
		{"a", ui.Dirty},
		{"x", ui.AllFlags},
		{"b", 0},
	}
	for _, tc := range tests {
		if got := p.paint.Flags(p.find(tc.name)); got != tc.want {
			t.Errorf("Flags(%s) = %s, want %s", tc.name, got, tc.want)
		}
	}
	if err := p.paint.Verify(); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestPlacementKeepsFlags(t *testing.T) {
	log := vtest.NewLog()
	p := newPipeline()
	frozen := func(k string) ui.Element { return log.Frozen(k).WithKey(k) }
	p.mount(log.Probe("app", frozen("a"), frozen("b")))
	p.paint.LayoutRoot(viewport)
	p.paint.Paint(&DisplayList{})

	p.mount(log.Probe("app", frozen("b"), frozen("a")))

	a, b := p.find("a"), p.find("b")
	if got := p.paint.Children(p.find("app")); !slices.Equal(got, []ui.ID{b, a}) {
		t.Errorf("Children(app) = %v, want [%v %v]", got, b, a)
	}
	if p.paint.Flags(a) != 0 || p.paint.Flags(b) != 0 {
		t.Errorf("moved children flags = %s, %s, want Clean", p.paint.Flags(a), p.paint.Flags(b))
	}
}

type badLayout struct{}

func (badLayout) Render([]ui.Element, *ui.State) []ui.Element { return nil }
func (badLayout) Layout(ctx ui.LayoutContext, _ ui.Constraints) ui.Size {
	return ctx.LayoutChild(ctx.ChildCount(), ui.Unbounded())
}

func TestLayoutChildOutOfRangePanics(t *testing.T) {
	p := newPipeline()
	p.mount(ui.New(badLayout{}))
	vtest.ExpectPanicCode(t, "E107", func() { p.paint.LayoutRoot(viewport) })
}

func TestUnknownPatchPanics(t *testing.T) {
	vtest.ExpectPanicCode(t, "E108", func() {
		New().Apply([]render.Patch{{Op: 0x7f}})
	})
}
