package render

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/canopy/pkg/ui"
	"github.com/vango-dev/canopy/pkg/vtest"
)

// describe prints the mounted subtree of id as name(child,child).
func describe(tr *Tree, id ui.ID) string {
	pod, ok := tr.Pod(id)
	if !ok {
		return "<missing>"
	}
	name := pod.TypeName()
	if p, ok := pod.Widget.(vtest.Probe); ok {
		name = p.Name
	}
	kids := tr.Children(id)
	if len(kids) == 0 {
		return name
	}
	parts := make([]string, len(kids))
	for i, c := range kids {
		parts[i] = describe(tr, c)
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

func describeElement(e ui.Element) string {
	name := e.Widget.(vtest.Probe).Name
	if len(e.Children) == 0 {
		return name
	}
	parts := make([]string, len(e.Children))
	for i, c := range e.Children {
		parts[i] = describeElement(c)
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

func ops(patches []Patch) []string {
	out := make([]string, len(patches))
	for i, p := range patches {
		out[i] = p.Op.String()
	}
	return out
}

// find returns the ID of the first node whose probe is named name.
func find(tr *Tree, name string) ui.ID {
	for _, id := range tr.IDs() {
		pod, _ := tr.Pod(id)
		if p, ok := pod.Widget.(vtest.Probe); ok && p.Name == name {
			return id
		}
	}
	return 0
}

func mustVerify(t *testing.T, tr *Tree) {
	t.Helper()
	if err := tr.Verify(); err != nil {
		t.Fatalf("Verify() = %v", err)
	}
}

func TestRenderMountsTree(t *testing.T) {
	log := vtest.NewLog()
	tr := New()

	patches := tr.Render(log.Probe("app", log.Probe("a"), log.Probe("b", log.Probe("c"))))

	if diff := cmp.Diff([]string{"Append", "Append", "Append", "Append", "Append"}, ops(patches)); diff != "" {
		t.Errorf("patch ops mismatch (-want +got):\n%s", diff)
	}
	if !patches[0].Parent.IsNil() || patches[0].ID != tr.Container() {
		t.Errorf("first patch = %v, want the internal root with a nil parent", patches[0])
	}
	if patches[1].Parent != tr.Container() || patches[1].ID != tr.Root() {
		t.Errorf("second patch = %v, want app under the internal root", patches[1])
	}
	vtest.ExpectEvents(t, log.Take(), "render app", "render a", "render b", "render c")

	if got := describe(tr, tr.Root()); got != "app(a,b(c))" {
		t.Errorf("tree = %s, want app(a,b(c))", got)
	}
	if tr.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tr.Len())
	}
	for _, id := range tr.IDs() {
		if s := tr.Status(id); s != Rendered {
			t.Errorf("Status(%v) = %s, want Rendered", id, s)
		}
	}
	mustVerify(t, tr)
}

func TestSecondRenderOnlyUpdates(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	app := log.Probe("app", log.Probe("a"), log.Probe("b"))
	tr.Render(app)
	before := tr.IDs()
	log.Take()

	patches := tr.Render(app)
	want := []string{"Update", "Update", "Update"}
	if diff := cmp.Diff(want, ops(patches)); diff != "" {
		t.Errorf("patch ops mismatch (-want +got):\n%s", diff)
	}
	vtest.ExpectEvents(t, log.Take(), "render app", "render a", "render b")

	after := tr.IDs()
	slices.Sort(before)
	slices.Sort(after)
	if !slices.Equal(before, after) {
		t.Errorf("IDs changed across a no-op render: %v -> %v", before, after)
	}
	mustVerify(t, tr)
}

func TestKeyedEdits(t *testing.T) {
	tests := []struct {
		name    string
		from    []string
		to      []string
		wantOps []string
	}{
		{
			name:    "insert in the middle",
			from:    []string{"a", "b"},
			to:      []string{"a", "x", "b"},
			wantOps: []string{"Update", "Update", "Insert", "Update"},
		},
		{
			name:    "delete in the middle",
			from:    []string{"a", "b", "c"},
			to:      []string{"a", "c"},
			wantOps: []string{"Update", "Update", "Update", "Remove"},
		},
		{
			name:    "move last to front",
			from:    []string{"a", "b", "c"},
			to:      []string{"c", "a", "b"},
			wantOps: []string{"Update", "Update", "Placement", "Update", "Update"},
		},
		{
			name:    "append",
			from:    []string{"a"},
			to:      []string{"a", "b"},
			wantOps: []string{"Update", "Update", "Append"},
		},
		{
			name:    "clear",
			from:    []string{"a", "b"},
			to:      nil,
			wantOps: []string{"Update", "Remove", "Remove"},
		},
	}

	build := func(log *vtest.Log, keys []string) ui.Element {
		kids := make([]ui.Element, len(keys))
		for i, k := range keys {
			kids[i] = log.Keyed(k, k)
		}
		return log.Probe("app", kids...)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log := vtest.NewLog()
			tr := New()
			tr.Render(build(log, tc.from))
			ids := map[string]ui.ID{}
			for _, k := range tc.from {
				ids[k] = find(tr, k)
			}

			next := build(log, tc.to)
			patches := tr.Render(next)
			if diff := cmp.Diff(tc.wantOps, ops(patches)); diff != "" {
				t.Errorf("patch ops mismatch (-want +got):\n%s", diff)
			}
			if got, want := describe(tr, tr.Root()), describeElement(next); got != want {
				t.Errorf("tree = %s, want %s", got, want)
			}
			for _, k := range tc.to {
				if old, ok := ids[k]; ok && find(tr, k) != old {
					t.Errorf("%s changed identity: %v -> %v", k, old, find(tr, k))
				}
			}
			mustVerify(t, tr)
		})
	}
}

func TestDeletionFreesSubtree(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	tr.Render(log.Probe("app",
		log.Keyed("a", "a", log.Probe("x"), log.Probe("y", log.Probe("z"))),
		log.Keyed("b", "b"),
	))
	gone := []ui.ID{find(tr, "a"), find(tr, "x"), find(tr, "y"), find(tr, "z")}
	if tr.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", tr.Len())
	}

	patches := tr.Render(log.Probe("app", log.Keyed("b", "b")))

	removes := 0
	for _, p := range patches {
		if p.Op == PatchRemove {
			removes++
			if p.ID != gone[0] {
				t.Errorf("Remove targets %v, want %v", p.ID, gone[0])
			}
		}
	}
	if removes != 1 {
		t.Errorf("Remove patches = %d, want 1 for the whole subtree", removes)
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
	for _, id := range gone {
		if tr.Contains(id) || tr.Dirty(id) {
			t.Errorf("node %v still present after its subtree was removed", id)
		}
	}
	mustVerify(t, tr)
}

func TestSkippedSubtreeIsLeftIntact(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	app := log.Probe("app", log.Frozen("f", log.Probe("x"), log.Probe("y")), log.Probe("b"))
	tr.Render(app)
	f := find(tr, "f")
	kids := tr.Children(f)
	log.Take()

	patches := tr.Render(app)

	vtest.ExpectEvents(t, log.Take(), "render app", "render b")
	if diff := cmp.Diff([]string{"Update", "Update"}, ops(patches)); diff != "" {
		t.Errorf("patch ops mismatch (-want +got):\n%s", diff)
	}
	if s := tr.Status(f); s != Skipped {
		t.Errorf("Status(f) = %s, want Skipped", s)
	}
	if got := tr.Children(f); !slices.Equal(got, kids) {
		t.Errorf("Children(f) = %v, want %v", got, kids)
	}
	if got := describe(tr, tr.Root()); got != "app(f(x,y),b)" {
		t.Errorf("tree = %s, want app(f(x,y),b)", got)
	}

	// A targeted update still renders a skipped node.
	tr.Update(f)
	vtest.ExpectEvents(t, log.Take(), "render f", "render x", "render y")
	if s := tr.Status(f); s != Rendered {
		t.Errorf("Status(f) after Update = %s, want Rendered", s)
	}
	mustVerify(t, tr)
}

func TestSkippedNodeStillMoves(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	frozen := func(key string) ui.Element {
		return ui.Keyed(key, vtest.Probe{Name: key, Log: log, Frozen: true})
	}
	tr.Render(log.Probe("app", frozen("a"), frozen("b")))

	patches := tr.Render(log.Probe("app", frozen("b"), frozen("a")))
	if diff := cmp.Diff([]string{"Update", "Placement"}, ops(patches)); diff != "" {
		t.Errorf("patch ops mismatch (-want +got):\n%s", diff)
	}
	if got := describe(tr, tr.Root()); got != "app(b,a)" {
		t.Errorf("tree = %s, want app(b,a)", got)
	}
	mustVerify(t, tr)
}

func TestDirtyPropagationShortCircuits(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	tr.Render(log.Probe("a", log.Probe("b", log.Probe("c"), log.Probe("d"))))
	a, b, c, d := find(tr, "a"), find(tr, "b"), find(tr, "c"), find(tr, "d")

	for _, id := range tr.IDs() {
		if !tr.Dirty(id) {
			t.Errorf("Dirty(%v) = false after the first render", id)
		}
	}
	tr.Commit()
	for _, id := range tr.IDs() {
		if tr.Dirty(id) {
			t.Errorf("Dirty(%v) = true after Commit", id)
		}
	}

	steps := []struct {
		id   ui.ID
		want int
	}{
		{c, 4}, // c, b, a and the internal root
		{b, 0},
		{d, 1},
		{a, 0},
	}
	for _, s := range steps {
		if got := tr.MarkDirty(s.id); got != s.want {
			t.Errorf("MarkDirty(%v) = %d, want %d", s.id, got, s.want)
		}
	}
	mustVerify(t, tr)
}

func TestUpdateMarksOnlyChangedPath(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	tr.Render(log.Probe("app", log.Probe("a", log.Probe("x")), log.Frozen("b", log.Probe("y"))))
	tr.Commit()

	a := find(tr, "a")
	tr.Update(a)

	for name, want := range map[string]bool{"app": true, "a": true, "x": true, "b": false, "y": false} {
		if got := tr.Dirty(find(tr, name)); got != want {
			t.Errorf("Dirty(%s) = %v, want %v", name, got, want)
		}
	}
	if !tr.Dirty(tr.Container()) {
		t.Error("internal root must be dirty when anything below it is")
	}
	mustVerify(t, tr)
}

func TestStatePreservedAndScheduled(t *testing.T) {
	log := vtest.NewLog()
	sched := &vtest.Scheduler{}
	tr := New(WithScheduler(sched))
	app := log.Probe("app", ui.New(vtest.Counter{Name: "n", Start: 1, Log: log}))
	tr.Render(app)
	log.Take()

	n := tr.Children(tr.Root())[0]
	pod, _ := tr.Pod(n)
	if pod.State.ID() != n {
		t.Fatalf("State.ID() = %v, want %v", pod.State.ID(), n)
	}

	pod.State.Update(func(old any) any { return old.(int) + 1 })
	if got := sched.Take(); !slices.Equal(got, []ui.ID{n}) {
		t.Fatalf("scheduled = %v, want [%v]", got, n)
	}

	patches := tr.Update(n)
	if len(patches) != 0 {
		t.Errorf("Update(n) = %v, want no patches", patches)
	}
	vtest.ExpectEvents(t, log.Take(), "render n=2")

	// Re-rendering the parent keeps the counter's state cell.
	tr.Render(app)
	vtest.ExpectEvents(t, log.Take(), "render app", "render n=2")
	after, _ := tr.Pod(n)
	if after.State != pod.State {
		t.Error("state cell replaced by an update")
	}
}

func TestUpdateOfRemovedNode(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	tr.Render(log.Probe("app", log.Probe("a")))
	a := find(tr, "a")
	tr.Render(log.Probe("app"))

	if patches := tr.Update(a); patches != nil {
		t.Errorf("Update(removed) = %v, want nil", patches)
	}
}

func TestReplaceRootElement(t *testing.T) {
	log := vtest.NewLog()
	tr := New()
	tr.Render(log.Keyed("one", "one", log.Probe("a")))
	first := tr.Root()

	patches := tr.Render(log.Keyed("two", "two", log.Probe("b")))
	if diff := cmp.Diff([]string{"Append", "Remove", "Append"}, ops(patches)); diff != "" {
		t.Errorf("patch ops mismatch (-want +got):\n%s", diff)
	}
	if tr.Contains(first) {
		t.Error("old root still mounted")
	}
	if got := describe(tr, tr.Root()); got != "two(b)" {
		t.Errorf("tree = %s, want two(b)", got)
	}
	mustVerify(t, tr)
}

func TestObserverSeesEveryPass(t *testing.T) {
	log := vtest.NewLog()
	var passes []Pass
	tr := New(WithObserver(ObserverFunc(func(p Pass) { passes = append(passes, p) })))

	tr.Render(log.Probe("app", log.Probe("a")))
	tr.Update(find(tr, "a"))

	if len(passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(passes))
	}
	if passes[0].Kind != "render" || passes[0].Rendered != 3 || len(passes[0].Patches) != 3 || passes[0].Nodes != 2 {
		t.Errorf("render pass = %+v", passes[0])
	}
	if passes[1].Kind != "update" || passes[1].Rendered != 1 || len(passes[1].Patches) != 0 {
		t.Errorf("update pass = %+v", passes[1])
	}
}

func TestArenaDesyncPanics(t *testing.T) {
	tr := New()
	tr.states.Insert(nodeState{})
	vtest.ExpectPanicCode(t, "E105", func() {
		tr.Render(vtest.NewLog().Probe("app"))
	})
}

func TestRandomRendersKeepParity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	log := vtest.NewLog()
	tr := New()

	var gen func(depth int) []ui.Element
	gen = func(depth int) []ui.Element {
		if depth == 0 {
			return nil
		}
		pool := []string{"a", "b", "c", "d", "e", "f"}
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		n := rng.Intn(5)
		out := make([]ui.Element, n)
		for i := range n {
			kids := gen(depth - 1)
			if rng.Intn(3) == 0 {
				out[i] = log.Probe("p", kids...)
				continue
			}
			out[i] = log.Keyed(pool[i], pool[i], kids...)
		}
		return out
	}

	for round := 0; round < 200; round++ {
		root := log.Probe("root", gen(3)...)
		tr.Render(root)
		log.Take()
		if err := tr.Verify(); err != nil {
			t.Fatalf("round %d: Verify() = %v", round, err)
		}
		if got, want := describe(tr, tr.Root()), describeElement(root); got != want {
			t.Fatalf("round %d: tree = %s, want %s", round, got, want)
		}
		if rng.Intn(4) == 0 {
			tr.Commit()
		}
	}
	if n := len(tr.IDs()); n != tr.Len()+1 {
		t.Errorf("IDs = %d, want Len()+1 = %d", n, tr.Len()+1)
	}
}

func TestPatchString(t *testing.T) {
	p := Patch{Op: PatchRemove, ID: 3}
	if got := p.String(); got != fmt.Sprintf("Remove(%v)", ui.ID(3)) {
		t.Errorf("String() = %q", got)
	}
	counts := Count([]Patch{{Op: PatchAppend}, {Op: PatchAppend}, {Op: PatchRemove}})
	if counts[PatchAppend] != 2 || counts[PatchRemove] != 1 {
		t.Errorf("Count() = %v", counts)
	}
}
