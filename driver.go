package canopy

import (
	"github.com/vango-dev/canopy/pkg/host"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/ui"
)

// Driver runs the render and paint trees on the calling goroutine. State
// updates are queued on its scheduler until Flush. A Driver is not safe for
// concurrent use.
type Driver struct {
	render   *render.Tree
	paint    *paint.Tree
	sched    *host.Scheduler
	canvas   *paint.DisplayList
	viewport ui.Size
	seq      uint64
}

// NewDriver creates a Driver laying out in viewport. opts are passed to the
// render tree after the driver's scheduler.
func NewDriver(viewport ui.Size, opts ...render.Option) *Driver {
	sched := host.NewScheduler()
	opts = append([]render.Option{render.WithScheduler(sched)}, opts...)
	return &Driver{
		render:   render.New(opts...),
		paint:    paint.New(),
		sched:    sched,
		canvas:   &paint.DisplayList{},
		viewport: viewport,
	}
}

// Mount renders root and presents the resulting frame. Mounting again
// reconciles the new root against the mounted one.
func (d *Driver) Mount(root ui.Element) host.Batch {
	patches := d.render.Render(root)
	return d.present(host.Batch{
		Kind:    host.KindRender,
		Target:  d.render.Container(),
		Patches: patches,
		Nodes:   d.render.Len(),
	})
}

// Update re-renders id and presents the frame. It returns false when id is
// not mounted.
func (d *Driver) Update(id ui.ID) (host.Batch, bool) {
	if !d.render.Contains(id) {
		return host.Batch{}, false
	}
	patches := d.render.Update(id)
	return d.present(host.Batch{
		Kind:    host.KindUpdate,
		Target:  id,
		Patches: patches,
		Nodes:   d.render.Len(),
	}), true
}

// Flush serves every queued update request in request order.
func (d *Driver) Flush() []host.Batch {
	var out []host.Batch
	for _, id := range d.sched.Take() {
		if b, ok := d.Update(id); ok {
			out = append(out, b)
		}
	}
	return out
}

func (d *Driver) present(b host.Batch) host.Batch {
	d.seq++
	b.Seq = d.seq
	host.Present(d.paint, d.canvas, d.viewport, &b)
	d.render.Commit()
	return b
}

// Find returns the mounted nodes whose widget is a W, in pre-order.
func Find[W ui.Widget](d *Driver) []ui.ID {
	var out []ui.ID
	var visit func(id ui.ID)
	visit = func(id ui.ID) {
		if pod, ok := d.render.Pod(id); ok {
			if _, ok := pod.Widget.(W); ok {
				out = append(out, id)
			}
		}
		for _, c := range d.render.Children(id) {
			visit(c)
		}
	}
	if root := d.render.Container(); !root.IsNil() {
		visit(root)
	}
	return out
}

// State returns the state of the node mounted under id.
func (d *Driver) State(id ui.ID) (*ui.State, bool) {
	pod, ok := d.render.Pod(id)
	if !ok {
		return nil, false
	}
	return pod.State, true
}

// RenderTree returns the render tree.
func (d *Driver) RenderTree() *render.Tree { return d.render }

// PaintTree returns the paint tree.
func (d *Driver) PaintTree() *paint.Tree { return d.paint }

// Canvas returns the display list frames are painted into.
func (d *Driver) Canvas() *paint.DisplayList { return d.canvas }

// Viewport returns the layout viewport.
func (d *Driver) Viewport() ui.Size { return d.viewport }

// Seq returns the sequence number of the last presented frame.
func (d *Driver) Seq() uint64 { return d.seq }

// Pending returns how many update requests wait for Flush.
func (d *Driver) Pending() int { return d.sched.Len() }
