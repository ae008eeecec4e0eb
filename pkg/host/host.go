package host

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/telemetry"
	"github.com/vango-dev/canopy/pkg/ui"
)

// ErrRunning is returned by Run when the host is already running.
var ErrRunning = stderrors.New("host: already running")

// Batch kinds.
const (
	KindRender = "render"
	KindUpdate = "update"
)

// Batch is the output of one render pass, completed by the paint loop.
type Batch struct {
	Seq     uint64
	Kind    string // KindRender or KindUpdate
	Target  ui.ID  // node the pass started at
	Patches []render.Patch
	Nodes   int // mounted nodes after the pass

	// Set by the paint loop.
	Layout  paint.LayoutStats
	Paint   paint.PaintStats
	Painted bool
}

// BatchObserver is notified on the paint loop after a batch is painted.
// Observers must not block.
type BatchObserver interface {
	ObserveBatch(b Batch)
}

// BatchObserverFunc adapts a function to BatchObserver.
type BatchObserverFunc func(b Batch)

// ObserveBatch implements BatchObserver.
func (f BatchObserverFunc) ObserveBatch(b Batch) { f(b) }

// Host runs a widget tree on a render goroutine and a paint loop.
type Host struct {
	root       ui.Element
	viewport   ui.Size
	logger     *slog.Logger
	canvas     ui.Canvas
	observers  []BatchObserver
	metrics    *telemetry.Metrics
	tracing    *telemetry.Tracing
	renderOpts []render.Option
	queue      int

	sched    *Scheduler
	batches  chan Batch
	dispatch chan func(*paint.Tree)
	running  atomic.Bool
	seq      uint64        // render goroutine only
	painted  atomic.Uint64 // last painted sequence number
}

// New creates a Host for root.
func New(root ui.Element, opts ...Option) *Host {
	h := &Host{
		root:     root,
		viewport: DefaultViewport,
		logger:   slog.Default(),
		canvas:   &paint.DisplayList{},
		queue:    DefaultQueueSize,
		sched:    NewScheduler(),
		dispatch: make(chan func(*paint.Tree)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "host")
	return h
}

// AddObserver adds a batch observer. It must be called before Run.
func (h *Host) AddObserver(o BatchObserver) {
	if h.running.Load() {
		panic("host: AddObserver called while running")
	}
	h.observers = append(h.observers, o)
}

// Scheduler returns the scheduler mounted states report to.
func (h *Host) Scheduler() *Scheduler {
	return h.sched
}

// RequestUpdate schedules a re-render of id.
func (h *Host) RequestUpdate(id ui.ID) {
	h.sched.RequestUpdate(id)
}

// Canvas returns the canvas frames are painted into. Read it from a Do
// callback or a BatchObserver.
func (h *Host) Canvas() ui.Canvas {
	return h.canvas
}

// Viewport returns the layout viewport.
func (h *Host) Viewport() ui.Size {
	return h.viewport
}

// Seq returns the sequence number of the last painted batch.
func (h *Host) Seq() uint64 {
	return h.painted.Load()
}

// Running reports whether Run is in progress.
func (h *Host) Running() bool {
	return h.running.Load()
}

// Run mounts the root and serves update requests until ctx is cancelled.
// It returns nil on cancellation and a coded error when a loop panics.
func (h *Host) Run(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer h.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := append([]render.Option{
		render.WithLogger(h.logger.With("component", "render")),
		render.WithScheduler(h.sched),
	}, h.renderOpts...)
	if h.metrics != nil {
		opts = append(opts, render.WithObserver(h.metrics))
	}
	if h.tracing != nil {
		opts = append(opts, render.WithObserver(h.tracing))
	}
	rt := render.New(opts...)
	pt := paint.New(paint.WithLogger(h.logger.With("component", "paint")))

	h.batches = make(chan Batch, h.queue)
	h.logger.Info("host started", "viewport", h.viewport)

	errc := make(chan error, 2)
	go func() { errc <- h.renderLoop(ctx, rt) }()
	go func() { errc <- h.paintLoop(ctx, pt) }()

	var first error
	for range 2 {
		if err := <-errc; err != nil && first == nil {
			first = err
			cancel()
		}
	}

	if first != nil {
		h.logger.Error("host stopped", "error", first)
		return first
	}
	h.logger.Info("host stopped", "seq", h.painted.Load())
	return nil
}

// Do runs fn on the paint loop and waits for it to return. It fails when
// ctx is done first.
func (h *Host) Do(ctx context.Context, fn func(pt *paint.Tree)) error {
	done := make(chan struct{})
	wrapped := func(pt *paint.Tree) {
		defer close(done)
		fn(pt)
	}
	select {
	case h.dispatch <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) renderLoop(ctx context.Context, rt *render.Tree) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("render loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
			err = panicError("E501", r)
		}
	}()

	patches := rt.Render(h.root)
	if !h.send(ctx, Batch{Kind: KindRender, Target: rt.Container(), Patches: patches, Nodes: rt.Len()}) {
		return nil
	}
	rt.Commit()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-h.sched.Wake():
			for _, id := range h.sched.Take() {
				if !rt.Contains(id) {
					h.logger.Debug("dropping update for unmounted node", "id", id)
					continue
				}
				patches := rt.Update(id)
				if !h.send(ctx, Batch{Kind: KindUpdate, Target: id, Patches: patches, Nodes: rt.Len()}) {
					return nil
				}
				rt.Commit()
			}
		}
	}
}

// send numbers b and queues it for the paint loop.
func (h *Host) send(ctx context.Context, b Batch) bool {
	h.seq++
	b.Seq = h.seq
	select {
	case h.batches <- b:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Host) paintLoop(ctx context.Context, pt *paint.Tree) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("paint loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
			err = panicError("E502", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case fn := <-h.dispatch:
			fn(pt)

		case b := <-h.batches:
			h.frame(ctx, pt, &b)
			h.painted.Store(b.Seq)
			for _, o := range h.observers {
				o.ObserveBatch(b)
			}
		}
	}
}

// frame applies, lays out and paints one batch.
func (h *Host) frame(ctx context.Context, pt *paint.Tree, b *Batch) {
	var span trace.Span
	if h.tracing != nil {
		_, span = h.tracing.StartFrame(ctx, b.Seq, len(b.Patches))
		defer func() {
			if r := recover(); r != nil {
				telemetry.EndFrame(span, b.Layout, false, fmt.Errorf("panic: %v", r))
				panic(r)
			}
		}()
	}

	Present(pt, h.canvas, h.viewport, b)

	if h.metrics != nil {
		h.metrics.ObserveLayout(b.Layout)
		if b.Painted {
			h.metrics.ObservePaint(b.Paint)
		}
	}
	if span != nil {
		telemetry.EndFrame(span, b.Layout, b.Painted, nil)
	}

	h.logger.Debug("frame",
		"seq", b.Seq,
		"kind", b.Kind,
		"patches", len(b.Patches),
		"laid_out", b.Layout.LaidOut,
		"painted", b.Painted)
}

// Present applies b to pt, lays the tree out in viewport and paints it
// into c, filling in b's layout and paint results. A canvas with a Reset
// method is reset before a painted frame.
func Present(pt *paint.Tree, c ui.Canvas, viewport ui.Size, b *Batch) {
	pt.Apply(b.Patches)
	if b.Kind == KindUpdate {
		// The target re-rendered from its own state; its patch, if any,
		// came from the parent.
		pt.Invalidate(b.Target, ui.AllFlags)
	}
	b.Layout = pt.LayoutRoot(viewport)

	if root := pt.Root(); !root.IsNil() && pt.Flags(root).Has(ui.Dirty) {
		if r, ok := c.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
	b.Paint, b.Painted = pt.PaintStats(c)
}

// panicError turns a recovered value into a coded error, keeping the code
// of a coded panic.
func panicError(code string, r any) error {
	if err, ok := r.(error); ok {
		return errors.FromError(err, code)
	}
	return errors.New(code).WithDetailf("%v", r)
}
