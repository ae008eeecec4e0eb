package canopy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/canopy/internal/config"
	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/host"
	"github.com/vango-dev/canopy/pkg/inspector"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/snapshot"
	"github.com/vango-dev/canopy/pkg/telemetry"
	"github.com/vango-dev/canopy/pkg/ui"
)

// App runs a root widget under a host and wires the host's telemetry,
// inspector and snapshot store from a Config.
//
//	app, err := canopy.New(cfg, widgets.Demo(3))
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
type App struct {
	config    *config.Config
	host      *host.Host
	registry  *prometheus.Registry
	metrics   *telemetry.Metrics
	tracing   *telemetry.Tracing
	store     snapshot.Store
	inspector *inspector.Server
	logger    *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	logger    *slog.Logger
	store     snapshot.Store
	registry  *prometheus.Registry
	provider  trace.TracerProvider
	canvas    ui.Canvas
	observers []host.BatchObserver
}

// WithLogger sets the logger. The default logs through slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithStore sets the snapshot store instead of the one the config selects.
func WithStore(s snapshot.Store) Option {
	return func(o *appOptions) {
		o.store = s
	}
}

// WithRegistry registers the metrics with r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *appOptions) {
		o.registry = r
	}
}

// WithTracerProvider sets the tracer provider. The default is the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *appOptions) {
		o.provider = tp
	}
}

// WithCanvas sets the canvas frames are painted into.
func WithCanvas(c ui.Canvas) Option {
	return func(o *appOptions) {
		o.canvas = c
	}
}

// WithObserver adds an observer notified after every frame.
func WithObserver(b host.BatchObserver) Option {
	return func(o *appOptions) {
		o.observers = append(o.observers, b)
	}
}

// New validates cfg and builds an App for root. A nil cfg uses the
// defaults.
func New(cfg *config.Config, root ui.Element, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	if o.store == nil {
		store, err := OpenStore(cfg)
		if err != nil {
			return nil, err
		}
		o.store = store
	}

	tracingOpts := []telemetry.TracingOption{telemetry.WithTracerName(cfg.Metrics.Namespace)}
	if o.provider != nil {
		tracingOpts = append(tracingOpts, telemetry.WithTracerProvider(o.provider))
	}

	a := &App{
		config:   cfg,
		registry: o.registry,
		metrics: telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(o.registry),
		),
		tracing: telemetry.NewTracing(tracingOpts...),
		store:   o.store,
		logger:  o.logger,
		ready:   make(chan struct{}),
	}

	hostOpts := []host.Option{
		host.WithViewport(ui.Size{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}),
		host.WithLogger(o.logger),
		host.WithCanvas(o.canvas),
		host.WithMetrics(a.metrics),
		host.WithTracing(a.tracing),
		host.WithObserver(host.BatchObserverFunc(a.observeFirst)),
	}
	for _, b := range o.observers {
		hostOpts = append(hostOpts, host.WithObserver(b))
	}
	a.host = host.New(root, hostOpts...)

	if cfg.Inspector.Enabled {
		a.inspector = inspector.New(a.host,
			inspector.WithStore(a.store),
			inspector.WithMetrics(a.metrics),
			inspector.WithGatherer(a.registry),
			inspector.WithLogger(o.logger),
			inspector.WithQueueSize(cfg.Inspector.QueueSize),
		)
		a.host.AddObserver(a.inspector)
	}

	return a, nil
}

func (a *App) observeFirst(host.Batch) {
	a.readyOnce.Do(func() { close(a.ready) })
}

// Run runs the host, and the inspector when enabled, until ctx is
// cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.inspector == nil {
		return a.host.Run(ctx)
	}

	errc := make(chan error, 1)
	go func() {
		err := a.inspector.ListenAndServe(ctx, a.config.Inspector.Addr)
		cancel()
		errc <- err
	}()

	err := a.host.Run(ctx)
	cancel()
	if ierr := <-errc; err == nil && ierr != nil {
		err = errors.New("E603").Wrap(ierr)
	}
	return err
}

// Ready is closed once the first frame is painted.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Capture snapshots the paint tree as of the last painted frame. The app
// must be running.
func (a *App) Capture(ctx context.Context) (*snapshot.Snapshot, error) {
	var snap *snapshot.Snapshot
	err := a.host.Do(ctx, func(pt *paint.Tree) {
		snap = snapshot.Capture(pt, a.host.Seq(), a.host.Viewport())
	})
	if err != nil {
		return nil, errors.New("E602").Wrap(err)
	}
	return snap, nil
}

// Snapshot captures the paint tree and saves it to the store, returning
// the snapshot ID.
func (a *App) Snapshot(ctx context.Context) (string, error) {
	snap, err := a.Capture(ctx)
	if err != nil {
		return "", err
	}
	id, err := a.store.Save(ctx, snap)
	if err != nil {
		return "", err
	}
	a.logger.Info("snapshot saved", "id", id, "nodes", snap.Nodes)
	return id, nil
}

// Host returns the host.
func (a *App) Host() *host.Host { return a.host }

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.config }

// Metrics returns the app's metrics.
func (a *App) Metrics() *telemetry.Metrics { return a.metrics }

// Registry returns the registry the metrics are registered with.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Store returns the snapshot store.
func (a *App) Store() snapshot.Store { return a.store }

// Inspector returns the inspector server, or nil when it is disabled.
func (a *App) Inspector() *inspector.Server { return a.inspector }
