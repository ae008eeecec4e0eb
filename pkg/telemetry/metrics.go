package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/render"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "canopy").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass durations.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "canopy",
		// Passes are sub-millisecond for small trees.
		Buckets:  prometheus.ExponentialBuckets(0.00005, 4, 10),
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics records tree activity. It implements render.Observer.
type Metrics struct {
	passesTotal      *prometheus.CounterVec
	passDuration     *prometheus.HistogramVec
	widgetsRendered  prometheus.Counter
	widgetsSkipped   prometheus.Counter
	patchesTotal     *prometheus.CounterVec
	nodes            prometheus.Gauge
	layoutDuration   prometheus.Histogram
	layoutNodes      *prometheus.CounterVec
	paintsTotal      prometheus.Counter
	lifecycleHooks   *prometheus.CounterVec
	inspectorClients prometheus.Gauge
	inspectorDropped prometheus.Counter
}

// NewMetrics registers the metrics with the configured registry.
// Registering twice with the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	histogramOpts := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &Metrics{
		passesTotal:      factory.NewCounterVec(counterOpts("passes_total", "Total number of render passes"), []string{"kind"}),
		passDuration:     factory.NewHistogramVec(histogramOpts("pass_duration_seconds", "Render pass duration in seconds"), []string{"kind"}),
		widgetsRendered:  factory.NewCounter(counterOpts("widgets_rendered_total", "Total number of widget Render calls")),
		widgetsSkipped:   factory.NewCounter(counterOpts("widgets_skipped_total", "Total number of updates declined by widgets")),
		patchesTotal:     factory.NewCounterVec(counterOpts("patches_total", "Total number of patches emitted"), []string{"op"}),
		nodes:            factory.NewGauge(gaugeOpts("nodes", "Number of mounted nodes after the last pass")),
		layoutDuration:   factory.NewHistogram(histogramOpts("layout_duration_seconds", "Layout pass duration in seconds")),
		layoutNodes:      factory.NewCounterVec(counterOpts("layout_nodes_total", "Nodes visited by layout"), []string{"result"}),
		paintsTotal:      factory.NewCounter(counterOpts("paints_total", "Total number of painted frames")),
		lifecycleHooks:   factory.NewCounterVec(counterOpts("lifecycle_hooks_total", "Mount and Unmount hook calls"), []string{"hook"}),
		inspectorClients: factory.NewGauge(gaugeOpts("inspector_clients", "Connected inspector clients")),
		inspectorDropped: factory.NewCounter(counterOpts("inspector_dropped_total", "Batches dropped for slow inspector clients")),
	}
}

// ObservePass implements render.Observer.
func (m *Metrics) ObservePass(p render.Pass) {
	m.passesTotal.WithLabelValues(p.Kind).Inc()
	m.passDuration.WithLabelValues(p.Kind).Observe(p.Duration.Seconds())
	m.widgetsRendered.Add(float64(p.Rendered))
	m.widgetsSkipped.Add(float64(p.Skipped))
	for op, n := range render.Count(p.Patches) {
		m.patchesTotal.WithLabelValues(op.String()).Add(float64(n))
	}
	m.nodes.Set(float64(p.Nodes))
}

// ObserveLayout records a finished layout pass.
func (m *Metrics) ObserveLayout(s paint.LayoutStats) {
	m.layoutDuration.Observe(s.Duration.Seconds())
	m.layoutNodes.WithLabelValues("laid_out").Add(float64(s.LaidOut))
	m.layoutNodes.WithLabelValues("reused").Add(float64(s.Reused))
}

// ObservePaint records a paint pass that drew a frame.
func (m *Metrics) ObservePaint(s paint.PaintStats) {
	m.paintsTotal.Inc()
	m.lifecycleHooks.WithLabelValues("mount").Add(float64(s.Mounted))
	m.lifecycleHooks.WithLabelValues("unmount").Add(float64(s.Unmounted))
}

// ClientConnected records a new inspector client.
func (m *Metrics) ClientConnected() {
	m.inspectorClients.Inc()
}

// ClientDisconnected records an inspector client leaving.
func (m *Metrics) ClientDisconnected() {
	m.inspectorClients.Dec()
}

// BatchDropped records a batch dropped for a slow inspector client.
func (m *Metrics) BatchDropped() {
	m.inspectorDropped.Inc()
}
