package host

import (
	"log/slog"

	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/telemetry"
	"github.com/vango-dev/canopy/pkg/ui"
)

// DefaultViewport is the layout viewport when none is configured.
var DefaultViewport = ui.Size{Width: 800, Height: 600}

// DefaultQueueSize is how many batches may wait for the paint loop.
const DefaultQueueSize = 16

// Option configures a Host.
type Option func(*Host)

// WithViewport sets the size the root is laid out in.
func WithViewport(s ui.Size) Option {
	return func(h *Host) {
		h.viewport = s
	}
}

// WithLogger sets the logger. The render and paint trees log through it
// with their own component attribute.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithCanvas sets the canvas frames are painted into. A canvas with a
// Reset method is reset before every painted frame.
func WithCanvas(c ui.Canvas) Option {
	return func(h *Host) {
		if c != nil {
			h.canvas = c
		}
	}
}

// WithObserver adds an observer notified after every frame.
func WithObserver(o BatchObserver) Option {
	return func(h *Host) {
		if o != nil {
			h.observers = append(h.observers, o)
		}
	}
}

// WithMetrics records passes, layouts and paints.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithTracing records passes and frames as spans.
func WithTracing(t *telemetry.Tracing) Option {
	return func(h *Host) {
		h.tracing = t
	}
}

// WithRenderOptions passes options to the render tree.
func WithRenderOptions(opts ...render.Option) Option {
	return func(h *Host) {
		h.renderOpts = append(h.renderOpts, opts...)
	}
}

// WithQueueSize sets how many batches may wait for the paint loop.
func WithQueueSize(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.queue = n
		}
	}
}
