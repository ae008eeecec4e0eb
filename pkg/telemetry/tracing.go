package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/render"
)

// Default tracer name.
const defaultTracerName = "canopy"

// TracingConfig configures span creation.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "canopy").
	TracerName string

	// Provider supplies the tracer. Default: otel.GetTracerProvider().
	Provider trace.TracerProvider
}

// TracingOption configures Tracing.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// Tracing turns passes and frames into spans. It implements
// render.Observer.
type Tracing struct {
	tracer trace.Tracer
}

// NewTracing creates a Tracing.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &Tracing{tracer: config.Provider.Tracer(config.TracerName)}
}

// ObservePass records a finished render pass as a span with its real start
// and end times.
func (t *Tracing) ObservePass(p render.Pass) {
	_, span := t.tracer.Start(context.Background(), "canopy."+p.Kind,
		trace.WithTimestamp(p.Start),
		trace.WithAttributes(
			attribute.String("canopy.target", p.Target.String()),
			attribute.Int("canopy.rendered", p.Rendered),
			attribute.Int("canopy.skipped", p.Skipped),
			attribute.Int("canopy.patch_count", len(p.Patches)),
			attribute.Int("canopy.nodes", p.Nodes),
		),
	)
	span.End(trace.WithTimestamp(p.Start.Add(p.Duration)))
}

// StartFrame starts a span covering the application of one batch, its
// layout and its paint.
func (t *Tracing) StartFrame(ctx context.Context, seq uint64, patches int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "canopy.frame",
		trace.WithAttributes(
			attribute.Int64("canopy.seq", int64(seq)),
			attribute.Int("canopy.patch_count", patches),
		),
	)
}

// EndFrame finishes a frame span. A non-nil err marks the span failed.
func EndFrame(span trace.Span, layout paint.LayoutStats, painted bool, err error) {
	span.SetAttributes(
		attribute.Int("canopy.laid_out", layout.LaidOut),
		attribute.Int("canopy.reused", layout.Reused),
		attribute.Bool("canopy.painted", painted),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
