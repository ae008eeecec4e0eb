// Package telemetry exports Prometheus metrics and OpenTelemetry spans for
// render passes, layout, paint and the inspector stream.
//
// Metrics collected (namespace "canopy" by default):
//   - canopy_passes_total: render passes by kind ("render", "update")
//   - canopy_pass_duration_seconds: render pass duration by kind
//   - canopy_widgets_rendered_total: widget Render calls
//   - canopy_widgets_skipped_total: updates declined by widgets
//   - canopy_patches_total: emitted patches by op
//   - canopy_nodes: live nodes after the last pass
//   - canopy_layout_duration_seconds: layout pass duration
//   - canopy_layout_nodes_total: nodes laid out or reused, by result
//   - canopy_paints_total: paint passes that drew a frame
//   - canopy_lifecycle_hooks_total: Mount and Unmount calls, by hook
//   - canopy_inspector_clients: connected inspector clients
//   - canopy_inspector_dropped_total: batches dropped for slow clients
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	tr := render.New(render.WithObserver(m), render.WithObserver(telemetry.NewTracing()))
//
// Spans use the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main():
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
package telemetry
