// Package observability wires OpenTelemetry tracing and metrics. Export is
// off by default; when enabled, traces and metrics go to an OTLP HTTP
// collector.
//
//	shutdown, err := observability.Init(ctx, cfg.Observability, observability.Service{Name: "whisper-api"})
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewTranscriptionMetrics(observability.Meter())
//	ctx, span := observability.Tracer().Start(ctx, observability.SpanTranscribe)
package observability
