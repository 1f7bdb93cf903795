package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/whisper-api/logger"
)

// InitMeter installs a periodic OTLP HTTP meter provider as the global one.
// The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config, svc Service) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// TranscriptionMetrics holds the instruments recorded per upload.
type TranscriptionMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	errors   metric.Int64Counter
}

// NewTranscriptionMetrics creates the transcription instruments on meter.
func NewTranscriptionMetrics(meter metric.Meter) (*TranscriptionMetrics, error) {
	requests, err := meter.Int64Counter("transcription.requests",
		metric.WithDescription("Transcription requests by outcome and format"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram("transcription.duration",
		metric.WithDescription("End-to-end duration of transcription requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("transcription.active",
		metric.WithDescription("Transcription requests in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.active counter: %w", err)
	}

	errs, err := meter.Int64Counter("transcription.errors",
		metric.WithDescription("Failed transcription requests by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.errors counter: %w", err)
	}

	return &TranscriptionMetrics{requests: requests, duration: duration, active: active, errors: errs}, nil
}

// Begin marks a request in flight.
func (m *TranscriptionMetrics) Begin(ctx context.Context) {
	m.active.Add(ctx, 1)
}

// End records a finished request. code is empty on success.
func (m *TranscriptionMetrics) End(ctx context.Context, outcome, format, code string, d time.Duration) {
	m.active.Add(ctx, -1)
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("format", format),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
	if code != "" {
		m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
}
