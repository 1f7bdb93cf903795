package observability

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Enabled {
		t.Error("expected export to be disabled by default")
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{SampleRate: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
	cfg = Config{Enabled: true, SampleRate: 0.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing endpoint")
	}
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{}, Service{Name: "test"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestTranscriptionMetricsNoop(t *testing.T) {
	m, err := NewTranscriptionMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewTranscriptionMetrics failed: %v", err)
	}
	ctx := context.Background()
	m.Begin(ctx)
	m.End(ctx, "ok", ".wav", "", time.Second)
}

func TestTranscriptionMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewTranscriptionMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.Begin(ctx)
	m.End(ctx, "ok", ".wav", "", 2*time.Second)
	m.Begin(ctx)
	m.End(ctx, "client_error", ".txt", "UNSUPPORTED_FORMAT", time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if s, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	if sums["transcription.requests"] != 2 {
		t.Errorf("expected 2 requests, got %d", sums["transcription.requests"])
	}
	if sums["transcription.errors"] != 1 {
		t.Errorf("expected 1 error, got %d", sums["transcription.errors"])
	}
	if sums["transcription.active"] != 0 {
		t.Errorf("expected no active requests, got %d", sums["transcription.active"])
	}
}
