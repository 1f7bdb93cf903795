package observability

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ShutdownFunc flushes and stops exporters.
type ShutdownFunc func(ctx context.Context) error

// Init installs OTLP tracer and meter providers when cfg.Enabled. When
// disabled it returns a no-op shutdown and the global no-op providers stay.
func Init(ctx context.Context, cfg Config, svc Service) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := InitTracer(ctx, cfg, svc)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg, svc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		var g errgroup.Group
		g.Go(func() error { return tp.Shutdown(ctx) })
		g.Go(func() error { return mp.Shutdown(ctx) })
		return g.Wait()
	}, nil
}
