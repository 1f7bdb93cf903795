// Command whisper-api serves POST /transcribe/: upload an audio file, get
// back its transcription and language.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/kbukum/whisper-api/api"
	"github.com/kbukum/whisper-api/bootstrap"
	"github.com/kbukum/whisper-api/config"
	"github.com/kbukum/whisper-api/device"
	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/observability"
	"github.com/kbukum/whisper-api/scratch"
	"github.com/kbukum/whisper-api/server"
	"github.com/kbukum/whisper-api/transcription"
	"github.com/kbukum/whisper-api/transcription/builtin"
	"github.com/kbukum/whisper-api/version"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "whisper-api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultServiceName)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	shutdownTelemetry, err := observability.Init(ctx, cfg.Observability, observability.Service{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	app.OnStop(func(ctx context.Context) error { return shutdownTelemetry(ctx) })

	engine, err := newEngine(ctx, cfg.Transcription, log)
	if err != nil {
		return err
	}

	dir := scratch.NewDir(afero.NewOsFs(), cfg.Transcription.ScratchDir, log)
	if err := dir.Check(); err != nil {
		return err
	}

	metrics, err := observability.NewTranscriptionMetrics(observability.Meter())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	host := device.DescribeHost(ctx)

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, server.Endpoints{
		Checker: app.Components.HealthAll,
		Details: func() map[string]any {
			return map[string]any{
				"provider":         engine.Provider().Name(),
				"model":            engine.Model(),
				"device":           engine.Device(),
				"language":         cfg.Transcription.Language,
				"accepted_formats": api.AcceptedExtensions,
				"cpu_model":        host.Model,
				"cpu_cores":        host.Cores,
			}
		},
		Stats: func() map[string]any {
			capacity, inUse := engine.Slots()
			return map[string]any{
				"engine_slots":        capacity,
				"engine_slots_in_use": inUse,
			}
		},
	})
	api.NewHandler(engine, dir,
		api.WithMetrics(metrics),
		api.WithLogger(log),
	).Register(srv.GinEngine())

	grpcHealth := server.NewGRPCHealth(cfg.Name)
	grpcHealth.Mount(srv)

	if err := app.RegisterComponent(transcription.NewComponent(engine, log)); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewGRPCHealthComponent(grpcHealth)); err != nil {
		return err
	}

	return app.Run(ctx)
}

// newEngine selects the compute device and builds the configured provider.
// Both happen exactly once per process.
func newEngine(ctx context.Context, cfg transcription.Config, log *logger.Logger) (*transcription.Engine, error) {
	dev := device.Select(ctx, cfg.Device, device.NvidiaSMI(""))
	log.Info("Compute device selected", logger.Fields("preference", cfg.Device, "device", dev))

	p, err := builtin.Registry().Create(cfg.Provider, transcription.Options{
		Config: cfg,
		Device: dev,
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription provider: %w", err)
	}
	return transcription.NewEngine(p, cfg, dev, log), nil
}
