package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/whisper-api/component"
	"github.com/kbukum/whisper-api/config"
	"github.com/kbukum/whisper-api/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name string) *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: name, Version: "1.2.3", Environment: "production"}}
}

// recorder collects lifecycle events across components in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, ",")
}

type mockComponent struct {
	name     string
	rec      *recorder
	startErr error
	health   component.Health
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	m.rec.add("start:" + m.name)
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	m.rec.add("stop:" + m.name)
	return nil
}
func (m *mockComponent) Health(context.Context) component.Health {
	if m.health.Name == "" {
		return component.Health{Name: m.name, Status: component.StatusHealthy}
	}
	return m.health
}

type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() component.Description {
	return component.Description{Name: "HTTP Server", Type: "server", Details: "0.0.0.0:8000"}
}

func (d *describedComponent) Routes() []component.Route {
	return []component.Route{{Method: "POST", Path: "/transcribe/", Handler: "Handler.Transcribe"}}
}

func newTestApp(t *testing.T, out *bytes.Buffer) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("whisper-api"),
		WithLogger(logger.NewNop()),
		WithGracefulTimeout(time.Second),
		WithSummaryOutput(out),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	if app.Name != "whisper-api" || app.Version != "1.2.3" {
		t.Errorf("unexpected identity %s %s", app.Name, app.Version)
	}
	if app.Cfg.Logging.Level != "info" {
		t.Errorf("expected defaults to be applied, got level %q", app.Cfg.Logging.Level)
	}
	if app.gracefulTimeout != time.Second {
		t.Errorf("expected graceful timeout option, got %s", app.gracefulTimeout)
	}
}

func TestNewAppInvalidConfig(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.NewNop()))
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t, &bytes.Buffer{})
	for _, name := range []string{"engine", "http-server", "grpc-health"} {
		app.RegisterComponent(&mockComponent{name: name, rec: rec})
	}
	app.OnStart(func(context.Context) error { rec.add("onStart"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		rec.add("configure:" + a.Cfg.Name)
		return nil
	})
	app.OnReady(func(context.Context) error { rec.add("onReady"); return nil })
	app.OnStop(func(context.Context) error { rec.add("onStop"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "start:engine,start:http-server,start:grpc-health,onStart,configure:whisper-api,onReady," +
		"onStop,stop:grpc-health,stop:http-server,stop:engine"
	if got := rec.String(); got != want {
		t.Errorf("unexpected lifecycle\n got: %s\nwant: %s", got, want)
	}
}

func TestRunStartupFailureStopsStarted(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t, &bytes.Buffer{})
	app.RegisterComponent(&mockComponent{name: "engine", rec: rec})
	app.RegisterComponent(&mockComponent{name: "http-server", rec: rec, startErr: errors.New("address in use")})
	app.RegisterComponent(&mockComponent{name: "grpc-health", rec: rec})

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected start error, got %v", err)
	}
	if got := rec.String(); got != "start:engine,start:http-server,stop:engine" {
		t.Errorf("unexpected lifecycle %s", got)
	}
}

func TestRunConfigureFailure(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t, &bytes.Buffer{})
	app.RegisterComponent(&mockComponent{name: "engine", rec: rec})
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("no routes") })

	if err := app.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "configuration failed") {
		t.Fatalf("expected configure error, got %v", err)
	}
	if !strings.HasSuffix(rec.String(), "stop:engine") {
		t.Errorf("expected engine to be stopped, got %s", rec.String())
	}
}

func TestReadyCheck(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t, &bytes.Buffer{})
	app.RegisterComponent(&mockComponent{name: "http-server", rec: rec})
	app.RegisterComponent(&mockComponent{name: "engine", rec: rec, health: component.Health{
		Name: "engine", Status: component.StatusUnhealthy, Message: "whisper not found",
	}})

	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "engine=unhealthy(whisper not found)") {
		t.Errorf("expected engine in ready check error, got %v", err)
	}
}

func TestSummaryDisplay(t *testing.T) {
	var out bytes.Buffer
	rec := &recorder{}
	app := newTestApp(t, &out)
	app.RegisterComponent(&mockComponent{name: "engine", rec: rec, health: component.Health{
		Name: "engine", Status: component.StatusDegraded, Message: "1/1 slots busy",
	}})
	app.RegisterComponent(&describedComponent{mockComponent{name: "http-server", rec: rec}})

	app.Summary.Display(context.Background(), app.Components)

	got := out.String()
	for _, want := range []string{
		"whisper-api 1.2.3 started",
		"├── engine",
		"└── HTTP Server [server]: 0.0.0.0:8000",
		"Routes (1)",
		"POST    /transcribe/ → Handler.Transcribe",
		"engine: degraded (1/1 slots busy)",
		"http-server: healthy",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSummaryNoComponents(t *testing.T) {
	var out bytes.Buffer
	NewSummary("svc", "", &out).Display(context.Background(), component.NewRegistry())
	if !strings.Contains(out.String(), "svc dev started") || !strings.Contains(out.String(), "No components registered") {
		t.Errorf("unexpected summary %q", out.String())
	}
}
