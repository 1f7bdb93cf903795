package transcription

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/whisper-api/component"
	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/provider"
)

// Component adapts an Engine to the component lifecycle.
type Component struct {
	engine  *Engine
	log     *logger.Logger
	started atomic.Bool
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a lifecycle component for engine.
func NewComponent(engine *Engine, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{engine: engine, log: log.WithComponent("transcription")}
}

// Engine returns the wrapped engine.
func (c *Component) Engine() *Engine { return c.engine }

// Name implements component.Component.
func (c *Component) Name() string { return "transcription" }

// Start fails when the provider cannot serve requests, so the process never
// accepts uploads it cannot transcribe.
func (c *Component) Start(ctx context.Context) error {
	p := c.engine.Provider()
	if initer, ok := p.(provider.Initializable); ok {
		if err := initer.Init(ctx); err != nil {
			return fmt.Errorf("init transcription provider %s: %w", p.Name(), err)
		}
	}
	if !p.IsAvailable(ctx) {
		return fmt.Errorf("transcription provider %s is not available", p.Name())
	}
	c.started.Store(true)

	capacity, _ := c.engine.Slots()
	c.log.Info("Transcription engine ready", logger.Fields(
		logger.FieldProvider, p.Name(),
		"model", c.engine.Model(),
		"device", c.engine.Device(),
		"language", languageLabel(c.engine.Language()),
		"slots", capacity,
	))
	return nil
}

// Stop implements component.Component. In-flight invocations finish on their
// own request contexts.
func (c *Component) Stop(ctx context.Context) error {
	c.started.Store(false)
	if closer, ok := c.engine.Provider().(provider.Closeable); ok {
		return closer.Close(ctx)
	}
	return nil
}

// Health reports whether the engine is started and its provider is reachable.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.started.Load():
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !c.engine.Provider().IsAvailable(ctx):
		h.Status = component.StatusUnhealthy
		h.Message = fmt.Sprintf("provider %s unavailable", c.engine.Provider().Name())
	default:
		capacity, inUse := c.engine.Slots()
		if inUse >= capacity {
			h.Status = component.StatusDegraded
			h.Message = fmt.Sprintf("all %d engine slots busy", capacity)
		}
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	capacity, _ := c.engine.Slots()
	return component.Description{
		Name: "Transcription Engine",
		Type: "engine",
		Details: fmt.Sprintf("%s model=%s device=%s language=%s slots=%d",
			c.engine.Provider().Name(), c.engine.Model(), c.engine.Device(),
			languageLabel(c.engine.Language()), capacity),
	}
}

func languageLabel(hint string) string {
	if hint == "" {
		return LanguageAuto
	}
	return hint
}
