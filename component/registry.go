package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/whisper-api/logger"
)

const stopTimeout = 10 * time.Second

// Registry starts components in registration order and stops the started
// ones in reverse, so the engine is up before the listener accepts uploads
// and the listener drains before the engine goes away.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	started    map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{started: make(map[string]bool)}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.started[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.components = append(r.components, c)
	r.started[name] = false

	logger.Debug("Component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts components in order and stops at the first failure.
// Components started before the failure remain marked for StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.components {
		name := c.Name()
		begin := time.Now()
		if err := c.Start(ctx); err != nil {
			logger.Error("Component start failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		r.started[name] = true
		logger.Info("Component started", logger.MergeWithDuration(logger.Fields(logger.FieldComponent, name), time.Since(begin)))
	}
	return nil
}

// StopAll stops started components in reverse order, each bounded by its
// own timeout, and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.components) - 1; i >= 0; i-- {
		c := r.components[i]
		name := c.Name()
		if !r.started[name] {
			continue
		}

		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		r.started[name] = false

		if err != nil {
			logger.Error("Component stop failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			continue
		}
		logger.Info("Component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll probes every component concurrently and returns the results in
// registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, len(r.components))
	var g errgroup.Group
	for i, c := range r.components {
		g.Go(func() error {
			results[i] = c.Health(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}
