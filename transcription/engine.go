package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/resilience"
)

// ErrEngineBusy is returned when no engine slot became free in time.
var ErrEngineBusy = errors.New("engine busy")

// Engine is the process-wide transcription engine: one provider, one device,
// one model and the gate that bounds concurrent invocations. It is built once
// before the server starts and never mutated afterwards.
type Engine struct {
	provider Provider
	device   string
	model    string
	language string
	timeout  time.Duration
	gate     *resilience.Bulkhead
	log      *logger.Logger
}

// NewEngine wraps p with an invocation gate of cfg.MaxConcurrent slots.
func NewEngine(p Provider, cfg Config, device string, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("engine")

	gate := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "transcription",
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.MaxWait,
		FailFast:      cfg.RejectWhenBusy,
		OnAcquire: func(_ string, waited time.Duration) {
			if waited > time.Second {
				log.Debug("Engine slot acquired after queueing", logger.MergeWithDuration(nil, waited))
			}
		},
		OnReject: func(_ string, err error) {
			log.Warn("Engine slot not acquired", logger.Fields(logger.FieldError, err.Error()))
		},
	})

	return &Engine{
		provider: p,
		device:   device,
		model:    cfg.Model,
		language: cfg.LanguageHint(),
		timeout:  cfg.Timeout,
		gate:     gate,
		log:      log,
	}
}

// Transcribe runs the engine on a fully written audio file. Calls beyond the
// gate's capacity queue until a slot frees or ctx ends.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	req := Request{
		AudioPath: audioPath,
		Language:  e.language,
		Model:     e.model,
	}

	resp, err := resilience.ExecuteWithResult(e.gate, ctx, func() (*Response, error) {
		callCtx := ctx
		if e.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		return e.provider.Transcribe(callCtx, req)
	})
	if err != nil {
		if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrEngineBusy, err)
		}
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%s returned no result", e.provider.Name())
	}
	if resp.Language == "" {
		resp.Language = e.language
	}
	return resp, nil
}

// Provider returns the wrapped provider.
func (e *Engine) Provider() Provider { return e.provider }

// Device returns the compute device chosen at startup.
func (e *Engine) Device() string { return e.device }

// Model returns the configured model name.
func (e *Engine) Model() string { return e.model }

// Language returns the language hint; empty means detection.
func (e *Engine) Language() string { return e.language }

// Slots returns the gate capacity and the number of slots in use.
func (e *Engine) Slots() (capacity, inUse int) {
	return e.gate.MaxConcurrent(), e.gate.InUse()
}
