package transcription

import (
	"context"

	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe runs the engine on req.AudioPath and returns the result.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Options are passed to provider factories. They are built once at startup.
type Options struct {
	Config Config
	// Device is the resolved compute device ("cpu", "cuda", "mps").
	Device string
	Logger *logger.Logger
}

// Registry maps provider names to factories.
type Registry = provider.Registry[Provider, Options]

// Factory creates a Provider from startup options.
type Factory = provider.Factory[Provider, Options]

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return provider.NewRegistry[Provider, Options]()
}
