package provider

import "context"

// Provider is the base interface all swappable backends implement.
type Provider interface {
	// Name returns the provider's registered name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from typed options.
type Factory[T Provider, O any] func(opts O) (T, error)
