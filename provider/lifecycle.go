package provider

import "context"

// Initializable is optionally implemented by providers that need setup
// before handling requests, e.g. checking a binary or warming a model.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is optionally implemented by providers that hold resources
// needing explicit cleanup, e.g. pooled HTTP connections.
type Closeable interface {
	Close(ctx context.Context) error
}
