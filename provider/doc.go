// Package provider defines the minimal contract shared by swappable backends
// and a generic, concurrency-safe registry of named factories.
//
//	reg := provider.NewRegistry[transcription.Provider, transcription.Options]()
//	reg.RegisterFactory("local", local.Factory())
//	p, err := reg.Create("local", opts)
package provider
