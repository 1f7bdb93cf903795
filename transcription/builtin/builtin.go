// Package builtin registers every bundled transcription provider.
package builtin

import (
	"github.com/kbukum/whisper-api/transcription"
	"github.com/kbukum/whisper-api/transcription/local"
	"github.com/kbukum/whisper-api/transcription/openai"
	"github.com/kbukum/whisper-api/transcription/stub"
	"github.com/kbukum/whisper-api/transcription/whisper"
)

// Registry returns a registry with the local, whisper, openai and stub factories.
func Registry() *transcription.Registry {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(local.ProviderName, local.Factory())
	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
	reg.RegisterFactory(openai.ProviderName, openai.Factory())
	reg.RegisterFactory(stub.ProviderName, stub.Factory())
	return reg
}
