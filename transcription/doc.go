// Package transcription defines the speech-to-text provider contract and the
// process-wide Engine that the HTTP handler calls.
//
// Backends live in subpackages and register factories by name:
//
//   - transcription/local: openai-whisper CLI run as a subprocess
//   - transcription/whisper: faster-whisper HTTP sidecar
//   - transcription/openai: OpenAI audio transcription API
//   - transcription/stub: deterministic output for development
//
// transcription/builtin returns a Registry with all of them.
//
// # Usage
//
//	reg := builtin.Registry()
//	p, err := reg.Create(cfg.Provider, transcription.Options{Config: cfg, Device: dev, Logger: log})
//	engine := transcription.NewEngine(p, cfg, dev, log)
//	resp, err := engine.Transcribe(ctx, "/tmp/upload-1234.wav")
package transcription
