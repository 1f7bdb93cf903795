// Package stub provides a deterministic provider for development and tests.
// It inspects the audio container header but never decodes audio.
package stub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/whisper-api/transcription"
)

// ProviderName is the registered name for the stub provider.
const ProviderName = transcription.ProviderStub

const headerSize = 12

// Provider implements transcription.Provider without a model.
type Provider struct {
	model string
}

// NewProvider creates a stub provider reporting model in its output.
func NewProvider(model string) *Provider {
	return &Provider{model: model}
}

// Factory returns a transcription.Factory for the stub provider.
func Factory() transcription.Factory {
	return func(opts transcription.Options) (transcription.Provider, error) {
		return NewProvider(opts.Config.Model), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable always reports true.
func (p *Provider) IsAvailable(_ context.Context) bool { return true }

// Transcribe returns "[stub:<model>] <container> audio, <n> bytes" for files
// that start with a known container header and an error otherwise, so
// clients can exercise both outcomes.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read audio header: %w", err)
	}
	container := sniff(header[:n])
	if container == "" {
		return nil, fmt.Errorf("invalid data found when processing input: %s", req.AudioPath)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat audio file: %w", err)
	}

	language := req.Language
	if language == "" {
		language = "en"
	}
	return &transcription.Response{
		Text:     fmt.Sprintf("[stub:%s] %s audio, %d bytes", p.model, container, info.Size()),
		Language: language,
	}, nil
}

// sniff identifies the audio container from its leading bytes.
func sniff(header []byte) string {
	switch {
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return "wav"
	case bytes.HasPrefix(header, []byte("fLaC")):
		return "flac"
	case bytes.HasPrefix(header, []byte("ID3")):
		return "mp3"
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return "mp3"
	case len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp")):
		return "m4a"
	default:
		return ""
	}
}
