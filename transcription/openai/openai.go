// Package openai transcribes audio with the hosted OpenAI Whisper API.
package openai

import (
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/transcription"
	"github.com/kbukum/whisper-api/util"
)

// ProviderName is the registered name for the OpenAI provider.
const ProviderName = transcription.ProviderOpenAI

// Provider implements transcription.Provider with go-openai.
type Provider struct {
	client *goopenai.Client
	model  string
	apiKey string
}

// NewProvider creates an OpenAI provider. cfg.URL overrides the API base URL.
func NewProvider(cfg transcription.Config) *Provider {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.URL, "/")
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  apiModel(cfg.Model),
		apiKey: cfg.APIKey,
	}
}

// Factory returns a transcription.Factory for the OpenAI provider.
func Factory() transcription.Factory {
	return func(opts transcription.Options) (transcription.Provider, error) {
		if opts.Config.APIKey == "" {
			return nil, fmt.Errorf("openai: api_key is required")
		}
		p := NewProvider(opts.Config)
		if opts.Logger != nil {
			opts.Logger.Debug("OpenAI provider configured", logger.Fields(
				"model", p.model,
				"api_key", util.MaskSecret(opts.Config.APIKey, 6),
			))
		}
		return p, nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key is configured. It does not call the API.
func (p *Provider) IsAvailable(_ context.Context) bool { return p.apiKey != "" }

// Transcribe uploads the file at req.AudioPath and requests verbose JSON so the
// detected language and segments come back.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    p.model,
		FilePath: req.AudioPath,
		Language: req.Language,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	segments := make([]transcription.Segment, len(resp.Segments))
	for i, s := range resp.Segments {
		segments[i] = transcription.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
	}
	duration := resp.Duration
	if duration == 0 {
		duration = transcription.DurationFromSegments(segments)
	}
	return &transcription.Response{
		Text:     strings.TrimSpace(resp.Text),
		Segments: segments,
		Duration: duration,
		Language: isoLanguage(resp.Language),
	}, nil
}

// apiModel maps local checkpoint names (tiny, medium, large-v3) to the API model.
func apiModel(model string) string {
	if strings.HasPrefix(model, "whisper-") || strings.HasPrefix(model, "gpt-") {
		return model
	}
	return goopenai.Whisper1
}

// The verbose JSON response names the language ("english"); clients of this
// service expect the ISO code the local engines return.
var languageCodes = map[string]string{
	"english":    "en",
	"german":     "de",
	"french":     "fr",
	"spanish":    "es",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"russian":    "ru",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
	"turkish":    "tr",
	"arabic":     "ar",
	"hindi":      "hi",
	"polish":     "pl",
	"ukrainian":  "uk",
	"indonesian": "id",
}

func isoLanguage(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if code, ok := languageCodes[lower]; ok {
		return code
	}
	return lower
}
