// Package whisper talks to a faster-whisper HTTP sidecar that exposes
// POST /transcribe and GET /health.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/resilience"
	"github.com/kbukum/whisper-api/transcription"
)

// ProviderName is the registered name for the sidecar provider.
const ProviderName = transcription.ProviderWhisper

const (
	defaultTimeout   = 120 * time.Second
	maxErrorBodySize = 4 << 10
	maxAttempts      = 3
)

// Provider implements transcription.Provider using a faster-whisper HTTP sidecar.
type Provider struct {
	url    string
	model  string
	client *http.Client
	retry  resilience.RetryConfig
}

// NewProvider creates a sidecar provider for cfg.URL. Requests that fail
// before reaching the sidecar, or that it answers with 502/503/504, are
// retried with backoff.
func NewProvider(cfg transcription.Config, log *logger.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("whisper")
	return &Provider{
		url:    strings.TrimRight(cfg.URL, "/"),
		model:  cfg.Model,
		client: &http.Client{Timeout: timeout},
		retry: resilience.RetryConfig{
			MaxAttempts:    maxAttempts,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Jitter:         0.1,
			RetryIf:        transient,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				log.Warn("Sidecar request failed, retrying", logger.MergeWithDuration(
					logger.Fields("attempt", attempt, logger.FieldError, err.Error()), backoff))
			},
		},
	}
}

// Factory returns a transcription.Factory for the sidecar provider.
func Factory() transcription.Factory {
	return func(opts transcription.Options) (transcription.Provider, error) {
		if opts.Config.URL == "" {
			return nil, fmt.Errorf("whisper: url is required")
		}
		return NewProvider(opts.Config, opts.Logger), nil
	}
}

// statusError is a non-200 answer from the sidecar.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("whisper error (status %d): %s", e.code, e.body)
}

// transient reports whether a failed request is worth repeating: transport
// errors and gateway/unavailable statuses, never context expiry or a
// response the sidecar actually produced.
func transient(err error) bool {
	if !resilience.DefaultRetryIf(err) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the sidecar health endpoint answers 200.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close drops pooled connections to the sidecar.
func (p *Provider) Close(_ context.Context) error {
	p.client.CloseIdleConnections()
	return nil
}

// Transcribe uploads the audio file to the sidecar and returns its transcription.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	audio, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer audio.Close()

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	_ = writer.WriteField("model", model)
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	body, contentType := buf.Bytes(), writer.FormDataContentType()

	result, err := resilience.Retry(ctx, p.retry, func() (*whisperResponse, error) {
		return p.send(ctx, body, contentType)
	})
	if err != nil {
		return nil, err
	}
	return toResponse(result), nil
}

func (p *Provider) send(ctx context.Context, body []byte, contentType string) (*whisperResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}

	var result whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}
	return &result, nil
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toResponse(resp *whisperResponse) *transcription.Response {
	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)}
	}
	return &transcription.Response{
		Text:     strings.TrimSpace(resp.Text),
		Segments: segments,
		Duration: transcription.DurationFromSegments(segments),
		Language: resp.Language,
	}
}
