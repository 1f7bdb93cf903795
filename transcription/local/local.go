// Package local runs the openai-whisper command-line tool as a subprocess.
// The model and device are fixed when the provider is created.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/process"
	"github.com/kbukum/whisper-api/transcription"
)

// ProviderName is the registered name for the local provider.
const ProviderName = transcription.ProviderLocal

const stderrTailLines = 3

// Provider implements transcription.Provider on top of the whisper CLI.
type Provider struct {
	binary  string
	model   string
	device  string
	workDir string
	log     *logger.Logger
}

// NewProvider creates a local provider. device is the resolved compute device.
func NewProvider(cfg transcription.Config, device string, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.NewNop()
	}
	return &Provider{
		binary:  cfg.Binary,
		model:   cfg.Model,
		device:  device,
		workDir: cfg.ScratchDir,
		log:     log.WithComponent("whisper-cli"),
	}
}

// Factory returns a transcription.Factory for the local provider.
func Factory() transcription.Factory {
	return func(opts transcription.Options) (transcription.Provider, error) {
		if opts.Config.Binary == "" {
			return nil, fmt.Errorf("local: binary is required")
		}
		return NewProvider(opts.Config, opts.Device, opts.Logger), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the whisper binary resolves on PATH.
func (p *Provider) IsAvailable(_ context.Context) bool {
	return process.Available(p.binary)
}

// Transcribe runs whisper on req.AudioPath and reads the JSON it writes.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	outDir, err := os.MkdirTemp(p.workDir, "whisper-out-")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	result, err := process.Run(ctx, process.Command{
		Binary: p.binary,
		Args:   p.args(req.AudioPath, model, req.Language, outDir),
	})
	if err != nil {
		if tail := result.StderrTail(stderrTailLines); tail != "" && ctx.Err() == nil {
			return nil, fmt.Errorf("whisper: %s", tail)
		}
		return nil, fmt.Errorf("whisper: %w", err)
	}
	p.log.Debug("whisper finished", logger.MergeWithDuration(logger.Fields("model", model), result.Duration))

	resp, err := readOutput(outputPath(outDir, req.AudioPath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, noOutputError(result)
	}
	return resp, err
}

// noOutputError explains a run that exited 0 without writing JSON. The CLI
// catches per-file failures, prints "Skipping <path> due to <Err>: <msg>"
// and moves on, so that line carries the real cause.
func noOutputError(result *process.Result) error {
	for _, l := range result.Lines() {
		if strings.HasPrefix(l, "Skipping ") {
			return fmt.Errorf("whisper: %s", l)
		}
	}
	if t := result.StderrTail(stderrTailLines); t != "" {
		return fmt.Errorf("whisper produced no output: %s", t)
	}
	if t := result.StdoutTail(stderrTailLines); t != "" {
		return fmt.Errorf("whisper produced no output: %s", t)
	}
	return fmt.Errorf("whisper produced no output")
}

func (p *Provider) args(audioPath, model, language, outDir string) []string {
	args := []string{
		audioPath,
		"--model", model,
		"--device", p.device,
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	// Half precision is unsupported on CPU and only produces a warning.
	if p.device == "cpu" {
		args = append(args, "--fp16", "False")
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	return args
}

// outputPath mirrors the CLI's naming: <outdir>/<audio basename without ext>.json.
func outputPath(outDir, audioPath string) string {
	base := filepath.Base(audioPath)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

type cliOutput struct {
	Text     string       `json:"text"`
	Segments []cliSegment `json:"segments"`
	Language string       `json:"language"`
}

type cliSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func readOutput(path string) (*transcription.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	var out cliOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode whisper output: %w", err)
	}

	segments := make([]transcription.Segment, len(out.Segments))
	for i, s := range out.Segments {
		segments[i] = transcription.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
	}
	return &transcription.Response{
		Text:     strings.TrimSpace(out.Text),
		Segments: segments,
		Duration: transcription.DurationFromSegments(segments),
		Language: out.Language,
	}, nil
}
