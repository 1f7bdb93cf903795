// Package device chooses the compute device for the transcription engine.
// Selection runs once at startup; the result is stored in the engine.
package device

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/whisper-api/process"
)

// Devices.
const (
	Auto = "auto"
	CPU  = "cpu"
	CUDA = "cuda"
	MPS  = "mps"
)

const probeTimeout = 5 * time.Second

// Probe reports whether a GPU accelerator is usable.
type Probe func(ctx context.Context) bool

// Select resolves preference to a concrete device. Explicit devices are
// returned unchanged; Auto picks CUDA when probe succeeds, otherwise CPU.
func Select(ctx context.Context, preference string, probe Probe) string {
	switch p := strings.ToLower(strings.TrimSpace(preference)); p {
	case CPU, CUDA, MPS:
		return p
	}
	if probe != nil && probe(ctx) {
		return CUDA
	}
	return CPU
}

// NvidiaSMI returns a Probe that runs `nvidia-smi -L` and succeeds when it
// exits cleanly and lists at least one GPU.
func NvidiaSMI(binary string) Probe {
	if binary == "" {
		binary = "nvidia-smi"
	}
	return func(ctx context.Context) bool {
		if !process.Available(binary) {
			return false
		}
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		result, err := process.Run(ctx, process.Command{Binary: binary, Args: []string{"-L"}})
		if err != nil {
			return false
		}
		return strings.Contains(string(result.Stdout), "GPU ")
	}
}
