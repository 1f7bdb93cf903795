package device

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Host describes the CPU the engine runs on when no accelerator is used.
type Host struct {
	Model string
	Cores int
}

// DescribeHost reads the CPU model and logical core count. Fields the
// platform does not report fall back to "unknown" and runtime.NumCPU.
func DescribeHost(ctx context.Context) Host {
	h := Host{Model: "unknown", Cores: runtime.NumCPU()}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		h.Cores = n
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		if name := strings.TrimSpace(infos[0].ModelName); name != "" {
			h.Model = name
		}
	}
	return h
}
