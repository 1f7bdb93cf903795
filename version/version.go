package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
}

var (
	vcsOnce sync.Once
	vcs     Info
)

// readVCS reads the module build info stamped by the go command.
func readVCS() Info {
	vcsOnce.Do(func() {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		vcs.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				vcs.GitCommit = s.Value
			case "vcs.time":
				vcs.BuildTime = s.Value
			case "vcs.modified":
				vcs.Dirty = s.Value == "true"
			}
		}
	})
	return vcs
}

// Get returns version information. Values set with -ldflags win over the
// VCS stamp embedded by the go command.
func Get() Info {
	info := readVCS()
	info.Version = Version
	if GitCommit != "" {
		info.GitCommit = GitCommit
	}
	if BuildTime != "" {
		info.BuildTime = BuildTime
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// Short returns "<version>[-<commit>][-dirty]".
func Short() string {
	info := Get()
	s := info.Version
	if info.GitCommit != "" {
		s += "-" + info.GitCommit
	}
	if info.Dirty {
		s += "-dirty"
	}
	return s
}

// String returns Short plus the build time when known.
func String() string {
	info := Get()
	if info.BuildTime == "" {
		return Short()
	}
	return fmt.Sprintf("%s (built %s)", Short(), info.BuildTime)
}
