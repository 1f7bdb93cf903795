package process

import (
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// StderrTail returns the last n non-empty lines of stderr joined by "; ".
// Tools like whisper print progress first and the actual failure last.
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	return tail(r.Stderr, n)
}

// StdoutTail is StderrTail for stdout.
func (r *Result) StdoutTail(n int) string {
	if r == nil {
		return ""
	}
	return tail(r.Stdout, n)
}

// Lines returns the non-empty, trimmed lines of stdout followed by stderr.
func (r *Result) Lines() []string {
	if r == nil {
		return nil
	}
	return append(lines(r.Stdout), lines(r.Stderr)...)
}

func lines(data []byte) []string {
	var out []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func tail(data []byte, n int) string {
	if n <= 0 {
		return ""
	}
	ls := lines(data)
	if len(ls) > n {
		ls = ls[len(ls)-n:]
	}
	return strings.Join(ls, "; ")
}
