package runner

import (
	"strings"
	"time"
)

// Result is the outcome of a successful invocation.
type Result struct {
	Succeeded bool `json:"succeeded"`
	// ExitCode is nil for detached invocations.
	ExitCode *int   `json:"exitCode,omitempty"`
	Stdout   []byte `json:"-"`
	Stderr   []byte `json:"-"`
	PID      int    `json:"pid"`
	Detached bool   `json:"detached"`

	SessionID string        `json:"sessionId,omitempty"`
	LogPath   string        `json:"logPath,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Output returns captured stdout with trailing whitespace removed.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return strings.TrimRight(string(r.Stdout), " \t\r\n")
}
