// Package runner launches external commands, captures their output, enforces
// timeouts, supports detached fire-and-forget execution, and optionally
// persists a session log of each invocation.
package runner

import (
	"strings"
	"time"

	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/sessionlog"
)

// OutputMode selects what happens to a child's stdout and stderr.
type OutputMode int

const (
	// OutputCaptured pipes output back to the runner.
	OutputCaptured OutputMode = iota
	// OutputIgnored connects output to the null device.
	OutputIgnored
)

// String returns the option-map spelling of the mode.
func (m OutputMode) String() string {
	if m == OutputIgnored {
		return "ignore"
	}
	return "pipe"
}

// ParseOutputMode accepts "pipe"/"captured" and "ignore"/"ignored".
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pipe", "captured":
		return OutputCaptured, nil
	case "ignore", "ignored":
		return OutputIgnored, nil
	default:
		return OutputCaptured, errors.InvalidInput("output mode", s)
	}
}

// Request describes one invocation. It is passed by value and not modified
// once Execute starts.
type Request struct {
	Command string
	Args    []string
	// Dir is the working directory; empty means the caller's.
	Dir string
	// Env is layered over the parent environment.
	Env map[string]string

	Detached   bool
	OutputMode OutputMode
	// Timeout bounds a synchronous invocation; zero means none.
	Timeout time.Duration

	// Logging echoes output to the console when not persisting.
	Logging bool
	// Persist writes a session log.
	Persist      bool
	LogDir       string
	LogLevel     sessionlog.Level
	LogToConsole bool
}

// Validate rejects requests that cannot be executed.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return errors.InvalidInput("command", "command cannot be empty")
	}
	if r.Timeout < 0 {
		return errors.InvalidInput("timeout", "timeout must not be negative").
			WithDetail("timeout", r.Timeout.String())
	}
	if r.LogLevel != "" {
		if _, err := sessionlog.ParseLevel(string(r.LogLevel)); err != nil {
			return errors.InvalidInput("log level", err.Error())
		}
	}
	return nil
}

// echo reports whether child output is echoed to the console.
func (r Request) echo() bool {
	if r.Persist {
		return r.LogToConsole
	}
	return r.Logging
}

func (r Request) outputMode() OutputMode {
	if r.Detached {
		return OutputIgnored
	}
	return r.OutputMode
}
