package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. This abstraction allows for dependency
// injection, enabling test-specific command creation logic (e.g., setting up
// a PATH with mock binaries or recording the argv) without modifying the runner.
type Executor interface {
	// Command creates a new exec.Cmd instance for the given command and arguments.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates a new context-aware exec.Cmd instance.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production implementation of the Executor interface,
// which uses the standard os/exec package to create commands.
type RealExecutor struct{}

// Command creates a standard exec.Cmd.
func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// RecordingExecutor wraps another Executor and remembers every argv it built.
type RecordingExecutor struct {
	Next  Executor
	Calls [][]string
}

// Command records the invocation and delegates to Next.
func (e *RecordingExecutor) Command(name string, args ...string) *exec.Cmd {
	e.Calls = append(e.Calls, append([]string{name}, args...))
	return e.next().Command(name, args...)
}

// CommandContext records the invocation and delegates to Next.
func (e *RecordingExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	e.Calls = append(e.Calls, append([]string{name}, args...))
	return e.next().CommandContext(ctx, name, args...)
}

func (e *RecordingExecutor) next() Executor {
	if e.Next == nil {
		return &RealExecutor{}
	}
	return e.Next
}
