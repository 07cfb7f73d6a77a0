package command

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// DefaultNestedMarker is the environment variable set by the managed CLI tool
// in the processes it spawns. Its presence means we are running inside a
// prior invocation of that tool.
const DefaultNestedMarker = "CLAUDECODE"

// Spec describes a process to build.
type Spec struct {
	Name string
	Args []string
	Dir  string
	// Env is layered over the parent environment.
	Env map[string]string
}

// Builder turns a Spec into an exec.Cmd with a sanitized environment.
type Builder struct {
	executor     Executor
	nestedMarker string
	baseEnv      func() []string
}

// NewBuilder creates a Builder backed by a RealExecutor.
func NewBuilder() *Builder {
	return NewBuilderWithExecutor(&RealExecutor{})
}

// NewBuilderWithExecutor creates a Builder with a custom Executor.
func NewBuilderWithExecutor(exec Executor) *Builder {
	if exec == nil {
		exec = &RealExecutor{}
	}
	return &Builder{
		executor:     exec,
		nestedMarker: DefaultNestedMarker,
		baseEnv:      os.Environ,
	}
}

// WithNestedMarker overrides the variable stripped from every child environment.
func (b *Builder) WithNestedMarker(name string) *Builder {
	if name != "" {
		b.nestedMarker = name
	}
	return b
}

// NestedMarker returns the variable stripped from every child environment.
func (b *Builder) NestedMarker() string {
	return b.nestedMarker
}

// Build validates spec and returns an unstarted command.
func (b *Builder) Build(spec Spec) (*exec.Cmd, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	cmd := b.executor.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = BuildEnv(b.baseEnv(), spec.Env, b.nestedMarker)
	return cmd, nil
}

// BuildEnv overlays overrides on base and removes marker. The marker is
// removed even when overrides set it explicitly. The result is sorted by key
// so it is stable across calls.
func BuildEnv(base []string, overrides map[string]string, marker string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	if marker != "" {
		delete(merged, marker)
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+merged[key])
	}
	return env
}

// IsNested reports whether marker is set in the current process environment.
func IsNested(marker string) bool {
	if marker == "" {
		marker = DefaultNestedMarker
	}
	_, ok := os.LookupEnv(marker)
	return ok
}
