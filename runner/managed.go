package runner

import (
	"context"

	"github.com/grovetools/spawn/errors"
)

// request resolves opts against the Runner's configuration.
func (r *Runner) request(name string, args []string, opts Options) Request {
	req := Request{
		Command:      name,
		Args:         args,
		Dir:          opts.Cwd,
		Env:          opts.Env,
		Detached:     opts.Detached,
		OutputMode:   opts.OutputMode,
		Timeout:      opts.Timeout,
		Logging:      r.cfg.EchoEnabled(),
		Persist:      r.cfg.SaveLog,
		LogDir:       opts.LogDir,
		LogLevel:     opts.LogLevel,
		LogToConsole: r.cfg.LogToConsole,
	}
	if req.Timeout == 0 {
		req.Timeout = r.cfg.TimeoutDuration()
	}
	if opts.Logging != nil {
		req.Logging = *opts.Logging
	}
	if opts.SaveLog != nil {
		req.Persist = *opts.SaveLog
	}
	if opts.LogToConsole != nil {
		req.LogToConsole = *opts.LogToConsole
	}
	return req
}

// RunCommand executes name with args.
func (r *Runner) RunCommand(ctx context.Context, name string, args []string, opts Options) (*Result, error) {
	return r.Execute(ctx, r.request(name, args, opts))
}

// RunManagedTool runs the managed CLI tool non-interactively with prompt as
// its final argument. The permission-bypass flag is passed unless
// SkipPermissions is explicitly false.
func (r *Runner) RunManagedTool(ctx context.Context, prompt string, opts ToolOptions) (*Result, error) {
	if prompt == "" {
		return nil, errors.InvalidInput("prompt", "prompt cannot be empty")
	}

	tool := r.cfg.ManagedTool
	args := []string{tool.NonInteractiveFlag}
	if opts.SkipPermissions == nil || *opts.SkipPermissions {
		args = append(args, tool.SkipPermissionsFlag)
	}
	args = append(args, prompt)

	req := r.request(tool.Binary, args, opts.Options)
	if opts.FireAndForget {
		req.Detached = true
		req.OutputMode = OutputIgnored
	}
	return r.Execute(ctx, req)
}

// RunManagedTask runs the managed tool fire-and-forget in dir.
func (r *Runner) RunManagedTask(ctx context.Context, prompt, dir string, opts ToolOptions) (*Result, error) {
	opts.FireAndForget = true
	opts.Cwd = dir
	return r.RunManagedTool(ctx, prompt, opts)
}

// RunCommand executes name with args on the Default runner.
func RunCommand(ctx context.Context, name string, args []string, opts Options) (*Result, error) {
	return Default().RunCommand(ctx, name, args, opts)
}

// RunManagedTool runs the managed tool on the Default runner.
func RunManagedTool(ctx context.Context, prompt string, opts ToolOptions) (*Result, error) {
	return Default().RunManagedTool(ctx, prompt, opts)
}

// RunManagedTask runs the managed tool fire-and-forget in dir on the Default runner.
func RunManagedTask(ctx context.Context, prompt, dir string, opts ToolOptions) (*Result, error) {
	return Default().RunManagedTask(ctx, prompt, dir, opts)
}
