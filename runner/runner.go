package runner

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/spawn/command"
	"github.com/grovetools/spawn/config"
	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/logging"
	"github.com/grovetools/spawn/sessionlog"
	"github.com/grovetools/spawn/util/pathutil"
)

// Runner executes requests. A Runner holds no per-invocation state and is
// safe for concurrent use.
type Runner struct {
	executor    command.Executor
	builder     *command.Builder
	cfg         *config.Config
	reporter    sessionlog.ErrorReporter
	gracePeriod time.Duration
	log         *logrus.Entry
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor sets the Executor used to create commands.
func WithExecutor(executor command.Executor) Option {
	return func(r *Runner) {
		r.executor = executor
	}
}

// WithConfig sets the configuration supplying defaults.
func WithConfig(cfg *config.Config) Option {
	return func(r *Runner) {
		r.cfg = cfg
	}
}

// WithReporter sets where session log write failures go.
func WithReporter(reporter sessionlog.ErrorReporter) Option {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// WithGracePeriod sets the delay between SIGTERM and SIGKILL after a timeout.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.gracePeriod = d
		}
	}
}

// New creates a Runner. Without WithConfig it uses config.Default().
func New(opts ...Option) *Runner {
	r := &Runner{log: logging.NewLogger("spawn.runner")}
	for _, opt := range opts {
		opt(r)
	}

	if r.cfg == nil {
		r.cfg = config.Default()
	}
	if r.executor == nil {
		r.executor = &command.RealExecutor{}
	}
	if r.reporter == nil {
		r.reporter = sessionlog.LogReporter(logging.NewLogger("spawn.sessionlog"))
	}
	if r.gracePeriod == 0 {
		r.gracePeriod = r.cfg.GracePeriodDuration()
	}
	r.builder = command.NewBuilderWithExecutor(r.executor).
		WithNestedMarker(r.cfg.ManagedTool.NestedMarker)
	return r
}

var (
	defaultOnce   sync.Once
	defaultRunner *Runner
)

// Default returns a process-wide Runner configured from spawn.yml.
func Default() *Runner {
	defaultOnce.Do(func() {
		cfg, err := config.LoadDefault()
		if err != nil {
			logging.NewLogger("spawn.runner").WithError(err).Warn("Failed to load spawn config, using defaults")
			cfg = config.Default()
		}
		defaultRunner = New(WithConfig(cfg))
	})
	return defaultRunner
}

// Config returns the configuration the Runner was built with.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Execute runs req. A synchronous invocation returns once the child has
// exited and been reaped; a detached one returns as soon as it has started.
func (r *Runner) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.CommandCanceled(req.Command, err)
	}

	log := r.log.WithFields(logrus.Fields{
		"command":  req.Command,
		"detached": req.Detached,
	})

	session := r.openSession(req)

	cmd, err := r.builder.Build(command.Spec{
		Name: req.Command,
		Args: req.Args,
		Dir:  req.Dir,
		Env:  req.Env,
	})
	if err != nil {
		return r.spawnFailed(req, session, err)
	}
	if err := checkDir(cmd.Dir); err != nil {
		return r.spawnFailed(req, session, err)
	}

	if req.Detached {
		return r.executeDetached(req, cmd, session, log)
	}
	return r.executeSync(ctx, req, cmd, session, log)
}

// openSession starts a session log, or returns nil when not persisting.
// A log that cannot be created is reported and the invocation continues.
func (r *Runner) openSession(req Request) *sessionlog.Logger {
	if !req.Persist {
		return nil
	}

	level := req.LogLevel
	if level == "" {
		level, _ = sessionlog.ParseLevel(r.cfg.LogLevel)
	}
	root := req.LogDir
	if root == "" {
		root = r.cfg.LogDir
	}
	if root != "" {
		if expanded, err := pathutil.Expand(root); err == nil {
			root = expanded
		}
	}

	dir := req.Dir
	if dir == "" {
		dir, _ = os.Getwd()
	}

	session := sessionlog.New(sessionlog.Options{
		Root:     root,
		Level:    level,
		Reporter: r.reporter,
	})
	if err := session.Initialize(req.Command, req.Args, dir); err != nil {
		r.reporter.Report(err)
		return nil
	}
	return session
}

func (r *Runner) executeSync(ctx context.Context, req Request, cmd *exec.Cmd, session *sessionlog.Logger, log *logrus.Entry) (*Result, error) {
	inv := newInvocation(req, session, log, logging.StdoutWriter(ctx), logging.StderrWriter(ctx))
	inv.cmd = cmd

	events := make(chan event, 64)
	if req.outputMode() == OutputCaptured {
		cmd.Stdout = &streamWriter{stream: streamStdout, events: events}
		cmd.Stderr = &streamWriter{stream: streamStderr, events: events}
	}
	setProcessGroup(cmd)
	// Bounds the wait for pipes held open by grandchildren after exit.
	cmd.WaitDelay = r.gracePeriod

	var stdin io.WriteCloser
	if r.isManagedTool(req.Command) {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return r.spawnFailed(req, session, err)
		}
		stdin = pipe
	}

	if err := cmd.Start(); err != nil {
		return r.spawnFailed(req, session, err)
	}
	if stdin != nil {
		// The managed tool waits for stdin EOF before acting on its prompt.
		_ = stdin.Close()
	}

	session.RecordSpawn(cmd.Process.Pid)
	log.WithField("pid", cmd.Process.Pid).Debug("Command started")

	go func() {
		err := cmd.Wait()
		events <- event{kind: eventExit, waitErr: err}
	}()

	return r.loop(ctx, inv, events)
}

// loop is the single owner of the invocation state. It returns only after
// the exit event, so the child has been reaped on every path.
func (r *Runner) loop(ctx context.Context, inv *invocation, events <-chan event) (*Result, error) {
	var timeoutC <-chan time.Time
	if inv.req.Timeout > 0 {
		timer := time.NewTimer(inv.req.Timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	var killC <-chan time.Time
	done := ctx.Done()

	for {
		select {
		case ev := <-events:
			inv.transition(ev)
			if ev.kind == eventExit {
				if inv.terminated {
					// Reap stragglers left in the group by the leader.
					_ = killGroup(inv.cmd.Process)
				}
				inv.log.WithFields(logrus.Fields{
					"state":    inv.state.String(),
					"duration": time.Since(inv.started).Round(time.Millisecond),
				}).Debug("Command finished")
				return inv.finish()
			}

		case <-timeoutC:
			timeoutC = nil
			if inv.transition(event{kind: eventTimeout}) {
				killC = r.terminate(inv)
			}

		case <-done:
			done = nil
			if inv.transition(event{kind: eventCancel, cause: ctx.Err()}) {
				killC = r.terminate(inv)
			}

		case <-killC:
			killC = nil
			inv.log.WithField("grace_period", r.gracePeriod).Warn("Command ignored termination, killing")
			if err := killGroup(inv.cmd.Process); err != nil {
				inv.log.WithError(err).Debug("Kill failed")
			}
		}
	}
}

// terminate signals the child's process group and arms the kill escalation.
func (r *Runner) terminate(inv *invocation) <-chan time.Time {
	inv.terminated = true
	if err := signalTerminate(inv.cmd.Process); err != nil {
		inv.log.WithError(err).Debug("Terminate signal failed")
	}
	return time.After(r.gracePeriod)
}

func (r *Runner) executeDetached(req Request, cmd *exec.Cmd, session *sessionlog.Logger, log *logrus.Entry) (*Result, error) {
	started := time.Now()

	setDetached(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if req.Timeout > 0 {
		log.WithField("timeout", req.Timeout).Debug("Timeout does not apply to detached commands")
	}

	if err := cmd.Start(); err != nil {
		return r.spawnFailed(req, session, err)
	}

	pid := cmd.Process.Pid
	session.RecordSpawn(pid)
	log.WithField("pid", pid).Debug("Detached command started")

	result := &Result{
		Succeeded: true,
		PID:       pid,
		Detached:  true,
		SessionID: session.SessionID(),
		LogPath:   session.Path(),
		Duration:  time.Since(started),
	}

	go r.reap(req, cmd, session, log)

	return result, nil
}

// reap waits for a detached child so it does not linger as a zombie, and
// closes its session log.
func (r *Runner) reap(req Request, cmd *exec.Cmd, session *sessionlog.Logger, log *logrus.Entry) {
	waitErr := cmd.Wait()

	signal := ""
	var exitCode *int
	if cmd.ProcessState != nil {
		signal = exitSignal(cmd.ProcessState)
		if signal == "" {
			code := cmd.ProcessState.ExitCode()
			exitCode = &code
		}
	}

	if exitCode == nil || *exitCode != 0 {
		code := -1
		if exitCode != nil {
			code = *exitCode
		}
		session.RecordError(errors.CommandFailed(req.Command, code, signal, "", waitErr))
	}
	session.RecordExit(exitCode, signal)
	if err := session.Close(); err != nil {
		log.WithError(err).Debug("Failed to close session log")
	}
	log.WithField("pid", cmd.Process.Pid).Debug("Detached command exited")
}

func (r *Runner) spawnFailed(req Request, session *sessionlog.Logger, err error) (*Result, error) {
	spawnErr := errors.SpawnFailed(req.Command, err)
	session.RecordError(spawnErr)
	session.RecordExit(nil, "")
	_ = session.Close()
	return nil, spawnErr
}

// checkDir fails early for an unusable working directory. Once SysProcAttr
// is set, a failed chdir in the child surfaces as a fork/exec ENOENT that
// reads like a missing executable.
func checkDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		var pathErr *fs.PathError
		if stderrors.As(err, &pathErr) {
			return &fs.PathError{Op: "chdir", Path: dir, Err: pathErr.Err}
		}
		return &fs.PathError{Op: "chdir", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "chdir", Path: dir, Err: syscall.ENOTDIR}
	}
	return nil
}

// isManagedTool reports whether name refers to the configured managed binary.
func (r *Runner) isManagedTool(name string) bool {
	binary := r.cfg.ManagedTool.Binary
	return binary != "" && filepath.Base(name) == binary
}
