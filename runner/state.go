package runner

import (
	"bytes"
	stderrors "errors"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/sessionlog"
)

// State is the lifecycle position of one invocation.
type State int

const (
	StateSpawned State = iota
	StateRunning
	StateTimedOut
	StateExited
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StateRunning:
		return "running"
	case StateTimedOut:
		return "timed_out"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// settled reports whether the outcome has been decided.
func (s State) settled() bool {
	return s == StateTimedOut || s == StateExited || s == StateFailed
}

type eventKind int

const (
	eventChunk eventKind = iota
	eventExit
	eventTimeout
	eventCancel
)

type stream int

const (
	streamStdout stream = iota
	streamStderr
)

type event struct {
	kind    eventKind
	stream  stream
	data    []byte
	waitErr error
	cause   error
}

// maxExcerpt bounds the output quoted in a failure message.
const maxExcerpt = 2000

// invocation is the state of one synchronous Execute. Only the goroutine
// running the event loop touches it.
type invocation struct {
	req     Request
	started time.Time
	state   State
	log     *logrus.Entry

	session *sessionlog.Logger
	echo    bool
	echoOut io.Writer
	echoErr io.Writer

	stdout bytes.Buffer
	stderr bytes.Buffer

	cmd        *exec.Cmd
	terminated bool
	exitCode   *int
	signal     string
	err        error
}

func newInvocation(req Request, session *sessionlog.Logger, log *logrus.Entry, echoOut, echoErr io.Writer) *invocation {
	return &invocation{
		req:     req,
		started: time.Now(),
		state:   StateSpawned,
		log:     log,
		session: session,
		echo:    req.echo(),
		echoOut: echoOut,
		echoErr: echoErr,
	}
}

// transition applies ev and reports whether the child must be terminated.
// The first decisive event settles the outcome; later ones only record.
func (inv *invocation) transition(ev event) bool {
	switch ev.kind {
	case eventChunk:
		if inv.state == StateSpawned {
			inv.state = StateRunning
		}
		inv.recordChunk(ev.stream, ev.data)
		return false

	case eventTimeout:
		if inv.state.settled() {
			return false
		}
		inv.state = StateTimedOut
		inv.err = errors.CommandTimeout(inv.req.Command, inv.req.Timeout, time.Since(inv.started))
		inv.log.WithField("timeout", inv.req.Timeout).Warn("Command timed out, terminating")
		return true

	case eventCancel:
		if inv.state.settled() {
			return false
		}
		inv.state = StateFailed
		inv.err = errors.CommandCanceled(inv.req.Command, ev.cause)
		inv.log.Debug("Context canceled, terminating command")
		return true

	case eventExit:
		inv.recordExit(ev.waitErr)
		if inv.state.settled() {
			return false
		}
		if inv.exitCode != nil && *inv.exitCode == 0 {
			inv.state = StateExited
			return false
		}
		inv.state = StateFailed
		code := -1
		if inv.exitCode != nil {
			code = *inv.exitCode
		}
		inv.err = errors.CommandFailed(inv.req.Command, code, inv.signal, inv.excerpt(), ev.waitErr)
		return false
	}
	return false
}

func (inv *invocation) recordChunk(s stream, data []byte) {
	captured := inv.req.outputMode() == OutputCaptured
	switch s {
	case streamStdout:
		if captured {
			inv.stdout.Write(data)
		}
		if inv.echo {
			_, _ = inv.echoOut.Write(data)
		}
		inv.session.AppendStdout(string(data))
	case streamStderr:
		if captured {
			inv.stderr.Write(data)
		}
		if inv.echo {
			_, _ = inv.echoErr.Write(data)
		}
		inv.session.AppendStderr(string(data))
	}
}

// recordExit extracts the exit code or terminating signal from cmd.Wait's result.
func (inv *invocation) recordExit(waitErr error) {
	if inv.cmd == nil || inv.cmd.ProcessState == nil {
		return
	}
	if waitErr != nil && !stderrors.Is(waitErr, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !stderrors.As(waitErr, &exitErr) {
			inv.log.WithError(waitErr).Debug("Wait returned a non-exit error")
		}
	}
	inv.signal = exitSignal(inv.cmd.ProcessState)
	if inv.signal == "" {
		code := inv.cmd.ProcessState.ExitCode()
		inv.exitCode = &code
	}
}

// excerpt returns trimmed stderr, falling back to stdout, bounded to its tail.
func (inv *invocation) excerpt() string {
	text := strings.TrimSpace(inv.stderr.String())
	if text == "" {
		text = strings.TrimSpace(inv.stdout.String())
	}
	if len(text) > maxExcerpt {
		text = "..." + text[len(text)-maxExcerpt:]
	}
	return text
}

// finish writes the closing entries and produces the outcome.
func (inv *invocation) finish() (*Result, error) {
	if inv.err != nil {
		inv.session.RecordError(inv.err)
	}
	inv.session.RecordExit(inv.exitCode, inv.signal)
	if err := inv.session.Close(); err != nil {
		inv.log.WithError(err).Debug("Failed to close session log")
	}

	if inv.err != nil {
		return nil, inv.err
	}
	return &Result{
		Succeeded: true,
		ExitCode:  inv.exitCode,
		Stdout:    inv.stdout.Bytes(),
		Stderr:    inv.stderr.Bytes(),
		PID:       inv.pid(),
		SessionID: inv.session.SessionID(),
		LogPath:   inv.session.Path(),
		Duration:  time.Since(inv.started),
	}, nil
}

func (inv *invocation) pid() int {
	if inv.cmd == nil || inv.cmd.Process == nil {
		return 0
	}
	return inv.cmd.Process.Pid
}

// streamWriter forwards each write to the event loop as a chunk event.
// exec copies pipe output through it on its own goroutine.
type streamWriter struct {
	stream stream
	events chan<- event
}

func (w *streamWriter) Write(p []byte) (int, error) {
	data := make([]byte, len(p))
	copy(data, p)
	w.events <- event{kind: eventChunk, stream: w.stream, data: data}
	return len(p), nil
}

var _ io.Writer = (*streamWriter)(nil)

