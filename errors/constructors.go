package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// Spawn failure reasons recorded under the "reason" detail.
const (
	ReasonNotFound         = "not_found"
	ReasonPermissionDenied = "permission_denied"
	ReasonInvalidDir       = "invalid_dir"
	ReasonOther            = "spawn_error"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *GroveError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *GroveError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// InvalidInput creates an invalid input error for a named field.
func InvalidInput(field, reason string) *GroveError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}

// SpawnFailed classifies an error returned while starting a process.
func SpawnFailed(cmd string, err error) *GroveError {
	reason := ReasonOther
	var pathErr *fs.PathError
	switch {
	case stderrors.As(err, &pathErr) && pathErr.Op == "chdir":
		return Wrap(err, ErrCodeSpawnFailed,
			fmt.Sprintf("working directory %s for '%s' is not usable: %v", pathErr.Path, cmd, pathErr.Err)).
			WithDetail("command", cmd).
			WithDetail("dir", pathErr.Path).
			WithDetail("reason", ReasonInvalidDir)
	case stderrors.Is(err, exec.ErrNotFound), stderrors.Is(err, fs.ErrNotExist):
		reason = ReasonNotFound
	case stderrors.Is(err, fs.ErrPermission):
		reason = ReasonPermissionDenied
	}

	msg := fmt.Sprintf("failed to start command '%s'", cmd)
	switch reason {
	case ReasonNotFound:
		msg = fmt.Sprintf("command not found: %s", cmd)
	case ReasonPermissionDenied:
		msg = fmt.Sprintf("permission denied executing: %s", cmd)
	}

	return Wrap(err, ErrCodeSpawnFailed, msg).
		WithDetail("command", cmd).
		WithDetail("reason", reason)
}

// CommandTimeout creates an error for a command that outlived its timeout.
func CommandTimeout(cmd string, timeout, elapsed time.Duration) *GroveError {
	return New(ErrCodeCommandTimeout,
		fmt.Sprintf("command '%s' timed out after %s (elapsed %s)", cmd, timeout, elapsed.Round(time.Millisecond))).
		WithDetail("command", cmd).
		WithDetail("timeout", timeout.String()).
		WithDetail("timeoutMs", timeout.Milliseconds()).
		WithDetail("elapsedMs", elapsed.Milliseconds())
}

// CommandCanceled creates an error for a command stopped by its caller's context.
func CommandCanceled(cmd string, cause error) *GroveError {
	return Wrap(cause, ErrCodeCommandCanceled, fmt.Sprintf("command '%s' canceled", cmd)).
		WithDetail("command", cmd)
}

// CommandFailed creates a command execution failure error. The message embeds
// the exit code and the captured output excerpt so it can be diagnosed without
// re-running.
func CommandFailed(cmd string, exitCode int, signal string, excerpt string, err error) *GroveError {
	msg := fmt.Sprintf("command '%s' exited with code %d", cmd, exitCode)
	if signal != "" {
		msg = fmt.Sprintf("command '%s' exited with code %d (signal: %s)", cmd, exitCode, signal)
	}
	if excerpt != "" {
		msg += ": " + excerpt
	}

	groveErr := Wrap(err, ErrCodeCommandFailed, msg).
		WithDetail("command", cmd).
		WithDetail("exitCode", exitCode)
	if signal != "" {
		groveErr = groveErr.WithDetail("signal", signal)
	}
	return groveErr
}

// SessionNotFound creates an error for an unknown session id.
func SessionNotFound(sessionID, root string) *GroveError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", sessionID)).
		WithDetail("sessionId", sessionID).
		WithDetail("logRoot", root)
}

// LogWriteFailed wraps a session log write failure.
func LogWriteFailed(sessionID, path string, err error) *GroveError {
	return Wrap(err, ErrCodeLogWriteFailed, "failed to write session log entry").
		WithDetail("sessionId", sessionID).
		WithDetail("path", path)
}
