package sessionlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/spawn/errors"
)

// Options configures a Logger.
type Options struct {
	// Root is the log root; empty means DefaultRoot().
	Root string
	// Level selects full or reduced recording.
	Level Level
	// Reporter receives write failures. Nil discards them.
	Reporter ErrorReporter
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Logger records the lifecycle of one invocation. It exclusively owns its
// file for the life of the invocation. All methods are safe for concurrent
// use and are no-ops on a nil *Logger, so callers that do not persist can
// pass nil around.
type Logger struct {
	opts Options

	mu        sync.Mutex
	file      io.WriteCloser
	sessionID string
	path      string
	startedAt time.Time
	closed    bool
}

// openSessionFile creates a session file exclusively for appending.
var openSessionFile = func(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// New creates a Logger. Nothing touches the filesystem until Initialize.
func New(opts Options) *Logger {
	if opts.Root == "" {
		opts.Root = DefaultRoot()
	}
	if opts.Level == "" {
		opts.Level = LevelFull
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Logger{opts: opts}
}

// Initialize creates the date directory, opens the session file and writes
// the session_start entry.
func (l *Logger) Initialize(command string, args []string, dir string) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return fmt.Errorf("session %s already initialized", l.sessionID)
	}

	l.startedAt = l.opts.Now()
	l.sessionID = NewSessionID(l.startedAt)
	l.path = SessionPath(l.opts.Root, l.sessionID, l.startedAt)

	// MkdirAll tolerates concurrent creation of the same date directory.
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.LogWriteFailed(l.sessionID, l.path, err)
	}
	file, err := openSessionFile(l.path)
	if err != nil {
		return errors.LogWriteFailed(l.sessionID, l.path, err)
	}
	l.file = file

	if args == nil {
		args = []string{}
	}
	err = l.writeLocked(Entry{
		Type:             EntrySessionStart,
		Timestamp:        l.startedAt,
		SessionID:        l.sessionID,
		Command:          command,
		Arguments:        args,
		WorkingDirectory: dir,
	})
	if err != nil {
		// A file without session_start is unreadable; drop it.
		_ = l.file.Close()
		_ = os.Remove(l.path)
		l.file = nil
		return err
	}
	return nil
}

// SessionID returns the id assigned by Initialize.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// Path returns the session file path assigned by Initialize.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Active reports whether the logger has an open session file.
func (l *Logger) Active() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil && !l.closed
}

// RecordSpawn appends the spawned entry with the child's pid.
func (l *Logger) RecordSpawn(pid int) {
	l.append(Entry{Type: EntrySpawned, PID: pid})
}

// AppendStdout appends a stdout chunk. Skipped at LevelReduced.
func (l *Logger) AppendStdout(text string) {
	l.appendChunk(EntryStdout, text)
}

// AppendStderr appends a stderr chunk. Skipped at LevelReduced.
func (l *Logger) AppendStderr(text string) {
	l.appendChunk(EntryStderr, text)
}

func (l *Logger) appendChunk(typ EntryType, text string) {
	if l == nil || l.opts.Level == LevelReduced {
		return
	}
	l.append(Entry{Type: typ, Text: text, ElapsedMs: l.elapsed().Milliseconds()})
}

// RecordError appends an error entry. GroveError codes and details are kept.
func (l *Logger) RecordError(err error) {
	if l == nil || err == nil {
		return
	}

	details := map[string]interface{}{"type": fmt.Sprintf("%T", err)}
	if groveErr, ok := errors.As(err); ok {
		details["code"] = string(groveErr.Code)
		for k, v := range groveErr.Details {
			details[k] = v
		}
		if groveErr.Cause != nil {
			details["cause"] = groveErr.Cause.Error()
		}
	}

	l.append(Entry{Type: EntryError, Message: err.Error(), Details: details})
}

// RecordExit appends session_end. exitCode is nil when the process was
// killed by a signal.
func (l *Logger) RecordExit(exitCode *int, signal string) {
	if l == nil {
		return
	}
	l.append(Entry{
		Type:       EntrySessionEnd,
		ExitCode:   exitCode,
		Signal:     signal,
		DurationMs: l.elapsed().Milliseconds(),
	})
}

// Close closes the session file. Later appends are reported as failures.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil || l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

func (l *Logger) elapsed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.startedAt.IsZero() {
		return 0
	}
	return l.opts.Now().Sub(l.startedAt)
}

// append writes entry, reporting instead of returning any failure.
func (l *Logger) append(entry Entry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		// Initialize failed or was never called; it already reported.
		return
	}
	entry.Timestamp = l.opts.Now()
	entry.SessionID = l.sessionID
	if err := l.writeLocked(entry); err != nil {
		l.report(err)
	}
}

// writeLocked marshals entry and writes it as one line with a single Write
// call so concurrent appends never interleave inside a record.
func (l *Logger) writeLocked(entry Entry) error {
	if l.closed {
		return errors.LogWriteFailed(l.sessionID, l.path, os.ErrClosed)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.LogWriteFailed(l.sessionID, l.path, err)
	}
	data = append(data, '\n')
	if _, err := l.file.Write(data); err != nil {
		return errors.LogWriteFailed(l.sessionID, l.path, err)
	}
	return nil
}

func (l *Logger) report(err error) {
	if l.opts.Reporter != nil {
		l.opts.Reporter.Report(err)
	}
}
