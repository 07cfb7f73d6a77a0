// Package sessionlog persists one append-only, line-delimited JSON log per
// process invocation and reads those logs back.
//
// Layout: <root>/<YYYY-MM-DD>/session-<sessionID>.log. Every line is a
// complete Entry; readers skip lines that fail to parse, so a log truncated
// by a crash still yields its complete leading entries.
package sessionlog

import (
	"fmt"
	"time"
)

// EntryType identifies a log record.
type EntryType string

const (
	EntrySessionStart EntryType = "session_start"
	EntrySpawned      EntryType = "spawned"
	EntryStdout       EntryType = "stdout"
	EntryStderr       EntryType = "stderr"
	EntryError        EntryType = "error"
	EntrySessionEnd   EntryType = "session_end"
)

// Level selects how much of an invocation is recorded.
type Level string

const (
	// LevelFull records every output chunk.
	LevelFull Level = "full"
	// LevelReduced records boundary entries only.
	LevelReduced Level = "reduced"
)

// ParseLevel parses "full" or "reduced". Empty means full.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "", LevelFull:
		return LevelFull, nil
	case LevelReduced:
		return LevelReduced, nil
	default:
		return "", fmt.Errorf("unknown log level %q (want full or reduced)", s)
	}
}

// Entry is one line of a session log. Which fields are set depends on Type.
type Entry struct {
	Type      EntryType `json:"type" jsonschema:"enum=session_start,enum=spawned,enum=stdout,enum=stderr,enum=error,enum=session_end"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`

	// session_start
	Command          string   `json:"command,omitempty"`
	Arguments        []string `json:"arguments,omitempty"`
	WorkingDirectory string   `json:"workingDirectory,omitempty"`

	// spawned
	PID int `json:"pid,omitempty"`

	// stdout, stderr
	Text      string `json:"text,omitempty"`
	ElapsedMs int64  `json:"elapsedMs,omitempty"`

	// error
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`

	// session_end
	ExitCode   *int   `json:"exitCode,omitempty"`
	Signal     string `json:"signal,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// IsBoundary reports whether the entry is kept at LevelReduced.
func (e Entry) IsBoundary() bool {
	return e.Type != EntryStdout && e.Type != EntryStderr
}

// SessionInfo is the lightweight index record built from a session's first entry.
type SessionInfo struct {
	SessionID        string    `json:"sessionId"`
	Command          string    `json:"command"`
	Arguments        []string  `json:"arguments,omitempty"`
	WorkingDirectory string    `json:"workingDirectory,omitempty"`
	StartedAt        time.Time `json:"startedAt"`
	Path             string    `json:"path"`
}
