package sessionlog

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/pkg/paths"
	"github.com/grovetools/spawn/pkg/process"
)

// DefaultListLimit is the number of sessions ListRecentSessions returns when
// limit is not positive.
const DefaultListLimit = 10

// maxLineSize bounds a single log line. Output chunks are at most one pipe
// read, well under this.
const maxLineSize = 4 * 1024 * 1024

// Session status values derived from a session's entries.
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// DefaultRoot returns the default session log root.
func DefaultRoot() string {
	return paths.SessionLogDir()
}

// Session is a fully read session log.
type Session struct {
	SessionInfo
	Entries []Entry `json:"entries"`
}

// End returns the session_end entry, if the session recorded one.
func (s *Session) End() (Entry, bool) {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		if s.Entries[i].Type == EntrySessionEnd {
			return s.Entries[i], true
		}
	}
	return Entry{}, false
}

// PID returns the pid from the spawned entry, or 0.
func (s *Session) PID() int {
	for _, e := range s.Entries {
		if e.Type == EntrySpawned {
			return e.PID
		}
	}
	return 0
}

// Status classifies the session. A session with no end entry is running
// while its recorded pid is alive and interrupted otherwise.
func (s *Session) Status() string {
	if end, ok := s.End(); ok {
		if end.ExitCode != nil && *end.ExitCode == 0 {
			return StatusCompleted
		}
		return StatusFailed
	}
	if pid := s.PID(); pid > 0 && process.IsProcessAlive(pid) {
		return StatusRunning
	}
	return StatusInterrupted
}

// ParseEntries reads line-delimited entries from r. Lines that fail to parse
// are skipped, so a truncated trailing line costs only itself.
func ParseEntries(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var entries []Entry
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// ListRecentSessions returns up to limit sessions, newest date directory
// first and newest session first within a directory. Only the first line of
// each file is read. A missing root yields an empty list; files whose first
// entry is unreadable are skipped.
func ListRecentSessions(root string, limit int) ([]SessionInfo, error) {
	if root == "" {
		root = DefaultRoot()
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	dateDirs, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionInfo{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read session log root").
			WithDetail("root", root)
	}

	var dates []string
	for _, d := range dateDirs {
		if d.IsDir() {
			dates = append(dates, d.Name())
		}
	}
	// YYYY-MM-DD sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	sessions := []SessionInfo{}
	for _, date := range dates {
		dir := filepath.Join(root, date)
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		var infos []SessionInfo
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if _, ok := sessionIDFromFile(f.Name()); !ok {
				continue
			}
			info, err := readSessionInfo(filepath.Join(dir, f.Name()))
			if err != nil {
				continue
			}
			infos = append(infos, info)
		}

		sort.SliceStable(infos, func(i, j int) bool {
			return infos[i].StartedAt.After(infos[j].StartedAt)
		})

		for _, info := range infos {
			sessions = append(sessions, info)
			if len(sessions) >= limit {
				return sessions, nil
			}
		}
	}
	return sessions, nil
}

// ReadSession loads every parseable entry of the session with the given id.
func ReadSession(root, sessionID string) (*Session, error) {
	path, err := FindSession(root, sessionID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open session log").
			WithDetail("path", path)
	}
	defer f.Close()

	entries, err := ParseEntries(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read session log").
			WithDetail("path", path)
	}

	session := &Session{Entries: entries}
	session.SessionID = sessionID
	session.Path = path
	if len(entries) > 0 && entries[0].Type == EntrySessionStart {
		session.SessionInfo = infoFromStart(entries[0], path)
	}
	return session, nil
}

// FindSession returns the path of the session log with the given id.
func FindSession(root, sessionID string) (string, error) {
	if root == "" {
		root = DefaultRoot()
	}
	if !validSessionID(sessionID) {
		return "", errors.InvalidInput("session id", sessionID)
	}

	// Exact lookups per date directory; the id is never used as a pattern.
	dirs, err := os.ReadDir(root)
	if err != nil {
		return "", errors.SessionNotFound(sessionID, root)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		if !dirs[i].IsDir() {
			continue
		}
		path := filepath.Join(root, dirs[i].Name(), fileName(sessionID))
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", errors.SessionNotFound(sessionID, root)
}

func readSessionInfo(path string) (SessionInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return SessionInfo{}, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return SessionInfo{}, err
	}

	var entry Entry
	if err := json.Unmarshal(line, &entry); err != nil {
		return SessionInfo{}, err
	}
	if entry.Type != EntrySessionStart {
		return SessionInfo{}, errors.New(errors.ErrCodeInternal, "first entry is not session_start").
			WithDetail("path", path)
	}
	return infoFromStart(entry, path), nil
}

func infoFromStart(entry Entry, path string) SessionInfo {
	return SessionInfo{
		SessionID:        entry.SessionID,
		Command:          entry.Command,
		Arguments:        entry.Arguments,
		WorkingDirectory: entry.WorkingDirectory,
		StartedAt:        entry.Timestamp,
		Path:             path,
	}
}
