package sessionlog

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/schema"
)

func intPtr(i int) *int { return &i }

// fixedClock returns a clock starting at start and advancing step per call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

func TestLoggerRoundTrip(t *testing.T) {
	root := t.TempDir()
	logger := New(Options{Root: root, Level: LevelFull})

	require.NoError(t, logger.Initialize("echo", []string{"hello"}, "/tmp"))
	logger.RecordSpawn(4242)
	logger.AppendStdout("hello\n")
	logger.AppendStderr("warn\n")
	logger.RecordExit(intPtr(0), "")
	require.NoError(t, logger.Close())

	id := logger.SessionID()
	require.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(filepath.Base(logger.Path()), "session-"+id))
	assert.Equal(t, root, filepath.Dir(filepath.Dir(logger.Path())))

	session, err := ReadSession(root, id)
	require.NoError(t, err)
	require.Len(t, session.Entries, 5)

	assert.Equal(t, EntrySessionStart, session.Entries[0].Type)
	assert.Equal(t, "echo", session.Command)
	assert.Equal(t, []string{"hello"}, session.Arguments)
	assert.Equal(t, "/tmp", session.WorkingDirectory)

	assert.Equal(t, EntrySpawned, session.Entries[1].Type)
	assert.Equal(t, 4242, session.PID())
	assert.Equal(t, "hello\n", session.Entries[2].Text)
	assert.Equal(t, EntryStderr, session.Entries[3].Type)

	end, ok := session.End()
	require.True(t, ok)
	require.NotNil(t, end.ExitCode)
	assert.Equal(t, 0, *end.ExitCode)
	assert.Equal(t, StatusCompleted, session.Status())

	for _, e := range session.Entries {
		assert.Equal(t, id, e.SessionID)
	}
}

func TestLoggerReducedLevel(t *testing.T) {
	root := t.TempDir()
	logger := New(Options{Root: root, Level: LevelReduced})

	require.NoError(t, logger.Initialize("sh", []string{"-c", "echo hi"}, ""))
	logger.AppendStdout("hi\n")
	logger.AppendStderr("oops\n")
	logger.RecordError(errors.CommandFailed("sh", 1, "", "oops", nil))
	logger.RecordExit(intPtr(1), "")
	require.NoError(t, logger.Close())

	session, err := ReadSession(root, logger.SessionID())
	require.NoError(t, err)
	require.Len(t, session.Entries, 3)
	for _, e := range session.Entries {
		assert.True(t, e.IsBoundary(), "unexpected %s entry", e.Type)
	}
	assert.Equal(t, string(errors.ErrCodeCommandFailed), session.Entries[1].Details["code"])
	assert.Equal(t, StatusFailed, session.Status())
}

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *Logger
	assert.NoError(t, logger.Initialize("echo", nil, ""))
	logger.RecordSpawn(1)
	logger.AppendStdout("x")
	logger.RecordError(assert.AnError)
	logger.RecordExit(nil, "SIGKILL")
	assert.NoError(t, logger.Close())
	assert.Empty(t, logger.SessionID())
	assert.False(t, logger.Active())
}

func TestLoggerWriteFailureIsReported(t *testing.T) {
	diag := NewDiagnostics(4)
	logger := New(Options{Root: t.TempDir(), Reporter: diag})

	require.NoError(t, logger.Initialize("echo", nil, ""))
	require.NoError(t, logger.Close())

	logger.AppendStdout("after close")

	select {
	case err := <-diag.C():
		assert.True(t, errors.Is(err, errors.ErrCodeLogWriteFailed))
	case <-time.After(time.Second):
		t.Fatal("write failure was not reported")
	}
}

func TestLoggerInitializeFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	logger := New(Options{Root: blocker})
	err := logger.Initialize("echo", nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLogWriteFailed))
	assert.False(t, logger.Active())

	// Appends after a failed Initialize are silently dropped.
	logger.AppendStdout("x")
}

type failingFile struct {
	closed bool
}

func (f *failingFile) Write([]byte) (int, error) { return 0, io.ErrShortWrite }
func (f *failingFile) Close() error { f.closed = true; return nil }

func TestLoggerInitializeClosesFileWhenStartFails(t *testing.T) {
	file := &failingFile{}
	orig := openSessionFile
	openSessionFile = func(string) (io.WriteCloser, error) { return file, nil }
	t.Cleanup(func() { openSessionFile = orig })

	logger := New(Options{Root: t.TempDir()})
	err := logger.Initialize("echo", nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLogWriteFailed))
	assert.True(t, file.closed, "session file left open")
	assert.False(t, logger.Active())
	assert.NoError(t, logger.Close())
}

func TestDiagnosticsDropsWhenFull(t *testing.T) {
	diag := NewDiagnostics(1)
	diag.Report(assert.AnError)
	diag.Report(assert.AnError)
	diag.Report(assert.AnError)

	assert.Len(t, diag.C(), 1)
	assert.Equal(t, int64(2), diag.Dropped())
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	root := t.TempDir()
	logger := New(Options{Root: root})
	require.NoError(t, logger.Initialize("yes", nil, ""))

	chunk := strings.Repeat("y", 8192)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.AppendStdout(chunk)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	session, err := ReadSession(root, logger.SessionID())
	require.NoError(t, err)
	assert.Len(t, session.Entries, 1+8*20)
}

func TestSessionIDsAreUnique(t *testing.T) {
	now := time.Now()
	ids := make(chan string, 200)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- NewSessionID(now)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		assert.True(t, validSessionID(id))
		seen[id] = true
	}
}

func TestReadSessionTruncatedFile(t *testing.T) {
	root := t.TempDir()
	logger := New(Options{Root: root})
	require.NoError(t, logger.Initialize("sleep", []string{"10"}, ""))
	logger.AppendStdout("partial output")
	require.NoError(t, logger.Close())

	// Simulate a crash mid-write.
	f, err := os.OpenFile(logger.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"type":"stdout","text":"cut of`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	session, err := ReadSession(root, logger.SessionID())
	require.NoError(t, err)
	assert.Len(t, session.Entries, 2)
	assert.Equal(t, StatusInterrupted, session.Status())
}

func TestReadSessionNotFound(t *testing.T) {
	_, err := ReadSession(t.TempDir(), "123-1-deadbeef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))

	_, err = ReadSession(t.TempDir(), "../escape")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestFindSessionTreatsIDLiterally(t *testing.T) {
	root := t.TempDir()
	logger := New(Options{Root: root})
	require.NoError(t, logger.Initialize("echo", []string{"hi"}, ""))
	require.NoError(t, logger.Close())

	for _, id := range []string{"*", "1?*", "[0-9]*", logger.SessionID()[:3] + "*"} {
		_, err := ReadSession(root, id)
		require.Error(t, err, id)
		assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound), id)

		err = Follow(context.Background(), root, id, func(Entry) error { return nil })
		assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound), id)
	}

	path, err := FindSession(root, logger.SessionID())
	require.NoError(t, err)
	assert.Equal(t, logger.Path(), path)
}

func TestListRecentSessions(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	var ids []string
	for day := 0; day < 3; day++ {
		for n := 0; n < 2; n++ {
			start := base.AddDate(0, 0, day).Add(time.Duration(n) * time.Minute)
			logger := New(Options{Root: root, Now: fixedClock(start, time.Millisecond)})
			require.NoError(t, logger.Initialize("echo", []string{"run"}, ""))
			require.NoError(t, logger.Close())
			ids = append(ids, logger.SessionID())
		}
	}

	sessions, err := ListRecentSessions(root, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 6)
	for i, info := range sessions {
		assert.Equal(t, ids[len(ids)-1-i], info.SessionID)
	}

	limited, err := ListRecentSessions(root, 3)
	require.NoError(t, err)
	require.Len(t, limited, 3)
	assert.Equal(t, ids[5], limited[0].SessionID)
	assert.Equal(t, ids[3], limited[2].SessionID)
}

func TestListRecentSessionsSkipsCorrupt(t *testing.T) {
	root := t.TempDir()
	logger := New(Options{Root: root})
	require.NoError(t, logger.Initialize("echo", nil, ""))
	require.NoError(t, logger.Close())

	dir := filepath.Dir(logger.Path())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session-broken.log"), []byte("not json\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	sessions, err := ListRecentSessions(root, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, logger.SessionID(), sessions[0].SessionID)
}

func TestListRecentSessionsMissingRoot(t *testing.T) {
	sessions, err := ListRecentSessions(filepath.Join(t.TempDir(), "nope"), 5)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFollowStopsAtSessionEnd(t *testing.T) {
	root := t.TempDir()
	logger := New(Options{Root: root})
	require.NoError(t, logger.Initialize("echo", nil, ""))
	logger.AppendStdout("one\n")

	go func() {
		time.Sleep(100 * time.Millisecond)
		logger.AppendStdout("two\n")
		logger.RecordExit(intPtr(0), "")
		_ = logger.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var types []EntryType
	err := Follow(ctx, root, logger.SessionID(), func(e Entry) error {
		types = append(types, e.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []EntryType{EntrySessionStart, EntryStdout, EntryStdout, EntrySessionEnd}, types)
}

func TestEntriesMatchSchema(t *testing.T) {
	schemaJSON, err := EntrySchema()
	require.NoError(t, err)

	validator, err := schema.NewValidator("entry.schema.json", schemaJSON)
	require.NoError(t, err)

	root := t.TempDir()
	logger := New(Options{Root: root})
	require.NoError(t, logger.Initialize("echo", []string{"a"}, "/"))
	logger.RecordSpawn(10)
	logger.AppendStdout("a\n")
	logger.RecordError(errors.SpawnFailed("echo", os.ErrPermission))
	logger.RecordExit(nil, "SIGKILL")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &doc))
		assert.NoError(t, validator.Validate(doc), line)
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelFull, level)

	level, err = ParseLevel("reduced")
	require.NoError(t, err)
	assert.Equal(t, LevelReduced, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestWatchReportsNewSessions(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	found := make(chan SessionInfo, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, root, func(info SessionInfo) {
			found <- info
		})
	}()

	// Give the watcher time to register the root.
	time.Sleep(200 * time.Millisecond)

	logger := New(Options{Root: root})
	require.NoError(t, logger.Initialize("echo", []string{"watched"}, ""))
	require.NoError(t, logger.Close())

	select {
	case info := <-found:
		assert.Equal(t, logger.SessionID(), info.SessionID)
		assert.Equal(t, []string{"watched"}, info.Arguments)
	case <-ctx.Done():
		t.Fatal("new session was not reported")
	}

	cancel()
	assert.NoError(t, <-done)
}
