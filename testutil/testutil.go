// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grovetools/spawn/pkg/process"
)

// RequireCommands skips the test unless every named executable is on PATH.
func RequireCommands(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available", name)
		}
	}
}

// RandomString generates a random hex string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}

// WriteSessionFile writes entries as a session log under root, dated by
// startedAt, and returns its path. Each entry is marshalled to one line.
func WriteSessionFile(t *testing.T, root, sessionID string, startedAt time.Time, entries ...interface{}) string {
	t.Helper()

	dir := filepath.Join(root, startedAt.Format("2006-01-02"))
	require.NoError(t, os.MkdirAll(dir, 0755))

	var data []byte
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		require.NoError(t, err)
		data = append(data, line...)
		data = append(data, '\n')
	}

	path := filepath.Join(dir, "session-"+sessionID+".log")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// WaitForExit polls until pid is gone or timeout expires, and reports
// whether the process exited. A zombie waiting on a reaper counts as exited.
func WaitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if exited(pid) {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return exited(pid)
}

func exited(pid int) bool {
	if !process.IsProcessAlive(pid) {
		return true
	}
	// /proc/<pid>/stat is "pid (comm) state ..."; only present on Linux.
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	if i := bytes.LastIndexByte(stat, ')'); i >= 0 && i+2 < len(stat) {
		return stat[i+2] == 'Z'
	}
	return false
}

// ReadPID reads a decimal pid written to path by a test script, waiting
// up to timeout for the file to appear.
func ReadPID(t *testing.T, path string, timeout time.Duration) int {
	t.Helper()

	var pid int
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
		return err == nil && pid > 0
	}, timeout, 10*time.Millisecond)
	return pid
}

// WriteExecutable writes an executable shell script into dir and returns its path.
func WriteExecutable(t *testing.T, dir, name, script string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	return path
}
