package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/sessionlog"
	"github.com/grovetools/spawn/testutil"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("GROVE_HOME", t.TempDir())

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunEchoesOutput(t *testing.T) {
	testutil.RequireCommands(t, "echo")

	stdout, _, err := execute(t, "run", "--", "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout)
}

func TestRunQuiet(t *testing.T) {
	testutil.RequireCommands(t, "echo")

	stdout, _, err := execute(t, "run", "--quiet", "--", "echo", "hello")
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestRunJSON(t *testing.T) {
	testutil.RequireCommands(t, "sh")

	stdout, _, err := execute(t, "run", "--json", "--env", "SPAWN_CMD_TEST=yes", "--", "sh", "-c", "echo $SPAWN_CMD_TEST")
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, true, out["succeeded"])
	assert.Equal(t, "yes\n", out["stdout"])
}

func TestRunFailureReturnsGroveError(t *testing.T) {
	testutil.RequireCommands(t, "sh")

	_, _, err := execute(t, "run", "--quiet", "--", "sh", "-c", "exit 3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
}

func TestRunRejectsBadEnv(t *testing.T) {
	_, _, err := execute(t, "run", "--env", "NOEQUALS", "--", "echo")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestRunSavesSessionThenLists(t *testing.T) {
	testutil.RequireCommands(t, "echo")
	logDir := t.TempDir()

	_, stderr, err := execute(t, "run", "--save-log", "--log-dir", logDir, "--", "echo", "persisted")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Session")

	stdout, _, err := execute(t, "sessions", "list", "--log-dir", logDir, "--json")
	require.NoError(t, err)

	var infos []sessionlog.SessionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "echo", infos[0].Command)

	stdout, _, err = execute(t, "sessions", "show", infos[0].SessionID, "--log-dir", logDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "persisted")
	assert.Contains(t, stdout, sessionlog.StatusCompleted)

	stdout, _, err = execute(t, "sessions", "list", "--log-dir", logDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, infos[0].SessionID)
}

func TestSessionsShowUnknown(t *testing.T) {
	_, _, err := execute(t, "sessions", "show", "1-1-deadbeef", "--log-dir", t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))
}

func TestSchemaCommand(t *testing.T) {
	for _, kind := range []string{"config", "log"} {
		stdout, _, err := execute(t, "schema", kind)
		require.NoError(t, err)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(stdout), &doc), kind)
		assert.Equal(t, "object", doc["type"])
	}

	_, _, err := execute(t, "schema", "bogus")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestConfigCommandFormats(t *testing.T) {
	stdout, _, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "binary: claude")

	stdout, _, err = execute(t, "config", "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[managed_tool]")
	assert.Contains(t, stdout, "claude")

	stdout, _, err = execute(t, "config", "--json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(stdout), "{"))
}

func TestCommandLineTruncates(t *testing.T) {
	assert.Equal(t, "echo a b", commandLine("echo", []string{"a", "b"}, 0))
	assert.Equal(t, "echo a...", commandLine("echo", []string{"abcdefgh"}, 9))
}
