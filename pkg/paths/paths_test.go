package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroveHomeTakesPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GROVE_HOME", home)
	t.Setenv("XDG_STATE_HOME", "/elsewhere")
	t.Setenv("GROVE_SPAWN_LOG_DIR", "")

	assert.Equal(t, filepath.Join(home, "config", "grove"), ConfigDir())
	assert.Equal(t, filepath.Join(home, "state", "grove"), StateDir())
	assert.Equal(t, filepath.Join(home, "state", "grove", "spawn", "sessions"), SessionLogDir())
}

func TestXDGStateHome(t *testing.T) {
	t.Setenv("GROVE_HOME", "")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")
	t.Setenv("GROVE_SPAWN_LOG_DIR", "")

	assert.Equal(t, filepath.Join("/xdg/state", "grove"), StateDir())
}

func TestSessionLogDirOverride(t *testing.T) {
	t.Setenv("GROVE_SPAWN_LOG_DIR", "/tmp/custom-logs")
	assert.Equal(t, "/tmp/custom-logs", SessionLogDir())
}
