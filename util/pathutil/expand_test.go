package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SPAWN_PATH_TEST", "/srv/logs")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/spawn", filepath.Join(home, "spawn")},
		{"$SPAWN_PATH_TEST/today", "/srv/logs/today"},
		{"/abs/path", "/abs/path"},
	}

	for _, tt := range tests {
		got, err := Expand(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	rel, err := Expand("relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
}
