package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/spawn/sessionlog"
)

func TestOptionsFromMap(t *testing.T) {
	input := map[string]interface{}{
		"cwd":          "/tmp",
		"env":          map[string]interface{}{"FOO": "bar"},
		"detached":     true,
		"stdio":        "ignore",
		"timeout":      1500,
		"logging":      false,
		"saveLog":      "true",
		"logDir":       "/var/log/spawn",
		"logLevel":     "reduced",
		"logToConsole": true,
	}

	opts, err := OptionsFromMap(input)
	require.NoError(t, err)

	assert.Equal(t, "/tmp", opts.Cwd)
	assert.Equal(t, map[string]string{"FOO": "bar"}, opts.Env)
	assert.True(t, opts.Detached)
	assert.Equal(t, OutputIgnored, opts.OutputMode)
	assert.Equal(t, 1500*time.Millisecond, opts.Timeout)
	require.NotNil(t, opts.Logging)
	assert.False(t, *opts.Logging)
	require.NotNil(t, opts.SaveLog)
	assert.True(t, *opts.SaveLog)
	assert.Equal(t, "/var/log/spawn", opts.LogDir)
	assert.Equal(t, sessionlog.LevelReduced, opts.LogLevel)
	require.NotNil(t, opts.LogToConsole)
	assert.True(t, *opts.LogToConsole)

	// The caller's map is not modified.
	assert.Contains(t, input, "stdio")
	assert.NotContains(t, input, "outputMode")
}

func TestOptionsFromMapTimeouts(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  time.Duration
	}{
		{"int milliseconds", 250, 250 * time.Millisecond},
		{"int64 milliseconds", int64(2000), 2 * time.Second},
		{"int32 milliseconds", int32(300), 300 * time.Millisecond},
		{"int16 milliseconds", int16(40), 40 * time.Millisecond},
		{"uint milliseconds", uint(1500), 1500 * time.Millisecond},
		{"uint64 milliseconds", uint64(10), 10 * time.Millisecond},
		{"float from JSON", float64(75), 75 * time.Millisecond},
		{"float32 milliseconds", float32(20), 20 * time.Millisecond},
		{"duration passes through", 3 * time.Second, 3 * time.Second},
		{"duration string", "1m30s", 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := OptionsFromMap(map[string]interface{}{"timeout": tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.Timeout)
		})
	}
}

func TestOptionsFromMapErrors(t *testing.T) {
	_, err := OptionsFromMap(map[string]interface{}{"timeout": "soon"})
	assert.Error(t, err)

	_, err = OptionsFromMap(map[string]interface{}{"outputMode": "tee"})
	assert.Error(t, err)
}

func TestOptionsFromMapOutputModePrecedence(t *testing.T) {
	opts, err := OptionsFromMap(map[string]interface{}{"stdio": "ignore", "outputMode": "pipe"})
	require.NoError(t, err)
	assert.Equal(t, OutputCaptured, opts.OutputMode)
}

func TestToolOptionsFromMap(t *testing.T) {
	opts, err := ToolOptionsFromMap(map[string]interface{}{
		"fireAndForget":   true,
		"skipPermissions": false,
		"timeout":         "10s",
		"cwd":             "/work",
	})
	require.NoError(t, err)

	assert.True(t, opts.FireAndForget)
	require.NotNil(t, opts.SkipPermissions)
	assert.False(t, *opts.SkipPermissions)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, "/work", opts.Cwd)
}

func TestParseOutputMode(t *testing.T) {
	for _, s := range []string{"", "pipe", "Captured"} {
		mode, err := ParseOutputMode(s)
		require.NoError(t, err)
		assert.Equal(t, OutputCaptured, mode)
	}
	mode, err := ParseOutputMode("ignore")
	require.NoError(t, err)
	assert.Equal(t, OutputIgnored, mode)
	assert.Equal(t, "ignore", mode.String())
}
