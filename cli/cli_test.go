package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/version"
)

func TestErrorHandlerHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "spawn not found",
			err:  errors.SpawnFailed("nope", errors.New(errors.ErrCodeInternal, "x")),
			want: []string{"failed to start command 'nope'"},
		},
		{
			name: "timeout",
			err:  errors.CommandTimeout("sleep", 0, 0),
			want: []string{"timed out", "--timeout"},
		},
		{
			name: "session not found",
			err:  errors.SessionNotFound("123-1-abc", "/logs"),
			want: []string{"123-1-abc", "/logs", "spawn sessions list"},
		},
		{
			name: "invalid config",
			err:  errors.ConfigInvalid("bad key"),
			want: []string{"bad key", "spawn schema config"},
		},
		{
			name: "plain error",
			err:  assert.AnError,
			want: []string{"Error:", assert.AnError.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			h := &ErrorHandler{Out: &out}

			assert.Equal(t, tt.err, h.Handle(tt.err))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var out bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &out}

	_ = h.Handle(errors.CommandFailed("sh", 3, "", "boom", nil))
	assert.Contains(t, out.String(), "Error details:")
	assert.Contains(t, out.String(), `"exitCode": 3`)
}

func TestErrorHandlerNil(t *testing.T) {
	assert.NoError(t, NewErrorHandler(false).Handle(nil))
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("spawn", "Run commands with timeouts and session logs")
	root.AddCommand(NewVersionCommand())

	var out bytes.Buffer
	renderHelp(&out, root, 60)

	help := out.String()
	assert.Contains(t, help, "SPAWN")
	assert.Contains(t, help, "version")
	assert.Contains(t, help, "--config")
	assert.Contains(t, help, "[command] --help")
}

func TestWrapText(t *testing.T) {
	wrapped := wrapText("one two three four five six", 10)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 10)
	}
	assert.Equal(t, "keep\nbreaks", wrapText("keep\nbreaks", 10))
}

func TestVersionCommandJSON(t *testing.T) {
	root := NewStandardCommand("spawn", "test")
	root.AddCommand(NewVersionCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())

	var info version.Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, version.Version, info.Version)
}
