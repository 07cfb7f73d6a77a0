package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnv(t *testing.T) {
	tests := []struct {
		name      string
		base      []string
		overrides map[string]string
		marker    string
		want      []string
	}{
		{
			name:   "base passes through sorted",
			base:   []string{"PATH=/bin", "HOME=/home/u"},
			marker: DefaultNestedMarker,
			want:   []string{"HOME=/home/u", "PATH=/bin"},
		},
		{
			name:      "overrides win",
			base:      []string{"FOO=1"},
			overrides: map[string]string{"FOO": "2", "BAR": "x"},
			marker:    DefaultNestedMarker,
			want:      []string{"BAR=x", "FOO=2"},
		},
		{
			name:   "marker stripped from base",
			base:   []string{"CLAUDECODE=1", "A=b"},
			marker: DefaultNestedMarker,
			want:   []string{"A=b"},
		},
		{
			name:      "marker stripped even when caller sets it",
			base:      []string{"A=b"},
			overrides: map[string]string{"CLAUDECODE": "1"},
			marker:    DefaultNestedMarker,
			want:      []string{"A=b"},
		},
		{
			name:   "values containing equals survive",
			base:   []string{"OPTS=a=b=c", "malformed"},
			marker: DefaultNestedMarker,
			want:   []string{"OPTS=a=b=c"},
		},
		{
			name:      "custom marker",
			base:      []string{"CLAUDECODE=1", "NESTED=1"},
			overrides: nil,
			marker:    "NESTED",
			want:      []string{"CLAUDECODE=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildEnv(tt.base, tt.overrides, tt.marker))
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Setenv(DefaultNestedMarker, "1")
	rec := &RecordingExecutor{}
	b := NewBuilderWithExecutor(rec)

	t.Run("valid command", func(t *testing.T) {
		cmd, err := b.Build(Spec{Name: "echo", Args: []string{"hello"}, Dir: "/tmp", Env: map[string]string{"X": "y"}})
		require.NoError(t, err)
		assert.Equal(t, "/tmp", cmd.Dir)
		assert.Contains(t, cmd.Env, "X=y")
		for _, kv := range cmd.Env {
			assert.NotContains(t, kv, DefaultNestedMarker+"=")
		}
		assert.Equal(t, []string{"echo", "hello"}, rec.Calls[len(rec.Calls)-1])
	})

	t.Run("empty command name", func(t *testing.T) {
		_, err := b.Build(Spec{Name: "  "})
		assert.Error(t, err)
	})
}

func TestIsNested(t *testing.T) {
	t.Setenv("SPAWN_TEST_MARKER", "1")
	assert.True(t, IsNested("SPAWN_TEST_MARKER"))
	assert.False(t, IsNested("SPAWN_TEST_MARKER_UNSET_XYZ"))
}

func TestWithNestedMarker(t *testing.T) {
	b := NewBuilder().WithNestedMarker("OTHER")
	assert.Equal(t, "OTHER", b.NestedMarker())
	assert.Equal(t, "OTHER", b.WithNestedMarker("").NestedMarker())
}
