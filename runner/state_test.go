package runner

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/grovetools/spawn/errors"
)

func testInvocation(req Request) *invocation {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return newInvocation(req, nil, logrus.NewEntry(log), nil, nil)
}

func TestTransitionChunkStartsRunning(t *testing.T) {
	inv := testInvocation(Request{Command: "echo"})
	assert.Equal(t, StateSpawned, inv.state)

	assert.False(t, inv.transition(event{kind: eventChunk, stream: streamStdout, data: []byte("a")}))
	assert.Equal(t, StateRunning, inv.state)
	assert.False(t, inv.transition(event{kind: eventChunk, stream: streamStderr, data: []byte("b")}))
	assert.Equal(t, "a", inv.stdout.String())
	assert.Equal(t, "b", inv.stderr.String())
}

func TestTransitionFirstDecisiveEventWins(t *testing.T) {
	inv := testInvocation(Request{Command: "sleep", Timeout: 50 * time.Millisecond})

	assert.True(t, inv.transition(event{kind: eventTimeout}))
	assert.Equal(t, StateTimedOut, inv.state)

	// Neither a later cancel nor the exit changes the outcome.
	assert.False(t, inv.transition(event{kind: eventCancel, cause: context.Canceled}))
	assert.False(t, inv.transition(event{kind: eventExit}))
	assert.Equal(t, StateTimedOut, inv.state)
	assert.True(t, errors.Is(inv.err, errors.ErrCodeCommandTimeout))
}

func TestTransitionCancel(t *testing.T) {
	inv := testInvocation(Request{Command: "sleep"})

	assert.True(t, inv.transition(event{kind: eventCancel, cause: context.DeadlineExceeded}))
	assert.Equal(t, StateFailed, inv.state)
	assert.True(t, errors.Is(inv.err, errors.ErrCodeCommandCanceled))
	assert.False(t, inv.transition(event{kind: eventTimeout}))
}

func TestTransitionIgnoredOutputIsNotBuffered(t *testing.T) {
	inv := testInvocation(Request{Command: "echo", OutputMode: OutputIgnored})
	inv.transition(event{kind: eventChunk, stream: streamStdout, data: []byte("x")})
	assert.Zero(t, inv.stdout.Len())
}

func TestExcerptPrefersStderrAndIsBounded(t *testing.T) {
	inv := testInvocation(Request{Command: "sh"})
	inv.stdout.WriteString("stdout text\n")
	assert.Equal(t, "stdout text", inv.excerpt())

	inv.stderr.WriteString("  \n")
	assert.Equal(t, "stdout text", inv.excerpt())

	for i := 0; i < maxExcerpt; i++ {
		inv.stderr.WriteByte('e')
	}
	inv.stderr.WriteString("END")
	excerpt := inv.excerpt()
	assert.True(t, len(excerpt) <= maxExcerpt+3)
	assert.Contains(t, excerpt, "END")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "timed_out", StateTimedOut.String())
	assert.Equal(t, "exited", StateExited.String())
	assert.True(t, StateFailed.settled())
	assert.False(t, StateRunning.settled())
}
