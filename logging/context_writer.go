package logging

import (
	"context"
	"io"
	"os"
)

type contextKey string

const (
	stdoutWriterKey contextKey = "echo_stdout_writer"
	stderrWriterKey contextKey = "echo_stderr_writer"
)

// WithEchoWriters returns a context carrying the writers a child's output is
// echoed to. A nil writer leaves the default in place.
func WithEchoWriters(ctx context.Context, stdout, stderr io.Writer) context.Context {
	if stdout != nil {
		ctx = context.WithValue(ctx, stdoutWriterKey, stdout)
	}
	if stderr != nil {
		ctx = context.WithValue(ctx, stderrWriterKey, stderr)
	}
	return ctx
}

// StdoutWriter returns the echo writer for child stdout, defaulting to os.Stdout.
func StdoutWriter(ctx context.Context) io.Writer {
	if writer, ok := ctx.Value(stdoutWriterKey).(io.Writer); ok && writer != nil {
		return writer
	}
	return os.Stdout
}

// StderrWriter returns the echo writer for child stderr, defaulting to the
// global output.
func StderrWriter(ctx context.Context) io.Writer {
	if writer, ok := ctx.Value(stderrWriterKey).(io.Writer); ok && writer != nil {
		return writer
	}
	return GetGlobalOutput()
}
