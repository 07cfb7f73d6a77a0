package sessionlog

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ErrorReporter receives failures of the logging side channel. Report must
// not block.
type ErrorReporter interface {
	Report(err error)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(err error)

// Report calls f(err).
func (f ReporterFunc) Report(err error) {
	f(err)
}

// LogReporter reports failures as warnings on a logrus entry.
func LogReporter(logger *logrus.Entry) ErrorReporter {
	return ReporterFunc(func(err error) {
		logger.WithError(err).Warn("Session log write failed")
	})
}

// Diagnostics is a bounded channel of logging failures. When the buffer is
// full new failures are dropped and counted instead of blocking the writer.
type Diagnostics struct {
	ch      chan error
	dropped atomic.Int64
}

// NewDiagnostics creates a Diagnostics buffering up to capacity failures.
func NewDiagnostics(capacity int) *Diagnostics {
	if capacity <= 0 {
		capacity = 1
	}
	return &Diagnostics{ch: make(chan error, capacity)}
}

// Report enqueues err, or drops it when the buffer is full.
func (d *Diagnostics) Report(err error) {
	select {
	case d.ch <- err:
	default:
		d.dropped.Add(1)
	}
}

// C returns the channel failures are delivered on.
func (d *Diagnostics) C() <-chan error {
	return d.ch
}

// Dropped returns how many failures were discarded.
func (d *Diagnostics) Dropped() int64 {
	return d.dropped.Load()
}
