package logging

import (
	"io"
	"os"
	"sync"
)

// swapWriter forwards writes to a replaceable destination. Loggers and echo
// writers hold the swapWriter, so redirecting it affects them all at once.
type swapWriter struct {
	mu  sync.RWMutex
	dst io.Writer
}

func (s *swapWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dst.Write(p)
}

func (s *swapWriter) swap(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.dst
	s.dst = w
	return prev
}

var stderrOutput = &swapWriter{dst: os.Stderr}

// SetGlobalOutput redirects structured logs and the default stderr echo,
// returning the previous destination.
func SetGlobalOutput(w io.Writer) io.Writer {
	if w == nil {
		w = io.Discard
	}
	return stderrOutput.swap(w)
}

// GetGlobalOutput returns the shared stderr writer.
func GetGlobalOutput() io.Writer {
	return stderrOutput
}
