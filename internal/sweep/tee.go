package sweep

import (
	"io"
	"sync"

	"github.com/beholders/benchsweep/internal/monitoring"
)

// teeWriter duplicates writes to every sink in the order they were added.
// Unlike io.MultiWriter it keeps going when a sink fails: the failing sink
// is dropped with a warning and the others still receive the full stream.
type teeWriter struct {
	mu    sync.Mutex
	sinks []teeSink
}

type teeSink struct {
	name   string
	w      io.Writer
	failed bool
}

func newTee() *teeWriter {
	return &teeWriter{}
}

func (t *teeWriter) add(name string, w io.Writer) {
	if w == nil {
		return
	}
	t.sinks = append(t.sinks, teeSink{name: name, w: w})
}

// Write always reports success to the child's copier.
func (t *teeWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.sinks {
		s := &t.sinks[i]
		if s.failed {
			continue
		}
		n, err := s.w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			s.failed = true
			monitoring.Warnf("dropping %s output sink: %v", s.name, err)
		}
	}
	return len(p), nil
}

// failed reports whether the named sink has been dropped.
func (t *teeWriter) failed(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.sinks {
		if s.name == name {
			return s.failed
		}
	}
	return false
}
