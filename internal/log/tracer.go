package log

import (
	"fmt"
	"io"
	"sync"
)

// EvalTracer writes one line per evaluated manifest statement.
type EvalTracer interface {
	Trace(pos string, stmt string)
}

// evalTracer implements EvalTracer with thread-safe output.
type evalTracer struct {
	w  io.Writer
	mu sync.Mutex
	n  int
}

// NewTracer creates a new EvalTracer. If writer is nil, returns a no-op tracer.
func NewTracer(w io.Writer) EvalTracer {
	return &evalTracer{w: w}
}

// Trace emits "<seq> <file>:<line> <stmt>". The sequence number counts
// statements across all manifests of the run.
func (t *evalTracer) Trace(pos string, stmt string) {
	if t.w == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	_, _ = fmt.Fprintf(t.w, "%6d %s %s\n", t.n, pos, stmt)
}
