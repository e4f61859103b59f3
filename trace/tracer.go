// Package trace implements a bounded, diagnostic-only execution tracer:
// a ring buffer of the most recent load/execute/chain lifecycle events,
// queryable by binary id. Nothing in the core registry/executor/chain
// algorithms consults it; disabling it changes no observable behavior
// besides the get_trace request operation.
package trace

import (
	"sync"
	"time"

	"github.com/wasmforge/pluginhost/domain/entities"
)

// Tracer retains at most maxTraces completed ExecutionTraces, oldest
// evicted first.
type Tracer struct {
	mu        sync.Mutex
	traces    []entities.ExecutionTrace
	maxTraces int
	enabled   bool
}

// New returns a Tracer. When enabled is false, Start returns nil and all
// other methods are no-ops; this is the zero-cost path for production
// deployments that don't want tracing overhead.
func New(enabled bool, maxTraces int) *Tracer {
	return &Tracer{enabled: enabled, maxTraces: maxTraces}
}

// Enabled reports whether tracing is active.
func (t *Tracer) Enabled() bool {
	return t.enabled
}

// Recorder accumulates events for a single in-flight operation.
type Recorder struct {
	tracer    *Tracer
	binaryID  string
	startedAt time.Time
	events    []entities.TraceEvent
}

// Start begins a new trace for binaryID, or returns nil if tracing is
// disabled. Callers must treat a nil Recorder as a safe no-op (its
// methods tolerate a nil receiver).
func (t *Tracer) Start(binaryID string) *Recorder {
	if t == nil || !t.enabled {
		return nil
	}
	return &Recorder{tracer: t, binaryID: binaryID, startedAt: time.Now()}
}

// Event appends a lifecycle event to the recorder.
func (r *Recorder) Event(kind entities.TraceEventKind, message string) {
	if r == nil {
		return
	}
	r.events = append(r.events, entities.TraceEvent{
		Timestamp: time.Now(),
		Kind:      kind,
		BinaryID:  r.binaryID,
		Message:   message,
	})
}

// Complete closes the trace and files it into the tracer's ring buffer.
func (r *Recorder) Complete(success bool, err error) {
	if r == nil {
		return
	}
	trace := entities.ExecutionTrace{
		BinaryID:  r.binaryID,
		StartedAt: r.startedAt,
		Events:    r.events,
		Success:   success,
	}
	if err != nil {
		trace.Err = err.Error()
	}
	r.tracer.file(trace)
}

func (t *Tracer) file(trace entities.ExecutionTrace) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxTraces > 0 && len(t.traces) >= t.maxTraces {
		t.traces = t.traces[1:]
	}
	t.traces = append(t.traces, trace)
}

// GetTrace returns the most recent trace recorded for binaryID.
func (t *Tracer) GetTrace(binaryID string) (entities.ExecutionTrace, bool) {
	if t == nil {
		return entities.ExecutionTrace{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.traces) - 1; i >= 0; i-- {
		if t.traces[i].BinaryID == binaryID {
			return t.traces[i], true
		}
	}
	return entities.ExecutionTrace{}, false
}

// All returns a snapshot of every retained trace, oldest first.
func (t *Tracer) All() []entities.ExecutionTrace {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]entities.ExecutionTrace, len(t.traces))
	copy(out, t.traces)
	return out
}
