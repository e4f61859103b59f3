package entities

import "time"

// TraceEventKind enumerates the lifecycle events the tracer records.
type TraceEventKind string

const (
	TraceLoadStart         TraceEventKind = "load_start"
	TraceLoadComplete      TraceEventKind = "load_complete"
	TraceLoadError         TraceEventKind = "load_error"
	TraceExecutionStart    TraceEventKind = "execution_start"
	TraceExecutionComplete TraceEventKind = "execution_complete"
	TraceExecutionError    TraceEventKind = "execution_error"
	TraceHostFunctionCall  TraceEventKind = "host_function_call"
	TraceChainComplete     TraceEventKind = "chain_complete"
)

// TraceEvent is a single timestamped event within an ExecutionTrace.
type TraceEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      TraceEventKind `json:"kind"`
	BinaryID  string         `json:"binary_id"`
	Message   string         `json:"message"`
}

// ExecutionTrace accumulates the events recorded for one host operation
// (a load, an execute, or an execute_chain step). It is diagnostic only;
// nothing in the core algorithms reads it back.
type ExecutionTrace struct {
	BinaryID  string       `json:"binary_id"`
	StartedAt time.Time    `json:"started_at"`
	Events    []TraceEvent `json:"events"`
	Success   bool         `json:"success"`
	Err       string       `json:"error,omitempty"`
}

// Duration returns how long the trace has been (or was) open.
func (t ExecutionTrace) Duration() time.Duration {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Timestamp.Sub(t.StartedAt)
}
