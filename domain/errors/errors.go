// Package errors provides the host's error taxonomy. Every error kind the
// core reports (NotFound, IO, Compile, Instantiation, ABI,
// MemoryLimitExceeded, Timeout, ExecutionError, Transport) is a distinct
// type implementing DetailedError so callers can recover the kind without
// string-matching the message.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// DetailedError is implemented by every error kind in this package. It
// lets the Request API and transport layer map any returned error to its
// taxonomy string without inspecting concrete types.
type DetailedError interface {
	error
	Kind() string
}

// Kind extracts the taxonomy string of err, or "Internal" if err does not
// implement DetailedError.
func Kind(err error) string {
	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.Kind()
	}
	return "Internal"
}

// NotFoundError reports an identifier absent from the registry.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("binary not found: %s", e.ID) }
func (e *NotFoundError) Kind() string  { return "NotFound" }

// IOError reports a file read/write failure at the filesystem boundary.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("io error for %q: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }
func (e *IOError) Kind() string  { return "IO" }

// CompileError reports bytes rejected by the WASM compiler.
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %q: %v", e.Path, e.Err)
}
func (e *CompileError) Unwrap() error { return e.Err }
func (e *CompileError) Kind() string  { return "Compile" }

// InstantiationError reports a module that compiles but fails to link.
type InstantiationError struct {
	BinaryID string
	Err      error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("failed to instantiate %s: %v", e.BinaryID, e.Err)
}
func (e *InstantiationError) Unwrap() error { return e.Err }
func (e *InstantiationError) Kind() string  { return "Instantiation" }

// ABIError reports a compiled module lacking the required memory or
// process export.
type ABIError struct {
	BinaryID string
	Reason   string
}

func (e *ABIError) Error() string { return fmt.Sprintf("abi violation for %s: %s", e.BinaryID, e.Reason) }
func (e *ABIError) Kind() string  { return "ABI" }

// MemoryLimitExceededError reports initial linear memory exceeding the
// caller's cap.
type MemoryLimitExceededError struct {
	BinaryID string
	SizeMB   int64
	LimitMB  int64
}

func (e *MemoryLimitExceededError) Error() string {
	return fmt.Sprintf("memory limit exceeded for %s: %d MB > %d MB", e.BinaryID, e.SizeMB, e.LimitMB)
}
func (e *MemoryLimitExceededError) Kind() string { return "MemoryLimitExceeded" }

// TimeoutError reports an exceeded wall-clock budget.
type TimeoutError struct {
	BinaryID  string
	TimeoutMS int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("execution of %s exceeded %dms", e.BinaryID, e.TimeoutMS)
}
func (e *TimeoutError) Timeout() bool { return true }
func (e *TimeoutError) Kind() string  { return "Timeout" }

// ExecutionError reports a guest trap, fuel exhaustion, invalid UTF-8 from log, or
// any other runtime fault inside the guest.
type ExecutionError struct {
	BinaryID string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of %s failed: %v", e.BinaryID, e.Err)
}
func (e *ExecutionError) Unwrap() error { return e.Err }
func (e *ExecutionError) Kind() string  { return "ExecutionError" }

// TransportError reports a framing or JSON parse error on the request channel.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Kind() string  { return "Transport" }
