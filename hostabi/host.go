package hostabi

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmforge/pluginhost/domain/entities"
	"github.com/wasmforge/pluginhost/trace"
)

// HostModuleName is the import module every plugin's `log` function
// belongs to.
const HostModuleName = "host"

type logBufferKey struct{}

// WithLogBuffer attaches buf to ctx so the shared host module's log
// function can find the right per-call buffer to append to.
func WithLogBuffer(ctx context.Context, buf *LogBuffer) context.Context {
	return context.WithValue(ctx, logBufferKey{}, buf)
}

func logBufferFromContext(ctx context.Context) *LogBuffer {
	buf, _ := ctx.Value(logBufferKey{}).(*LogBuffer)
	return buf
}

type recorderKey struct{}

// WithRecorder attaches rec to ctx so the shared host module's log
// function can file a HostFunctionCall trace event per invocation. rec
// may be nil (tracing disabled); Recorder's methods already tolerate a
// nil receiver.
func WithRecorder(ctx context.Context, rec *trace.Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, rec)
}

func recorderFromContext(ctx context.Context) *trace.Recorder {
	rec, _ := ctx.Value(recorderKey{}).(*trace.Recorder)
	return rec
}

// Register instantiates the `host` module exposing `log(i32, i32) -> ()`
// against the given runtime. It is instantiated once, process-wide; the
// per-call log buffer it appends to is threaded through the context
// passed to each guest invocation (see WithLogBuffer).
func Register(ctx context.Context, runtime wazero.Runtime) error {
	_, err := runtime.NewHostModuleBuilder(HostModuleName).
		NewFunctionBuilder().
		WithFunc(logImport).
		Export("log").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("register host module: %w", err)
	}
	return nil
}

// logImport copies len bytes starting at ptr from the caller's linear
// memory, validates UTF-8, and appends the string to the call's log
// buffer. Invalid UTF-8 traps the guest.
func logImport(ctx context.Context, mod api.Module, ptr, length uint32) {
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		panic(fmt.Sprintf("host.log: out of range read at %d (len %d)", ptr, length))
	}
	if !utf8.Valid(data) {
		panic("host.log: invalid UTF-8 in logged data")
	}
	buf := logBufferFromContext(ctx)
	if buf == nil {
		return
	}
	buf.Append(string(data))

	recorderFromContext(ctx).Event(entities.TraceHostFunctionCall, string(data))
}
