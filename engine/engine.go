package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/experimental"
)

// Engine is the process-wide WASM runtime. One Engine is created at
// startup and shared by every registry and executor operation; it is
// torn down with the process.
type Engine struct {
	runtime wazero.Runtime
}

// New builds the process-wide engine. CloseOnContextDone lets the
// executor preempt a runaway guest call by cancelling the context it
// passed into the call, which is how wall-clock timeout enforcement
// cooperates with the runtime's suspension points.
func New(ctx context.Context) *Engine {
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	return &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, cfg)}
}

// Runtime exposes the underlying wazero runtime for host-module
// registration and instantiation. Shared freely; the runtime itself is
// safe for concurrent use once host functions are registered.
func (e *Engine) Runtime() wazero.Runtime {
	return e.runtime
}

// Compile turns raw WASM bytes into a reusable CompiledModule. The
// returned value can be instantiated into independent stores many times
// without re-parsing. The fuel listener is bound here, because wazero
// reads the listener factory from the compile context, not the call
// context; every function of the compiled module is instrumented once,
// and which budget a given call charges is decided per call via
// WithFuelBudget.
func (e *Engine) Compile(ctx context.Context, wasmBytes []byte) (wazero.CompiledModule, error) {
	ctx = experimental.WithFunctionListenerFactory(ctx, fuelListenerFactory{})
	mod, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return mod, nil
}

// Close tears down the runtime and every compiled module still attached
// to it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
