// Package executor implements the per-call sandbox: it builds a fresh
// store, sets a fuel budget, instantiates the resolved binary, checks
// its initial memory against the caller's cap, writes input and
// environment, invokes `process`, and races the call against a
// wall-clock timeout.
package executor

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero"

	"github.com/wasmforge/pluginhost/domain/entities"
	rerrors "github.com/wasmforge/pluginhost/domain/errors"
	"github.com/wasmforge/pluginhost/engine"
	"github.com/wasmforge/pluginhost/hostabi"
	"github.com/wasmforge/pluginhost/registry"
	"github.com/wasmforge/pluginhost/trace"
)

// Executor runs single calls against binaries resolved from a Registry.
type Executor struct {
	engine   *engine.Engine
	registry *registry.Registry
	tracer   *trace.Tracer
}

// New wires an Executor to eng and reg, registering the shared `host.log`
// import on eng's runtime. Call once per process; the returned Executor
// is safe for concurrent use by many callers.
func New(ctx context.Context, eng *engine.Engine, reg *registry.Registry, tracer *trace.Tracer) (*Executor, error) {
	if err := hostabi.Register(ctx, eng.Runtime()); err != nil {
		return nil, err
	}
	return &Executor{engine: eng, registry: reg, tracer: tracer}, nil
}

// Execute runs binaryID with input under cfg.
func (e *Executor) Execute(ctx context.Context, binaryID string, input string, cfg entities.ExecutionConfig) (entities.ExecutionResult, error) {
	started := time.Now()
	rec := e.tracer.Start(binaryID)
	rec.Event(entities.TraceExecutionStart, "begin")

	// Resolve the binary.
	compiled, _, err := e.registry.Get(binaryID)
	if err != nil {
		rec.Event(entities.TraceExecutionError, err.Error())
		rec.Complete(false, err)
		return entities.ExecutionResult{}, err
	}

	// Fresh store with an empty log buffer.
	logBuf := hostabi.NewLogBuffer()

	// Fuel budget, coupled to the configured timeout. Fuel exhaustion and
	// the wall-clock deadline are enforced independently; either is
	// terminal.
	fuelLimit := cfg.FuelLimit()

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	budget := engine.NewFuelBudget(fuelLimit, cancel)
	budget.StallWatch(callCtx, timeout, fuelLimit/engine.CostPerCall)
	callCtx = engine.WithFuelBudget(callCtx, budget)
	callCtx = hostabi.WithLogBuffer(callCtx, logBuf)
	callCtx = hostabi.WithRecorder(callCtx, rec)

	// Instantiate into a fresh module instance (the store). The `host.log`
	// import was registered once, process-wide, by New; wazero resolves it
	// by name here. The runtime holds a single module named "host", so a
	// second registration under that name fails instead of replacing it.
	moduleConfig := wazero.NewModuleConfig().WithName("")
	instance, err := e.engine.Runtime().InstantiateModule(callCtx, compiled, moduleConfig)
	if err != nil {
		instErr := &rerrors.InstantiationError{BinaryID: binaryID, Err: err}
		rec.Event(entities.TraceExecutionError, instErr.Error())
		rec.Complete(false, instErr)
		return entities.ExecutionResult{}, instErr
	}
	defer instance.Close(ctx)

	// Resolve the guest's exported memory. ExportedMemory returns a plain
	// nil when no memory is exported under that name.
	mem := instance.ExportedMemory(hostabi.MemoryExportName)
	if mem == nil {
		abiErr := &rerrors.ABIError{BinaryID: binaryID, Reason: "must export memory"}
		rec.Event(entities.TraceExecutionError, abiErr.Error())
		rec.Complete(false, abiErr)
		return entities.ExecutionResult{}, abiErr
	}

	// Initial memory cap check, before `process` is invoked. Growth during
	// execution is intentionally not re-checked; only the initial size
	// counts against the cap.
	sizeMB := hostabi.MemoryMB(mem.Size() / (64 * 1024))
	if sizeMB > cfg.MemoryLimitMB {
		memErr := &rerrors.MemoryLimitExceededError{BinaryID: binaryID, SizeMB: sizeMB, LimitMB: cfg.MemoryLimitMB}
		rec.Event(entities.TraceExecutionError, memErr.Error())
		rec.Complete(false, memErr)
		return entities.ExecutionResult{}, memErr
	}

	// Write input at offset 0, env JSON immediately after.
	inputBytes := []byte(input)
	envBytes, err := hostabi.EnvJSON()
	if err != nil {
		execErr := &rerrors.ExecutionError{BinaryID: binaryID, Err: err}
		rec.Event(entities.TraceExecutionError, execErr.Error())
		rec.Complete(false, execErr)
		return entities.ExecutionResult{}, execErr
	}
	if err := hostabi.WriteInputAndEnv(mem, inputBytes, envBytes); err != nil {
		execErr := &rerrors.ExecutionError{BinaryID: binaryID, Err: err}
		rec.Event(entities.TraceExecutionError, execErr.Error())
		rec.Complete(false, execErr)
		return entities.ExecutionResult{}, execErr
	}

	// Resolve `process` with the required signature.
	processFn, err := hostabi.ResolveProcess(instance)
	if err != nil {
		abiErr := &rerrors.ABIError{BinaryID: binaryID, Reason: err.Error()}
		rec.Event(entities.TraceExecutionError, abiErr.Error())
		rec.Complete(false, abiErr)
		return entities.ExecutionResult{}, abiErr
	}

	// Invoke, racing the wall-clock timeout (enforced by callCtx's
	// deadline plus the engine's WithCloseOnContextDone).
	inputLen := int32(len(inputBytes))
	results, callErr := processFn.Call(callCtx,
		0,
		uint64(uint32(inputLen)),
		uint64(uint32(inputLen)),
		uint64(uint32(len(envBytes))),
	)
	elapsed := time.Since(started)

	if callErr != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			timeoutErr := &rerrors.TimeoutError{BinaryID: binaryID, TimeoutMS: cfg.TimeoutMS}
			rec.Event(entities.TraceExecutionError, timeoutErr.Error())
			rec.Complete(false, timeoutErr)
			return entities.ExecutionResult{}, timeoutErr
		}
		execErr := &rerrors.ExecutionError{BinaryID: binaryID, Err: callErr}
		rec.Event(entities.TraceExecutionError, execErr.Error())
		rec.Complete(false, execErr)
		return entities.ExecutionResult{}, execErr
	}

	result := entities.ExecutionResult{
		BinaryID:        binaryID,
		ReturnCode:      int32(results[0]),
		Output:          logBuf.Join(),
		ExecutionTimeMS: elapsed.Milliseconds(),
		FuelConsumed:    budget.Consumed(fuelLimit),
	}
	rec.Event(entities.TraceExecutionComplete, "ok")
	rec.Complete(true, nil)
	return result, nil
}
