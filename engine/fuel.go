package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

// FuelBudget is a per-call counter approximating a native fuel meter,
// which wazero does not provide. Every guest function-call boundary
// (host calls and internal calls alike, since the compile-time listener
// instruments both) costs CostPerCall units; when the budget reaches
// zero the call's context is cancelled, which CloseOnContextDone turns
// into an aborted instance, surfacing to the caller the same way a
// genuine fuel trap would.
//
// Call-boundary charging alone is blind to a guest that loops without
// ever calling out, and such a guest must still exhaust fuel rather
// than ride the budget all the way to the wall-clock deadline.
// StallWatch closes that gap: it ticks down the same budget on a fixed
// wall-clock cadence set to exhaust before the call's hard deadline, so
// a guest that never yields still
// hits fuel exhaustion first instead of surfacing as a plain Timeout. A
// guest that does make calls is charged by both paths against the same
// counter. With the fuel limit at timeout_ms * CostPerCall, the tick
// interval is timeout * stallMargin / timeout_ms, i.e. 0.9ms whatever
// the timeout, so any call lasting longer than that also has ticks
// counted in its consumed fuel.
type FuelBudget struct {
	remaining atomic.Int64
	cancel    context.CancelFunc
}

// NewFuelBudget returns a budget of limit units that invokes cancel
// when exhausted.
func NewFuelBudget(limit uint64, cancel context.CancelFunc) *FuelBudget {
	b := &FuelBudget{cancel: cancel}
	b.remaining.Store(int64(limit))
	return b
}

// CostPerCall is the fuel unit charged at every instrumented call
// boundary and at every StallWatch tick.
const CostPerCall = 1_000_000

// stallMargin is the fraction of the wall-clock budget StallWatch spends
// ticking the counter to zero, so fuel exhaustion always beats the real
// deadline (set by the caller's context) by a comfortable margin.
const stallMargin = 0.9

func (b *FuelBudget) consume() {
	if b.remaining.Add(-CostPerCall) <= 0 {
		b.cancel()
	}
}

// StallWatch charges the budget on a fixed cadence for the lifetime of
// ctx, so a guest that never calls the host still exhausts its fuel
// within stallMargin of timeout before ctx's own deadline would fire.
// ticks is the number of units the configured fuel limit represents
// (limit / CostPerCall); with ticks == 0 there is nothing to schedule.
func (b *FuelBudget) StallWatch(ctx context.Context, timeout time.Duration, ticks uint64) {
	if ticks == 0 {
		return
	}
	interval := time.Duration(float64(timeout) * stallMargin / float64(ticks))
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.consume()
			}
		}
	}()
}

// Consumed returns how much of the original budget has been spent,
// clamped to the configured limit.
func (b *FuelBudget) Consumed(limit uint64) uint64 {
	r := b.remaining.Load()
	if r < 0 {
		return limit
	}
	return limit - uint64(r)
}

type fuelBudgetKey struct{}

// WithFuelBudget attaches b to ctx so the compile-time fuel listener can
// find the right per-call budget to charge. Calls made with a context
// carrying no budget are not metered.
func WithFuelBudget(ctx context.Context, b *FuelBudget) context.Context {
	return context.WithValue(ctx, fuelBudgetKey{}, b)
}

func fuelBudgetFromContext(ctx context.Context) *FuelBudget {
	b, _ := ctx.Value(fuelBudgetKey{}).(*FuelBudget)
	return b
}

// fuelListenerFactory is installed on the compile context by
// Engine.Compile; wazero instruments every function of the compiled
// module with the listener it returns.
type fuelListenerFactory struct{}

func (fuelListenerFactory) NewFunctionListener(api.FunctionDefinition) experimental.FunctionListener {
	return fuelListener{}
}

type fuelListener struct{}

func (fuelListener) Before(ctx context.Context, _ api.Module, _ api.FunctionDefinition, _ []uint64, _ experimental.StackIterator) {
	if b := fuelBudgetFromContext(ctx); b != nil {
		b.consume()
	}
}

func (fuelListener) After(context.Context, api.Module, api.FunctionDefinition, []uint64) {}

func (fuelListener) Abort(context.Context, api.Module, api.FunctionDefinition, error) {}
