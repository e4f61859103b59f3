// Package engine owns the process-wide WASM runtime. It wraps
// tetratelabs/wazero to produce compiled, reusable modules, instruments
// every compiled function with the fuel listener, and configures the
// context-cancellation hook the executor relies on for wall-clock
// timeout enforcement.
package engine
