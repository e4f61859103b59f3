package hostabi

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// ProcessExportName and MemoryExportName are the guest export names every
// plugin must provide.
const (
	ProcessExportName = "process"
	MemoryExportName  = "memory"
)

const bytesPerPage = 64 * 1024

// MemoryMB converts a page count (wazero reports guest memory size in
// 64KiB pages) to MiB.
func MemoryMB(pages uint32) int64 {
	return int64(pages) * bytesPerPage / (1024 * 1024)
}

// WriteInputAndEnv writes input at offset 0 and env immediately after, at
// offset len(input). There is no allocator handshake: the host assumes
// the guest has left this region unused.
func WriteInputAndEnv(mem api.Memory, input, env []byte) error {
	if !mem.Write(0, input) {
		return fmt.Errorf("failed to write input (%d bytes) at offset 0", len(input))
	}
	if !mem.Write(uint32(len(input)), env) {
		return fmt.Errorf("failed to write env (%d bytes) at offset %d", len(env), len(input))
	}
	return nil
}

// ResolveProcess looks up the guest's `process` export and checks its
// signature matches (i32, i32, i32, i32) -> i32.
func ResolveProcess(mod api.Module) (api.Function, error) {
	fn := mod.ExportedFunction(ProcessExportName)
	if fn == nil {
		return nil, fmt.Errorf("missing export %q", ProcessExportName)
	}
	def := fn.Definition()
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != 4 || len(results) != 1 {
		return nil, fmt.Errorf("export %q has the wrong arity", ProcessExportName)
	}
	for _, p := range params {
		if p != api.ValueTypeI32 {
			return nil, fmt.Errorf("export %q must take four i32 arguments", ProcessExportName)
		}
	}
	if results[0] != api.ValueTypeI32 {
		return nil, fmt.Errorf("export %q must return an i32", ProcessExportName)
	}
	return fn, nil
}
