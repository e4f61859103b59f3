package chain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmforge/pluginhost/domain/entities"
	"github.com/wasmforge/pluginhost/engine"
	"github.com/wasmforge/pluginhost/executor"
	"github.com/wasmforge/pluginhost/registry"
)

// ---- hand-assembled WASM fixtures --------------------------------------
//
// Duplicated from executor's own fixture builders (package-local, same as
// the rest of this codebase's per-file test fixtures) since there's no
// wasip1 toolchain available to compile real plugin binaries here.

const i32 = 0x7F

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

func uleb128(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func sleb128(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			break
		}
	}
	return out
}

func section(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint64(len(content)))...)
	return append(out, content...)
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, uleb128(uint64(len(params)))...)
	out = append(out, params...)
	out = append(out, uleb128(uint64(len(results)))...)
	return append(out, results...)
}

func typeSection(types ...[]byte) []byte {
	content := uleb128(uint64(len(types)))
	for _, t := range types {
		content = append(content, t...)
	}
	return section(0x01, content)
}

func importEntry(module, field string, typeIdx uint32) []byte {
	out := uleb128(uint64(len(module)))
	out = append(out, module...)
	out = append(out, uleb128(uint64(len(field)))...)
	out = append(out, field...)
	out = append(out, 0x00) // kind: func
	return append(out, uleb128(uint64(typeIdx))...)
}

func importSection(entries ...[]byte) []byte {
	content := uleb128(uint64(len(entries)))
	for _, e := range entries {
		content = append(content, e...)
	}
	return section(0x02, content)
}

func functionSection(typeIdxs ...uint32) []byte {
	content := uleb128(uint64(len(typeIdxs)))
	for _, idx := range typeIdxs {
		content = append(content, uleb128(uint64(idx))...)
	}
	return section(0x03, content)
}

func memorySection(minPages uint32) []byte {
	content := []byte{0x01, 0x00}
	content = append(content, uleb128(uint64(minPages))...)
	return section(0x05, content)
}

func exportEntry(name string, kind byte, idx uint32) []byte {
	out := uleb128(uint64(len(name)))
	out = append(out, name...)
	out = append(out, kind)
	return append(out, uleb128(uint64(idx))...)
}

func exportSection(entries ...[]byte) []byte {
	content := uleb128(uint64(len(entries)))
	for _, e := range entries {
		content = append(content, e...)
	}
	return section(0x07, content)
}

func codeSection(bodies ...[]byte) []byte {
	content := uleb128(uint64(len(bodies)))
	for _, b := range bodies {
		content = append(content, uleb128(uint64(len(b)))...)
		content = append(content, b...)
	}
	return section(0x0A, content)
}

func dataSegment(offset uint32, data []byte) []byte {
	out := []byte{0x00, 0x41}
	out = append(out, sleb128(int64(offset))...)
	out = append(out, 0x0B)
	out = append(out, uleb128(uint64(len(data)))...)
	return append(out, data...)
}

func dataSection(segments ...[]byte) []byte {
	content := uleb128(uint64(len(segments)))
	for _, s := range segments {
		content = append(content, s...)
	}
	return section(0x0B, content)
}

func assembleModule(sections ...[]byte) []byte {
	out := append([]byte{}, wasmHeader...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// newLoggingModule builds a module that imports host.log, exports
// memory and process, and logs message once before returning 0.
func newLoggingModule(message string) []byte {
	const dataOffset = 256
	logType := funcType([]byte{i32, i32}, nil)
	processType := funcType([]byte{i32, i32, i32, i32}, []byte{i32})

	body := []byte{0x00}
	body = append(body, 0x41)
	body = append(body, sleb128(dataOffset)...)
	body = append(body, 0x41)
	body = append(body, sleb128(int64(len(message)))...)
	body = append(body, 0x10, 0x00)
	body = append(body, 0x41)
	body = append(body, sleb128(0)...)
	body = append(body, 0x0B)

	return assembleModule(
		typeSection(logType, processType),
		importSection(importEntry("host", "log", 0)),
		functionSection(1),
		memorySection(2),
		exportSection(
			exportEntry("memory", 0x02, 0),
			exportEntry("process", 0x00, 1),
		),
		codeSection(body),
		dataSection(dataSegment(dataOffset, []byte(message))),
	)
}

// newMemoryOnlyModule exports memory of minPages and nothing else,
// enough to miss the required process export and trigger an ABI error.
func newMemoryOnlyModule(minPages uint32) []byte {
	return assembleModule(
		memorySection(minPages),
		exportSection(exportEntry("memory", 0x02, 0)),
	)
}

func newChainForTest(t *testing.T) (*Executor, *registry.Registry) {
	t.Helper()
	ctx := context.Background()
	eng := engine.New(ctx)
	t.Cleanup(func() { _ = eng.Close(ctx) })

	reg := registry.New(eng, registry.WithSnapshotPath(filepath.Join(t.TempDir(), "metadata.json")))
	exec, err := executor.New(ctx, eng, reg, nil)
	require.NoError(t, err)
	return New(exec, nil), reg
}

func loadModule(t *testing.T, reg *registry.Registry, name string, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	id, err := reg.Load(context.Background(), path)
	require.NoError(t, err)
	return id
}

func TestRunReturnsEachStepResultInOrder(t *testing.T) {
	c, reg := newChainForTest(t)

	id1 := loadModule(t, reg, "a.wasm", newLoggingModule("Result = 42"))
	id2 := loadModule(t, reg, "b.wasm", newLoggingModule("Result = 43"))

	cfg := entities.ExecutionConfig{}.WithDefaults()
	results, err := c.Run(context.Background(), []string{id1, id2}, "seed", cfg)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Result = 42", results[0].Output)
	assert.Equal(t, "Result = 43", results[1].Output)
}

func TestRunStopsOnFirstErrorWithNoPartialResults(t *testing.T) {
	c, reg := newChainForTest(t)

	id1 := loadModule(t, reg, "a.wasm", newLoggingModule("Result = 1"))
	id2 := loadModule(t, reg, "b.wasm", newMemoryOnlyModule(1)) // missing process export

	cfg := entities.ExecutionConfig{}.WithDefaults()
	results, err := c.Run(context.Background(), []string{id1, id2}, "seed", cfg)
	require.Error(t, err)
	assert.Nil(t, results)
}

func TestExtractResult(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   string
	}{
		{"empty output", "", ""},
		{"marker with no following line", "Result = ", ""},
		{"marker with same-line text", "Result = 42", "42"},
		{"marker with following line", "Result = \nfoo", "foo"},
		{"marker with blank following lines then value", "Result = \n\n  \nbar", "bar"},
		{"marker prefers next line over same-line text", "Result = 42\nfoo", "foo"},
		{"no marker, last non-empty line", "line one\nline two\n", "line two"},
		{"no marker, trailing blank lines", "line one\n\n\n", "line one"},
		{"degenerate marker takes next raw line verbatim", "Result = \nResult = 7", "Result = 7"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractResult(tc.output))
		})
	}
}
