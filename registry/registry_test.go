package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/wasmforge/pluginhost/domain/errors"
	"github.com/wasmforge/pluginhost/engine"
)

// emptyWASM is the smallest valid WASM module: magic + version, no
// sections. It has no exports, so it is only useful for exercising the
// registry's load/get/unload bookkeeping, never the executor.
var emptyWASM = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

func writeWASM(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, emptyWASM, 0o644))
	return path
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	ctx := context.Background()
	eng := engine.New(ctx)
	t.Cleanup(func() { _ = eng.Close(ctx) })

	snapshot := filepath.Join(t.TempDir(), "metadata.json")
	return New(eng, WithSnapshotPath(snapshot))
}

func TestLoadAssignsIDAndPersists(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")

	id, err := r.Load(context.Background(), path)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, r.Count())

	_, meta, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, path, meta.Path)
	assert.Equal(t, len(emptyWASM), meta.Size)
}

func TestLoadDedupesByExactPath(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")

	id1, err := r.Load(context.Background(), path)
	require.NoError(t, err)

	id2, err := r.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, r.Count())
}

func TestLoadTwoPathsAreDistinctEvenIfEquivalent(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")

	relative := "./" + filepath.Base(path)
	wd, _ := os.Getwd()
	_ = os.Chdir(dir)
	defer os.Chdir(wd)

	id1, err := r.Load(context.Background(), filepath.Base(path))
	require.NoError(t, err)
	id2, err := r.Load(context.Background(), relative)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2, "byte-exact path dedup must not canonicalize")
}

func TestLoadMissingFileIsIOError(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Load(context.Background(), filepath.Join(t.TempDir(), "missing.wasm"))
	require.Error(t, err)
	assert.Equal(t, "IO", rerrors.Kind(err))
	assert.Equal(t, 0, r.Count())
}

func TestGetUnknownIsNotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, _, err := r.Get("unknown")
	require.Error(t, err)
	assert.Equal(t, "NotFound", rerrors.Kind(err))
}

func TestUnloadRemovesAndPersists(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")

	id, err := r.Load(context.Background(), path)
	require.NoError(t, err)

	require.NoError(t, r.Unload(id))
	assert.Equal(t, 0, r.Count())

	_, _, err = r.Get(id)
	assert.Equal(t, "NotFound", rerrors.Kind(err))
}

func TestUnloadUnknownIsNotFound(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Unload("unknown")
	require.Error(t, err)
	assert.Equal(t, "NotFound", rerrors.Kind(err))
	assert.Equal(t, 0, r.Count())
}

func TestListReflectsLoadedEntries(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")

	id, err := r.Load(context.Background(), path)
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestFindByPath(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")

	id, err := r.Load(context.Background(), path)
	require.NoError(t, err)

	found, ok := r.FindByPath(path)
	require.True(t, ok)
	assert.Equal(t, id, found)

	_, ok = r.FindByPath("nope")
	assert.False(t, ok)
}

func TestRehydrateRestoresFromSnapshot(t *testing.T) {
	ctx := context.Background()
	eng := engine.New(ctx)
	defer eng.Close(ctx)

	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")
	snapshot := filepath.Join(dir, "metadata.json")

	r1 := New(eng, WithSnapshotPath(snapshot))
	id, err := r1.Load(ctx, path)
	require.NoError(t, err)

	r2 := New(eng, WithSnapshotPath(snapshot))
	require.NoError(t, r2.Rehydrate(ctx))

	assert.Equal(t, 1, r2.Count())
	_, meta, err := r2.Get(id)
	require.NoError(t, err)
	assert.Equal(t, path, meta.Path)
}

func TestRehydrateFailsFatallyOnMissingPath(t *testing.T) {
	ctx := context.Background()
	eng := engine.New(ctx)
	defer eng.Close(ctx)

	dir := t.TempDir()
	path := writeWASM(t, dir, "a.wasm")
	snapshot := filepath.Join(dir, "metadata.json")

	r1 := New(eng, WithSnapshotPath(snapshot))
	_, err := r1.Load(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	r2 := New(eng, WithSnapshotPath(snapshot))
	err = r2.Rehydrate(ctx)
	assert.Error(t, err)
}

func TestRehydrateMissingSnapshotReturnsError(t *testing.T) {
	ctx := context.Background()
	eng := engine.New(ctx)
	defer eng.Close(ctx)

	r := New(eng, WithSnapshotPath(filepath.Join(t.TempDir(), "metadata.json")))
	err := r.Rehydrate(ctx)
	assert.Error(t, err, "caller is expected to log this as a warning and keep an empty registry")
	assert.Equal(t, 0, r.Count())
}
