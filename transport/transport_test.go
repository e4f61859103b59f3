package transport_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmforge/pluginhost/api"
	"github.com/wasmforge/pluginhost/chain"
	"github.com/wasmforge/pluginhost/engine"
	"github.com/wasmforge/pluginhost/executor"
	"github.com/wasmforge/pluginhost/registry"
	"github.com/wasmforge/pluginhost/trace"
	"github.com/wasmforge/pluginhost/transport"
)

// emptyWASM is the smallest valid module: magic + version, no sections.
// It has no exports, so Execute against it reaches the host's ABI check
// and fails there, which is enough to exercise the wire error path
// without a real process-exporting plugin.
var emptyWASM = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

func startDaemon(t *testing.T) (*transport.Client, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	eng := engine.New(ctx)
	tracer := trace.New(true, 64)
	reg := registry.New(eng, registry.WithSnapshotPath(filepath.Join(t.TempDir(), "metadata.json")), registry.WithTracer(tracer))

	exec, err := executor.New(ctx, eng, reg, tracer)
	require.NoError(t, err)
	chainExec := chain.New(exec, tracer)
	a := api.New(reg, exec, chainExec, tracer)

	socket := filepath.Join(t.TempDir(), "pluginhost.sock")
	srv := transport.New(a, socket)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(socket)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	client := transport.NewClient(socket)
	require.NoError(t, client.Connect())

	cleanup := func() {
		client.Close()
		cancel()
		eng.Close(context.Background())
		<-done
	}
	return client, cleanup
}

func writeWASM(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugin.wasm")
	require.NoError(t, os.WriteFile(path, emptyWASM, 0o644))
	return path
}

func TestLoadListUnloadRoundTrip(t *testing.T) {
	client, cleanup := startDaemon(t)
	defer cleanup()

	path := writeWASM(t)
	loaded, err := client.LoadBinary(path)
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.ID)
	assert.Equal(t, len(emptyWASM), loaded.Size)

	list, err := client.ListBinaries()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, loaded.ID, list[0].ID)

	msg, err := client.UnloadBinary(loaded.ID)
	require.NoError(t, err)
	assert.Contains(t, msg, loaded.ID)

	list, err = client.ListBinaries()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecuteUnknownBinaryReturnsBusinessErrorWithoutClosingConnection(t *testing.T) {
	client, cleanup := startDaemon(t)
	defer cleanup()

	_, err := client.Execute("does-not-exist", "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	// The connection must still be usable after a business error.
	list, err := client.ListBinaries()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecuteMissingExportsSurfacesABIError(t *testing.T) {
	client, cleanup := startDaemon(t)
	defer cleanup()

	path := writeWASM(t)
	loaded, err := client.LoadBinary(path)
	require.NoError(t, err)

	_, err = client.Execute(loaded.ID, "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory")
}

func TestUnloadUnknownBinaryIsNotFound(t *testing.T) {
	client, cleanup := startDaemon(t)
	defer cleanup()

	_, err := client.UnloadBinary("unknown")
	require.Error(t, err)
}
