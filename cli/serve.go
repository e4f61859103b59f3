package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wasmforge/pluginhost/api"
	"github.com/wasmforge/pluginhost/chain"
	rerrors "github.com/wasmforge/pluginhost/domain/errors"
	"github.com/wasmforge/pluginhost/engine"
	"github.com/wasmforge/pluginhost/executor"
	"github.com/wasmforge/pluginhost/registry"
	"github.com/wasmforge/pluginhost/trace"
	"github.com/wasmforge/pluginhost/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the plugin host daemon",
	Long: `Start the daemon: build the WASM engine, rehydrate the binary
registry from its metadata snapshot, and listen for requests on the
configured Unix domain socket until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	setLogLevel(cfg.Core.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(ctx)
	defer eng.Close(ctx)

	tracer := trace.New(cfg.Trace.Enabled, cfg.Trace.MaxTraces)

	reg := registry.New(eng, registry.WithSnapshotPath(cfg.Core.MetadataPath), registry.WithTracer(tracer))
	if err := reg.Rehydrate(ctx); err != nil {
		if isSnapshotMissing(err) {
			slog.Warn("no metadata snapshot found, starting with an empty registry", "path", cfg.Core.MetadataPath, "error", err)
		} else {
			return err
		}
	}

	exec, err := executor.New(ctx, eng, reg, tracer)
	if err != nil {
		return err
	}
	chainExec := chain.New(exec, tracer)
	a := api.New(reg, exec, chainExec, tracer)

	srv := transport.New(a, cfg.Core.SocketPath)
	slog.Info("pluginhost daemon starting", "socket", cfg.Core.SocketPath, "binaries", reg.Count())
	return srv.Serve(ctx)
}

// isSnapshotMissing reports whether err came from failing to read or
// decode the snapshot file itself, which means a fresh-empty-registry
// startup rather than a fatal error. A record whose path no longer
// exists instead surfaces as a taxonomy IOError from Rehydrate's
// per-record recompile and remains fatal for the whole snapshot.
func isSnapshotMissing(err error) bool {
	return rerrors.Kind(err) == "Internal"
}

func setLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
