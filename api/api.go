// Package api implements the request operations exposing the core to
// external callers: load, execute, execute-chain, list, unload, plus the
// diagnostic get_trace. Every operation returns either a success value
// or an error; callers decide how to render that as a wire response (see
// package transport).
package api

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wasmforge/pluginhost/chain"
	"github.com/wasmforge/pluginhost/domain/entities"
	"github.com/wasmforge/pluginhost/executor"
	"github.com/wasmforge/pluginhost/registry"
	"github.com/wasmforge/pluginhost/trace"
)

// API wires the registry, executor, and chain executor behind the five
// request operations, and the tracer behind the diagnostic GetTrace.
type API struct {
	registry *registry.Registry
	executor *executor.Executor
	chain    *chain.Executor
	tracer   *trace.Tracer
	validate *validator.Validate
}

// New builds an API over the given collaborators.
func New(reg *registry.Registry, exec *executor.Executor, ch *chain.Executor, tracer *trace.Tracer) *API {
	return &API{
		registry: reg,
		executor: exec,
		chain:    ch,
		tracer:   tracer,
		validate: validator.New(),
	}
}

// LoadBinaryResult is the success payload of LoadBinary.
type LoadBinaryResult struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
}

// LoadBinary forwards to the registry's load operation.
func (a *API) LoadBinary(ctx context.Context, path string) (LoadBinaryResult, error) {
	id, err := a.registry.Load(ctx, path)
	if err != nil {
		return LoadBinaryResult{}, err
	}
	_, meta, err := a.registry.Get(id)
	if err != nil {
		return LoadBinaryResult{}, err
	}
	return LoadBinaryResult{ID: id, Size: meta.Size}, nil
}

// resolveConfig applies defaults when cfg is nil and validates the
// result.
func (a *API) resolveConfig(cfg *entities.ExecutionConfig) (entities.ExecutionConfig, error) {
	var resolved entities.ExecutionConfig
	if cfg != nil {
		resolved = *cfg
	}
	resolved = resolved.WithDefaults()
	if err := a.validate.Struct(resolved); err != nil {
		return resolved, fmt.Errorf("invalid execution config: %w", err)
	}
	return resolved, nil
}

// Execute runs a single binary. cfg may be nil, in which case the
// defaults from ExecutionConfig.WithDefaults apply.
func (a *API) Execute(ctx context.Context, binaryID, input string, cfg *entities.ExecutionConfig) (entities.ExecutionResult, error) {
	resolved, err := a.resolveConfig(cfg)
	if err != nil {
		return entities.ExecutionResult{}, err
	}
	return a.executor.Execute(ctx, binaryID, input, resolved)
}

// ExecuteChain runs binaryIDs in sequence under a shared config.
func (a *API) ExecuteChain(ctx context.Context, binaryIDs []string, input string, cfg *entities.ExecutionConfig) ([]entities.ExecutionResult, error) {
	resolved, err := a.resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return a.chain.Run(ctx, binaryIDs, input, resolved)
}

// BinaryInfo is one entry of ListBinaries' snapshot.
type BinaryInfo struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Size     int    `json:"size"`
	LoadedAt int64  `json:"loaded_at"` // seconds since epoch
}

// ListBinaries returns a snapshot of every loaded binary's metadata.
func (a *API) ListBinaries() []BinaryInfo {
	metas := a.registry.List()
	out := make([]BinaryInfo, len(metas))
	for i, m := range metas {
		out[i] = BinaryInfo{ID: m.ID, Path: m.Path, Size: m.Size, LoadedAt: m.LoadedAt.Unix()}
	}
	return out
}

// UnloadBinary removes binaryID from the registry and returns a
// human-readable confirmation.
func (a *API) UnloadBinary(binaryID string) (string, error) {
	if err := a.registry.Unload(binaryID); err != nil {
		return "", err
	}
	return fmt.Sprintf("unloaded binary %s", binaryID), nil
}

// GetTrace exposes the tracer's ring buffer; ok is false when tracing is
// disabled or no trace for binaryID has been recorded.
func (a *API) GetTrace(binaryID string) (entities.ExecutionTrace, bool) {
	return a.tracer.GetTrace(binaryID)
}
