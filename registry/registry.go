// Package registry implements the binary registry: loaded WASM modules
// keyed by identifier, path-deduplicating load, and metadata persistence
// after every mutation.
package registry

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"

	"github.com/wasmforge/pluginhost/domain/entities"
	rerrors "github.com/wasmforge/pluginhost/domain/errors"
	"github.com/wasmforge/pluginhost/engine"
	"github.com/wasmforge/pluginhost/persistence"
	"github.com/wasmforge/pluginhost/trace"
)

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithSnapshotPath overrides the metadata snapshot location (default
// persistence.DefaultFilename in the current working directory).
func WithSnapshotPath(path string) Option {
	return func(r *Registry) { r.snapshotPath = path }
}

// WithTracer attaches a diagnostic tracer; nil (the default) disables
// tracing for registry operations.
func WithTracer(t *trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// Registry is the process-wide binary registry. All operations are safe
// for concurrent use. No lock is ever held across a guest invocation;
// Get returns a clone-cheap handle and releases the lock immediately.
//
// entries stores entities.LoadedBinary directly rather than a private
// shadow struct duplicating the same metadata/module pairing. Module is
// kept as the entity's `any` field, so domain/entities stays free of the
// wazero dependency; Load and Rehydrate are the only places that store a
// wazero.CompiledModule there, and Get type-asserts it back.
type Registry struct {
	mu           sync.RWMutex
	entries      map[string]entities.LoadedBinary
	engine       *engine.Engine
	snapshotPath string
	tracer       *trace.Tracer
}

// New constructs an empty registry bound to engine e.
func New(e *engine.Engine, opts ...Option) *Registry {
	r := &Registry{
		entries:      make(map[string]entities.LoadedBinary),
		engine:       e,
		snapshotPath: persistence.DefaultFilename,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the file at path, compiles it through the engine, and
// inserts (or updates) a LoadedBinary. Deduplication is byte-exact on
// path, no canonicalization: a prior entry with an identical path string
// has its id reused and record overwritten in place; otherwise a fresh
// id is generated. Persistence runs synchronously on success.
func (r *Registry) Load(ctx context.Context, path string) (string, error) {
	rec := r.tracer.Start("")
	rec.Event(entities.TraceLoadStart, path)

	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		ioErr := &rerrors.IOError{Path: path, Err: err}
		rec.Event(entities.TraceLoadError, ioErr.Error())
		rec.Complete(false, ioErr)
		return "", ioErr
	}

	module, err := r.engine.Compile(ctx, wasmBytes)
	if err != nil {
		compileErr := &rerrors.CompileError{Path: path, Err: err}
		rec.Event(entities.TraceLoadError, compileErr.Error())
		rec.Complete(false, compileErr)
		return "", compileErr
	}

	r.mu.Lock()
	id, existing := r.findByPathLocked(path)
	if !existing {
		id = uuid.NewString()
	}
	meta := entities.BinaryMetadata{
		ID:       id,
		Path:     path,
		Size:     len(wasmBytes),
		LoadedAt: time.Now(),
	}
	r.entries[id] = entities.LoadedBinary{Metadata: meta, Module: module}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	if err := persistence.Save(r.snapshotPath, snapshot); err != nil {
		rec.Event(entities.TraceLoadError, err.Error())
		rec.Complete(false, err)
		return "", &rerrors.IOError{Path: r.snapshotPath, Err: err}
	}

	rec.Event(entities.TraceLoadComplete, id)
	rec.Complete(true, nil)
	return id, nil
}

// Get returns the compiled module and metadata for id, or NotFound.
func (r *Registry) Get(id string) (wazero.CompiledModule, entities.BinaryMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, entities.BinaryMetadata{}, &rerrors.NotFoundError{ID: id}
	}
	return e.Module.(wazero.CompiledModule), e.Metadata, nil
}

// FindByPath returns the id of the entry whose path exactly matches, if
// any.
func (r *Registry) FindByPath(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByPathLocked(path)
}

func (r *Registry) findByPathLocked(path string) (string, bool) {
	for id, e := range r.entries {
		if e.Metadata.Path == path {
			return id, true
		}
	}
	return "", false
}

// Unload removes the entry for id and persists, or returns NotFound.
func (r *Registry) Unload(id string) error {
	r.mu.Lock()
	if _, ok := r.entries[id]; !ok {
		r.mu.Unlock()
		return &rerrors.NotFoundError{ID: id}
	}
	// The compiled module stays attached to the shared runtime until
	// process teardown; closing it here would race in-flight executions
	// holding a clone of the handle.
	delete(r.entries, id)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	if err := persistence.Save(r.snapshotPath, snapshot); err != nil {
		return &rerrors.IOError{Path: r.snapshotPath, Err: err}
	}
	return nil
}

// List returns a snapshot of all entries' metadata; ordering is not
// guaranteed.
func (r *Registry) List() []entities.BinaryMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []entities.BinaryMetadata {
	out := make([]entities.BinaryMetadata, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Metadata)
	}
	return out
}

// Count returns the number of loaded binaries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Rehydrate reads the metadata snapshot and recompiles each record's
// path, re-inserting it keyed by its original id. A missing or
// unreadable snapshot yields a fresh empty registry (the caller is
// expected to log the returned error as a warning, not treat it as
// fatal); a record whose path no longer exists is fatal for the whole
// snapshot (no partial recovery).
func (r *Registry) Rehydrate(ctx context.Context) error {
	records, err := persistence.Load(r.snapshotPath)
	if err != nil {
		return err
	}

	loaded := make(map[string]entities.LoadedBinary, len(records))
	for _, meta := range records {
		wasmBytes, err := os.ReadFile(meta.Path)
		if err != nil {
			return &rerrors.IOError{Path: meta.Path, Err: err}
		}
		module, err := r.engine.Compile(ctx, wasmBytes)
		if err != nil {
			return &rerrors.CompileError{Path: meta.Path, Err: err}
		}
		loaded[meta.ID] = entities.LoadedBinary{Metadata: meta, Module: module}
	}

	r.mu.Lock()
	r.entries = loaded
	r.mu.Unlock()
	return nil
}
