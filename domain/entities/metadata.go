package entities

import "time"

// BinaryMetadata describes a loaded WASM binary. The id is stable for the
// lifetime of the entry; path uniqueness is enforced by the registry's
// load-deduplication rule, not by this type.
type BinaryMetadata struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Size     int       `json:"size"`
	LoadedAt time.Time `json:"loaded_at"`
}

// LoadedBinary pairs metadata with the compiled module artifact produced
// by the engine. The module is opaque here (a wazero.CompiledModule); the
// registry only stores and clones it, it never inspects it.
type LoadedBinary struct {
	Metadata BinaryMetadata
	Module   any
}
