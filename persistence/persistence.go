// Package persistence implements the registry's metadata snapshot: a
// JSON array of BinaryMetadata records written to a fixed file after
// every mutation and read back once at startup. Compiled modules are
// never persisted; only the metadata needed to recompile from path is
// written.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wasmforge/pluginhost/domain/entities"
)

// DefaultFilename is the fixed snapshot filename written to the working
// directory.
const DefaultFilename = "metadata.json"

// Load reads and decodes the snapshot at path. Any error (missing file,
// unreadable, malformed JSON) is returned to the caller, who is expected
// to log a warning and continue with an empty registry rather than treat
// it as fatal.
func Load(path string) ([]entities.BinaryMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var records []entities.BinaryMetadata
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return records, nil
}

// Save writes records to path, overwriting atomically via write-then-
// rename: the single-writer registry tolerates last-write-wins, but a
// torn write on crash would corrupt the snapshot, so a temp file plus
// rename is used regardless.
func Save(path string, records []entities.BinaryMetadata) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp snapshot: %w", err)
	}
	return nil
}
