// Package replay persists run artefacts to disk: a snappy-compressed event
// log, a zstd-compressed frame stream and the JSON metadata needed to rebuild
// the run deterministically from its seed.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HeaderSchemaVersion tracks the schema version for replay header documents.
const HeaderSchemaVersion = 1

// TerrainParameters captures the grid metadata the run's terrain was built with.
type TerrainParameters map[string]float64

// Clone returns a defensive copy of the terrain parameters map.
func (p TerrainParameters) Clone() TerrainParameters {
	if len(p) == 0 {
		return nil
	}
	clone := make(TerrainParameters, len(p))
	for key, value := range p {
		clone[key] = value
	}
	return clone
}

// Header is the metadata persisted alongside a replay bundle. RunSeed plus the
// terrain parameters are sufficient to regenerate the height-field and the
// spawn sequence of the recorded run.
type Header struct {
	SchemaVersion int               `json:"schema_version"`
	RunSeed       string            `json:"run_seed"`
	TerrainParams TerrainParameters `json:"terrain_params,omitempty"`
	FilePointer   string            `json:"file_pointer"`
}

// Validate ensures the header carries enough information for catalogue tooling.
func (h Header) Validate() error {
	if h.SchemaVersion <= 0 {
		return fmt.Errorf("schema_version must be positive")
	}
	//1.- Tooling locates the bundle through the pointer, so it must be present.
	if strings.TrimSpace(h.FilePointer) == "" {
		return fmt.Errorf("file_pointer must not be empty")
	}
	return nil
}

// WriteHeader persists the supplied header to the provided file path.
func WriteHeader(path string, header Header) error {
	if err := header.Validate(); err != nil {
		return err
	}
	//1.- Indented JSON keeps manual inspection practical.
	payload, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

// ReadHeader loads and decodes a replay header from disk.
func ReadHeader(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, err
	}
	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return Header{}, err
	}
	//1.- Reuse validation so callers receive consistent error semantics.
	if err := header.Validate(); err != nil {
		return Header{}, err
	}
	return header, nil
}
