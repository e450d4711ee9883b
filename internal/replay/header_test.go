package replay

import (
	"path/filepath"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "header.json")

	header := Header{
		SchemaVersion: HeaderSchemaVersion,
		RunSeed:       "42",
		TerrainParams: TerrainParameters{"width": 100, "depth": 200, "grid_size": 1},
		FilePointer:   "manifest.json",
	}
	if err := WriteHeader(path, header); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	loaded, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if loaded.RunSeed != "42" {
		t.Fatalf("unexpected seed: %q", loaded.RunSeed)
	}
	if loaded.TerrainParams["depth"] != 200 {
		t.Fatalf("unexpected terrain params: %#v", loaded.TerrainParams)
	}
	if loaded.FilePointer != "manifest.json" {
		t.Fatalf("unexpected file pointer: %q", loaded.FilePointer)
	}
}

func TestHeaderValidation(t *testing.T) {
	if err := (Header{SchemaVersion: 0, FilePointer: "x"}).Validate(); err == nil {
		t.Fatalf("zero schema version must fail validation")
	}
	if err := (Header{SchemaVersion: 1, FilePointer: "  "}).Validate(); err == nil {
		t.Fatalf("blank file pointer must fail validation")
	}
	if err := (Header{SchemaVersion: 1, FilePointer: "manifest.json"}).Validate(); err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}
}

func TestTerrainParametersClone(t *testing.T) {
	params := TerrainParameters{"width": 10}
	clone := params.Clone()
	clone["width"] = 99
	if params["width"] != 10 {
		t.Fatalf("clone must not alias the source map")
	}
	if TerrainParameters(nil).Clone() != nil {
		t.Fatalf("empty parameters must clone to nil")
	}
}
