// Package replayinspect catalogues and summarises replay bundles so
// operators can inspect recorded runs without the server.
package replayinspect

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rollaway/server/internal/replay"
)

// CatalogEntry pairs a replay header with its resolved bundle directory.
type CatalogEntry struct {
	HeaderPath string        `json:"header_path"`
	BundleDir  string        `json:"bundle_dir"`
	Header     replay.Header `json:"header"`
}

// Catalog walks the directory tree and returns every parsed replay header.
func Catalog(root string) ([]CatalogEntry, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory must be provided")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root must be a directory")
	}

	var entries []CatalogEntry
	//1.- Walk the tree looking for header files written by the server.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != "header.json" {
			return nil
		}
		header, err := replay.ReadHeader(path)
		if err != nil {
			return err
		}
		entries = append(entries, CatalogEntry{
			HeaderPath: path,
			BundleDir:  filepath.Dir(path),
			Header:     header,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Header.RunSeed == entries[j].Header.RunSeed {
			return entries[i].BundleDir < entries[j].BundleDir
		}
		return entries[i].Header.RunSeed < entries[j].Header.RunSeed
	})
	return entries, nil
}

// MarshalCatalog produces stable, indented JSON for CLI output.
func MarshalCatalog(entries []CatalogEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

// Summary condenses one bundle's timeline into the numbers an operator
// checks first: how long the run was and what it recorded.
type Summary struct {
	BundleDir   string          `json:"bundle_dir"`
	Header      replay.Header   `json:"header"`
	Manifest    replay.Manifest `json:"manifest"`
	FrameCount  int             `json:"frame_count"`
	EventCount  int             `json:"event_count"`
	EventsByTag map[string]int  `json:"events_by_type,omitempty"`
	FirstTick   uint64          `json:"first_tick"`
	LastTick    uint64          `json:"last_tick"`
	DurationMs  int64           `json:"duration_ms"`
}

// Summarise loads a bundle directory and aggregates its timeline.
func Summarise(dir string) (Summary, error) {
	bundle, err := replay.Load(dir)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		BundleDir: dir,
		Header:    bundle.Header,
		Manifest:  bundle.Manifest,
	}
	first := true
	//1.- One pass over the merged timeline collects counts and tick bounds.
	err = bundle.Replay(func(entry replay.TimelineEntry) error {
		if entry.Type == "frame" {
			summary.FrameCount++
		} else {
			summary.EventCount++
			if summary.EventsByTag == nil {
				summary.EventsByTag = make(map[string]int)
			}
			summary.EventsByTag[entry.Type]++
		}
		if first || entry.Tick < summary.FirstTick {
			summary.FirstTick = entry.Tick
		}
		if first || entry.Tick > summary.LastTick {
			summary.LastTick = entry.Tick
		}
		if entry.SimulatedMs > summary.DurationMs {
			summary.DurationMs = entry.SimulatedMs
		}
		first = false
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Timeline re-exposes the bundle's ordered entries for full dumps.
func Timeline(dir string) ([]replay.TimelineEntry, error) {
	bundle, err := replay.Load(dir)
	if err != nil {
		return nil, err
	}
	return bundle.Entries(), nil
}
