package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// TimelineEntry is a single replay datum ready for deterministic iteration.
// Type is "frame" for world frames and the recorded event type otherwise.
type TimelineEntry struct {
	Tick        uint64
	SimulatedMs int64
	CapturedAt  time.Time
	Type        string
	Payload     []byte
}

// Bundle is a fully rehydrated replay bundle.
type Bundle struct {
	Header   Header
	Manifest Manifest
	entries  []TimelineEntry
}

// Load opens a bundle directory produced by Writer and decodes the manifest,
// header, event log and frame stream into a merged timeline.
func Load(dir string) (*Bundle, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay bundle directory must be provided")
	}

	manifest, err := readManifest(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	header, err := ReadHeader(filepath.Join(dir, headerFileName))
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	entries, err := readEvents(filepath.Join(dir, manifest.EventsPath))
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	frames, err := readFrames(filepath.Join(dir, manifest.FramesPath))
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	entries = append(entries, frames...)

	//1.- Merge by simulated time, then tick, so iteration is deterministic.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SimulatedMs == entries[j].SimulatedMs {
			return entries[i].Tick < entries[j].Tick
		}
		return entries[i].SimulatedMs < entries[j].SimulatedMs
	})

	return &Bundle{Header: header, Manifest: manifest, entries: entries}, nil
}

func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, err
	}
	if manifest.EventsPath == "" || manifest.FramesPath == "" {
		return Manifest{}, fmt.Errorf("manifest is missing artefact paths")
	}
	return Manifest{
		Version:         manifest.Version,
		CreatedAt:       manifest.CreatedAt,
		FrameIntervalMs: manifest.FrameIntervalMs,
		EventsPath:      filepath.Base(manifest.EventsPath),
		FramesPath:      filepath.Base(manifest.FramesPath),
	}, nil
}

func readEvents(path string) ([]TimelineEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []TimelineEntry
	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record eventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("decode event line: %w", err)
		}
		captured, err := time.Parse(time.RFC3339Nano, record.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("parse event captured_at: %w", err)
		}
		entries = append(entries, TimelineEntry{
			Tick:        record.Tick,
			SimulatedMs: record.SimulatedMs,
			CapturedAt:  captured,
			Type:        record.Type,
			Payload:     append([]byte(nil), record.Payload...),
		})
	}
	return entries, scanner.Err()
}

func readFrames(path string) ([]TimelineEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	var entries []TimelineEntry
	header := make([]byte, 8+8+8+4)
	for {
		//1.- Each record starts with a fixed header followed by the raw payload.
		if _, err := io.ReadFull(decoder, header); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, fmt.Errorf("read frame header: %w", err)
		}
		size := binary.LittleEndian.Uint32(header[24:28])
		payload := make([]byte, size)
		if _, err := io.ReadFull(decoder, payload); err != nil {
			return nil, fmt.Errorf("read frame payload: %w", err)
		}
		entries = append(entries, TimelineEntry{
			Tick:        binary.LittleEndian.Uint64(header[0:8]),
			SimulatedMs: int64(binary.LittleEndian.Uint64(header[8:16])),
			CapturedAt:  time.Unix(0, int64(binary.LittleEndian.Uint64(header[16:24]))).UTC(),
			Type:        "frame",
			Payload:     payload,
		})
	}
}

// Replay iterates over the merged timeline in deterministic order.
func (b *Bundle) Replay(apply func(TimelineEntry) error) error {
	if b == nil {
		return fmt.Errorf("bundle not initialised")
	}
	if apply == nil {
		return fmt.Errorf("replay callback must be provided")
	}
	for _, entry := range b.entries {
		if err := apply(entry); err != nil {
			return err
		}
	}
	return nil
}

// Entries exposes a defensive copy of the timeline for external assertions.
func (b *Bundle) Entries() []TimelineEntry {
	if b == nil {
		return nil
	}
	out := make([]TimelineEntry, len(b.entries))
	copy(out, b.entries)
	return out
}
