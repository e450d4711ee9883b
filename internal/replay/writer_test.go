package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriterBundleRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	writer, manifest, err := NewWriter(tmp, "Run #7!", clock)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if manifest.FrameIntervalMs != 200 {
		t.Fatalf("unexpected frame cadence: %d", manifest.FrameIntervalMs)
	}
	//1.- The run identifier is sanitised before it names the bundle directory.
	if base := filepath.Base(writer.Directory()); base != "Run7-20260314T120000Z" {
		t.Fatalf("unexpected bundle directory: %q", base)
	}

	writer.SetHeaderMetadata("42", TerrainParameters{"width": 100, "depth": 200})

	if err := writer.AppendEvent(1, 16, "state_change", []byte(`{"state":"playing"}`)); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := writer.AppendFrame(1, 16, []byte(`{"tick":1}`)); err != nil {
		t.Fatalf("append frame: %v", err)
	}
	now = now.Add(250 * time.Millisecond)
	if err := writer.AppendFrame(2, 33, []byte(`{"tick":2}`)); err != nil {
		t.Fatalf("append frame: %v", err)
	}
	if err := writer.AppendEvent(2, 33, "pickup", []byte(`{"amount":50}`)); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	bundle, err := Load(writer.Directory())
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	if bundle.Header.RunSeed != "42" {
		t.Fatalf("unexpected header seed: %q", bundle.Header.RunSeed)
	}
	if bundle.Header.TerrainParams["depth"] != 200 {
		t.Fatalf("unexpected terrain params: %#v", bundle.Header.TerrainParams)
	}

	entries := bundle.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 timeline entries, got %d", len(entries))
	}
	//2.- The merged timeline is ordered by simulated time.
	for i := 1; i < len(entries); i++ {
		if entries[i].SimulatedMs < entries[i-1].SimulatedMs {
			t.Fatalf("timeline out of order at %d", i)
		}
	}

	var eventTypes []string
	var frames int
	for _, entry := range entries {
		if entry.Type == "frame" {
			frames++
			var payload struct {
				Tick uint64 `json:"tick"`
			}
			if err := json.Unmarshal(entry.Payload, &payload); err != nil {
				t.Fatalf("decode frame payload: %v", err)
			}
			if payload.Tick != entry.Tick {
				t.Fatalf("frame payload tick %d != entry tick %d", payload.Tick, entry.Tick)
			}
			continue
		}
		eventTypes = append(eventTypes, entry.Type)
	}
	if frames != 2 {
		t.Fatalf("expected 2 frames, got %d", frames)
	}
	if len(eventTypes) != 2 || eventTypes[0] != "state_change" || eventTypes[1] != "pickup" {
		t.Fatalf("unexpected event types: %v", eventTypes)
	}
}

func TestWriterReplayCallback(t *testing.T) {
	tmp := t.TempDir()
	writer, _, err := NewWriter(tmp, "run", nil)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	writer.SetHeaderMetadata("1", nil)
	for tick := uint64(1); tick <= 3; tick++ {
		if err := writer.AppendFrame(tick, int64(tick)*16, []byte(`{}`)); err != nil {
			t.Fatalf("append frame: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	bundle, err := Load(writer.Directory())
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	var ticks []uint64
	if err := bundle.Replay(func(entry TimelineEntry) error {
		ticks = append(ticks, entry.Tick)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(ticks) != 3 || ticks[0] != 1 || ticks[2] != 3 {
		t.Fatalf("unexpected tick order: %v", ticks)
	}
}

func TestWriterRejectsMissingRoot(t *testing.T) {
	if _, _, err := NewWriter("", "run", nil); err == nil {
		t.Fatalf("empty root must be rejected")
	}
}

func TestLoadRejectsBrokenBundle(t *testing.T) {
	tmp := t.TempDir()
	if _, err := Load(tmp); err == nil {
		t.Fatalf("bundle without a manifest must fail to load")
	}
	if err := os.WriteFile(filepath.Join(tmp, manifestFileName), []byte(`{"version":1}`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := Load(tmp); err == nil {
		t.Fatalf("manifest without artefact paths must fail to load")
	}
}
