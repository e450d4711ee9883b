package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecorderDumpsToDisk(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	recorder, err := NewRecorder(dir, 0, clock)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	recorder.RecordTick(1, []byte(`{"tick":1}`))
	current = current.Add(16 * time.Millisecond)
	recorder.RecordTick(2, []byte(`{"tick":2}`))

	stats := recorder.Snapshot()
	if stats.BufferedFrames != 2 || stats.BufferedBytes == 0 {
		t.Fatalf("unexpected buffer stats: %+v", stats)
	}

	path, err := recorder.Dump("alpha")
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("unexpected dump directory: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var dump struct {
		SavedAt string `json:"saved_at"`
		Frames  []struct {
			Tick    uint64          `json:"tick"`
			Payload json.RawMessage `json:"payload"`
		} `json:"frames"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if len(dump.Frames) != 2 || dump.Frames[1].Tick != 2 {
		t.Fatalf("unexpected dump frames: %+v", dump.Frames)
	}

	stats = recorder.Snapshot()
	if stats.BufferedFrames != 0 {
		t.Fatalf("dump must clear the buffer, got %d frames", stats.BufferedFrames)
	}
	if stats.Dumps != 1 || stats.LastDumpURI != path {
		t.Fatalf("unexpected dump stats: %+v", stats)
	}
}

func TestRecorderEvictsBeyondCapacity(t *testing.T) {
	recorder, err := NewRecorder(t.TempDir(), 3, nil)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	for tick := uint64(1); tick <= 5; tick++ {
		recorder.RecordTick(tick, []byte(`{"x":1}`))
	}
	stats := recorder.Snapshot()
	if stats.BufferedFrames != 3 {
		t.Fatalf("capacity must bound the buffer, got %d frames", stats.BufferedFrames)
	}

	//1.- The retained tail holds the newest ticks.
	recorder.mu.Lock()
	first := recorder.frames[0].Tick
	recorder.mu.Unlock()
	if first != 3 {
		t.Fatalf("oldest frames must be evicted first, buffer starts at tick %d", first)
	}
}

func TestRecorderDumpRequiresFrames(t *testing.T) {
	recorder, err := NewRecorder(t.TempDir(), 0, nil)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if _, err := recorder.Dump("run"); err == nil {
		t.Fatalf("dumping an empty buffer must fail")
	}
}

func TestRecorderIgnoresEmptyPayloads(t *testing.T) {
	recorder, err := NewRecorder(t.TempDir(), 0, nil)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	recorder.RecordTick(1, nil)
	if stats := recorder.Snapshot(); stats.BufferedFrames != 0 {
		t.Fatalf("empty payloads must be dropped, got %d frames", stats.BufferedFrames)
	}
}
