package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultRecorderCap bounds the in-memory snapshot buffer. At 60 Hz this
// covers roughly the last two minutes of play.
const DefaultRecorderCap = 7200

// TickFrame stores the encoded snapshot for a single simulation tick.
type TickFrame struct {
	Tick       uint64
	CapturedAt time.Time
	Payload    []byte
}

// Recorder keeps a bounded ring of recent tick snapshots so operators can dump
// the tail of a run on demand without streaming every tick to disk.
type Recorder struct {
	mu          sync.Mutex
	dir         string
	cap         int
	now         func() time.Time
	frames      []TickFrame
	bytes       int64
	dumps       int64
	lastDump    time.Time
	lastDumpURI string
}

// Stats summarises recorder health for monitoring endpoints.
type Stats struct {
	BufferedFrames int
	BufferedBytes  int64
	Dumps          int64
	LastDumpURI    string
	LastDumpTime   time.Time
}

// NewRecorder constructs a recorder that writes JSON dump artefacts into dir.
// A non-positive capacity falls back to DefaultRecorderCap.
func NewRecorder(dir string, capacity int, clock func() time.Time) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay directory must be provided")
	}
	if capacity <= 0 {
		capacity = DefaultRecorderCap
	}
	if clock == nil {
		clock = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{dir: dir, cap: capacity, now: clock}, nil
}

// RecordTick appends the encoded snapshot for the supplied tick, evicting the
// oldest frames once the capacity is reached.
func (r *Recorder) RecordTick(tick uint64, payload []byte) {
	if r == nil || len(payload) == 0 {
		return
	}
	clone := append([]byte(nil), payload...)
	captured := r.now().UTC()

	r.mu.Lock()
	r.frames = append(r.frames, TickFrame{Tick: tick, CapturedAt: captured, Payload: clone})
	r.bytes += int64(len(clone))
	//1.- Evict from the front so the buffer always holds the newest ticks.
	for len(r.frames) > r.cap {
		r.bytes -= int64(len(r.frames[0].Payload))
		r.frames = r.frames[1:]
	}
	r.mu.Unlock()
}

// Dump writes the buffered frames to disk and clears the buffer.
func (r *Recorder) Dump(runID string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("recorder not configured")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return "", fmt.Errorf("no replay frames buffered")
	}

	cleaned := runIDCleaner.ReplaceAllString(runID, "")
	if cleaned == "" {
		cleaned = "run"
	}
	timestamp := r.now().UTC().Format("20060102T150405Z")
	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.json", cleaned, timestamp))

	//1.- Plain JSON keeps on-demand dumps greppable without extra tooling.
	type dumpFrame struct {
		Tick       uint64          `json:"tick"`
		CapturedAt string          `json:"captured_at"`
		Payload    json.RawMessage `json:"payload"`
	}
	envelope := struct {
		SavedAt string      `json:"saved_at"`
		Frames  []dumpFrame `json:"frames"`
	}{SavedAt: timestamp, Frames: make([]dumpFrame, len(r.frames))}
	for idx, frame := range r.frames {
		envelope.Frames[idx] = dumpFrame{
			Tick:       frame.Tick,
			CapturedAt: frame.CapturedAt.Format(time.RFC3339Nano),
			Payload:    json.RawMessage(frame.Payload),
		}
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	//2.- Reset so a fresh stretch of play can accumulate immediately.
	r.frames = nil
	r.bytes = 0
	r.dumps++
	r.lastDump = r.now().UTC()
	r.lastDumpURI = path
	return path, nil
}

// Snapshot returns statistics describing the recorder state.
func (r *Recorder) Snapshot() Stats {
	if r == nil {
		return Stats{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		BufferedFrames: len(r.frames),
		BufferedBytes:  r.bytes,
		Dumps:          r.dumps,
		LastDumpURI:    r.lastDumpURI,
		LastDumpTime:   r.lastDump,
	}
}
