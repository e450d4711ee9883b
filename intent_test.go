package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"rollaway/server/internal/config"
	"rollaway/server/internal/game"
	"rollaway/server/internal/logging"
)

func newTestServer(t *testing.T, debounce time.Duration) *Server {
	t.Helper()
	cfg := &config.Config{DebounceInterval: debounce}
	g := game.New(11, logging.NewTestLogger())
	return NewServer(cfg, g, logging.NewTestLogger())
}

func intentFrame(t *testing.T, key string, sequence uint64) []byte {
	t.Helper()
	return []byte(fmt.Sprintf(`{"schema_version":"rollaway.v1","sequence_id":%d,"key":%q}`, sequence, key))
}

func TestProcessIntentAppliesKey(t *testing.T) {
	s := newTestServer(t, 0)
	if got := s.game.State(); got != game.StateMenu {
		t.Fatalf("expected menu state before intent, got %v", got)
	}
	if err := s.processIntent("c1", intentFrame(t, "start", 1), nil); err != nil {
		t.Fatalf("processIntent failed: %v", err)
	}
	if got := s.game.State(); got != game.StatePlaying {
		t.Fatalf("start intent should begin a run, state is %v", got)
	}
}

func TestProcessIntentRejectsMalformedFrames(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{name: "empty", raw: nil, want: errIntentEmptyPayload},
		{name: "not json", raw: []byte("{nope")},
		{name: "missing version", raw: []byte(`{"sequence_id":1,"key":"start"}`), want: errIntentMissingVersion},
		{name: "zero sequence", raw: []byte(`{"schema_version":"rollaway.v1","sequence_id":0,"key":"start"}`)},
		{name: "unknown key", raw: []byte(`{"schema_version":"rollaway.v1","sequence_id":1,"key":"teleport"}`), want: errIntentUnknownKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 0)
			err := s.processIntent("c1", tc.raw, nil)
			if err == nil {
				t.Fatalf("expected an error for %q", tc.raw)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got := s.game.State(); got != game.StateMenu {
				t.Fatalf("rejected intent must not mutate the game, state is %v", got)
			}
		})
	}
}

func TestProcessIntentEnforcesSequenceOrder(t *testing.T) {
	s := newTestServer(t, 0)
	if err := s.processIntent("c1", intentFrame(t, "start", 5), nil); err != nil {
		t.Fatalf("first intent failed: %v", err)
	}
	if err := s.processIntent("c1", intentFrame(t, "pause", 5), nil); !errors.Is(err, errIntentSequence) {
		t.Fatalf("replayed sequence id should be rejected, got %v", err)
	}
	if err := s.processIntent("c1", intentFrame(t, "pause", 4), nil); !errors.Is(err, errIntentSequence) {
		t.Fatalf("stale sequence id should be rejected, got %v", err)
	}
	if err := s.processIntent("c1", intentFrame(t, "pause", 6), nil); err != nil {
		t.Fatalf("next sequence id failed: %v", err)
	}
	//1.- Sequence counters are tracked per client, so a fresh client starts over.
	if err := s.processIntent("c2", intentFrame(t, "pause", 1), nil); err != nil {
		t.Fatalf("independent client sequence failed: %v", err)
	}
}

func TestProcessIntentDebouncesRepeats(t *testing.T) {
	s := newTestServer(t, time.Hour)
	if err := s.processIntent("c1", intentFrame(t, "start", 1), nil); err != nil {
		t.Fatalf("start intent failed: %v", err)
	}
	if err := s.processIntent("c1", intentFrame(t, "pause", 2), nil); err != nil {
		t.Fatalf("pause intent failed: %v", err)
	}
	if got := s.game.State(); got != game.StatePaused {
		t.Fatalf("expected paused state, got %v", got)
	}
	//1.- The second pause inside the window is swallowed rather than toggling back.
	if err := s.processIntent("c1", intentFrame(t, "pause", 3), nil); err != nil {
		t.Fatalf("debounced intent should not surface an error: %v", err)
	}
	if got := s.game.State(); got != game.StatePaused {
		t.Fatalf("debounced pause must not resume the run, state is %v", got)
	}
	if got := s.InputDrops(); got != 1 {
		t.Fatalf("expected 1 recorded drop, got %d", got)
	}
}

func TestIntentSentAt(t *testing.T) {
	payload := &intentPayload{SentAtMs: 1_700_000_000_123}
	if got := payload.SentAt(); got.UnixMilli() != 1_700_000_000_123 {
		t.Fatalf("unexpected capture time %v", got)
	}
	empty := &intentPayload{}
	if !empty.SentAt().IsZero() {
		t.Fatalf("missing timestamp should map to the zero time")
	}
}
