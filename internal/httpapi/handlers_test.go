package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rollaway/server/internal/game"
	"rollaway/server/internal/logging"
	"rollaway/server/internal/replay"
	"rollaway/server/internal/simulation"
)

type stubReadiness struct {
	clients int
	uptime  time.Duration
	err     error
}

func (s *stubReadiness) ClientCount() int      { return s.clients }
func (s *stubReadiness) StartupError() error   { return s.err }
func (s *stubReadiness) Uptime() time.Duration { return s.uptime }

type stubLimiter struct {
	remaining int
}

func (s *stubLimiter) Allow() bool {
	if s.remaining <= 0 {
		return false
	}
	s.remaining--
	return true
}

type stubDumper struct {
	location string
	err      error
	calls    int
}

func (s *stubDumper) DumpReplay(ctx context.Context) (string, error) {
	s.calls++
	return s.location, s.err
}

func TestLivenessHandlerReturnsJSON(t *testing.T) {
	fixed := time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)
	handlers := NewHandlerSet(Options{Logger: logging.NewTestLogger(), TimeSource: func() time.Time { return fixed }})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)

	handlers.LivenessHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "alive" {
		t.Fatalf("unexpected status: %q", payload.Status)
	}
	if payload.Timestamp != fixed.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp: %q", payload.Timestamp)
	}
}

func TestReadinessHandlerReportsStartupError(t *testing.T) {
	readiness := &stubReadiness{clients: 3, uptime: 90 * time.Second, err: errors.New("boot failed")}
	handlers := NewHandlerSet(Options{Logger: logging.NewTestLogger(), Readiness: readiness})
	rr := httptest.NewRecorder()

	handlers.ReadinessHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Clients int    `json:"clients"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "error" || payload.Message != "boot failed" || payload.Clients != 3 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestStateHandlerReturnsHUD(t *testing.T) {
	hud := game.HUD{State: "playing", Score: 120, Health: 80}
	handlers := NewHandlerSet(Options{Logger: logging.NewTestLogger(), HUD: func() game.HUD { return hud }})
	rr := httptest.NewRecorder()

	handlers.StateHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload game.HUD
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload != hud {
		t.Fatalf("unexpected HUD: %+v", payload)
	}
}

func TestMetricsHandlerEmitsGauges(t *testing.T) {
	handlers := NewHandlerSet(Options{
		Logger:    logging.NewTestLogger(),
		Readiness: &stubReadiness{clients: 2, uptime: time.Minute},
		HUD: func() game.HUD {
			return game.HUD{Score: 10, Distance: 42, Health: 100}
		},
		Ticks: func() simulation.TickMetrics {
			return simulation.TickMetrics{Samples: 600, Average: time.Millisecond, Max: 5 * time.Millisecond, Overruns: 1}
		},
		InputDrops:  func() uint64 { return 7 },
		ReplayStats: func() replay.Stats { return replay.Stats{BufferedFrames: 12, BufferedBytes: 1024, Dumps: 2} },
	})
	rr := httptest.NewRecorder()

	handlers.MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	for _, want := range []string{
		"rollaway_uptime_seconds 60",
		"rollaway_clients 2",
		"rollaway_run_distance 42.00",
		"rollaway_ball_health 100.00",
		"rollaway_tick_samples_total 600",
		"rollaway_tick_overruns_total 1",
		"rollaway_input_drops_total 7",
		"rollaway_replay_buffer_frames 12",
		"rollaway_replay_dumps_total 2",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestReplayDumpHandlerAuthorisation(t *testing.T) {
	dumper := &stubDumper{location: "/tmp/run.json"}
	handlers := NewHandlerSet(Options{
		Logger:      logging.NewTestLogger(),
		Replay:      dumper,
		AdminToken:  "secret",
		RateLimiter: &stubLimiter{remaining: 1},
	})
	handler := handlers.ReplayDumpHandler()

	//1.- Wrong method is rejected before any authorisation work.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/replay/dump", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	//2.- Missing token is unauthorized.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/replay/dump", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	//3.- A valid bearer token triggers the dump.
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/replay/dump", nil)
	req.Header.Set("Authorization", "Bearer secret")
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if dumper.calls != 1 {
		t.Fatalf("expected one dump call, got %d", dumper.calls)
	}
	var payload struct {
		Status   string `json:"status"`
		Location string `json:"location"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Location != "/tmp/run.json" {
		t.Fatalf("unexpected location: %q", payload.Location)
	}

	//4.- The limiter rejects the follow-up request.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/replay/dump", nil)
	req.Header.Set("X-Admin-Token", "secret")
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestReplayDumpHandlerRequiresConfiguredToken(t *testing.T) {
	handlers := NewHandlerSet(Options{Logger: logging.NewTestLogger(), Replay: &stubDumper{}})
	rr := httptest.NewRecorder()
	handlers.ReplayDumpHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/replay/dump", nil))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when admin auth is disabled, got %d", rr.Code)
	}
}

func TestReplayDumpHandlerSurfacesDumpFailure(t *testing.T) {
	handlers := NewHandlerSet(Options{
		Logger:     logging.NewTestLogger(),
		Replay:     &stubDumper{err: errors.New("disk full")},
		AdminToken: "secret",
	})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/replay/dump?token=secret", nil)
	handlers.ReplayDumpHandler().ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
