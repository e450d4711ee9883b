// Package httpapi serves the operational HTTP surface next to the WebSocket
// endpoint: health probes, Prometheus-style metrics, a JSON state snapshot and
// the admin-gated replay dump trigger.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rollaway/server/internal/game"
	"rollaway/server/internal/logging"
	"rollaway/server/internal/replay"
	"rollaway/server/internal/simulation"
)

// ReadinessProvider exposes server state required for readiness checks.
type ReadinessProvider interface {
	ClientCount() int
	StartupError() error
	Uptime() time.Duration
}

// ReplayDumper triggers a replay dump and returns the artefact location.
type ReplayDumper interface {
	DumpReplay(ctx context.Context) (string, error)
}

// ReplayDumperFunc adapts a function into a ReplayDumper.
type ReplayDumperFunc func(ctx context.Context) (string, error)

// DumpReplay implements ReplayDumper.
func (f ReplayDumperFunc) DumpReplay(ctx context.Context) (string, error) { return f(ctx) }

// RateLimiter gates how frequently sensitive operations may be invoked.
type RateLimiter interface {
	Allow() bool
}

// Options configures the HandlerSet.
type Options struct {
	Logger      *logging.Logger
	Readiness   ReadinessProvider
	HUD         func() game.HUD
	Ticks       func() simulation.TickMetrics
	InputDrops  func() uint64
	Replay      ReplayDumper
	AdminToken  string
	RateLimiter RateLimiter
	TimeSource  func() time.Time
	ReplayStats func() replay.Stats
}

// HandlerSet bundles the operational handlers.
type HandlerSet struct {
	logger      *logging.Logger
	readiness   ReadinessProvider
	hud         func() game.HUD
	ticks       func() simulation.TickMetrics
	inputDrops  func() uint64
	replay      ReplayDumper
	adminToken  string
	rateLimiter RateLimiter
	now         func() time.Time
	replayStats func() replay.Stats
}

// NewHandlerSet constructs a HandlerSet using the provided options.
func NewHandlerSet(opts Options) *HandlerSet {
	logger := opts.Logger
	if logger == nil {
		logger = logging.L()
	}
	now := opts.TimeSource
	if now == nil {
		now = time.Now
	}
	return &HandlerSet{
		logger:      logger,
		readiness:   opts.Readiness,
		hud:         opts.HUD,
		ticks:       opts.Ticks,
		inputDrops:  opts.InputDrops,
		replay:      opts.Replay,
		adminToken:  strings.TrimSpace(opts.AdminToken),
		rateLimiter: opts.RateLimiter,
		now:         now,
		replayStats: opts.ReplayStats,
	}
}

// Register attaches all handlers to the provided mux.
func (h *HandlerSet) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("/livez", h.LivenessHandler())
	mux.HandleFunc("/readyz", h.ReadinessHandler())
	mux.HandleFunc("/metrics", h.MetricsHandler())
	mux.HandleFunc("/api/state", h.StateHandler())
	mux.HandleFunc("/replay/dump", h.ReplayDumpHandler())
}

// LivenessHandler reports that the HTTP server is reachable.
func (h *HandlerSet) LivenessHandler() http.HandlerFunc {
	type response struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{
			Status:    "alive",
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// ReadinessHandler reports server readiness including the client count.
func (h *HandlerSet) ReadinessHandler() http.HandlerFunc {
	type response struct {
		Status        string  `json:"status"`
		Message       string  `json:"message,omitempty"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Clients       int     `json:"clients"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		resp := response{Status: "ok"}
		if h.readiness != nil {
			resp.Clients = h.readiness.ClientCount()
			resp.UptimeSeconds = h.readiness.Uptime().Seconds()
			if err := h.readiness.StartupError(); err != nil {
				status = http.StatusServiceUnavailable
				resp.Status = "error"
				resp.Message = err.Error()
			}
		}
		writeJSON(w, status, resp)
	}
}

// StateHandler returns the live HUD snapshot as JSON for dashboards and tests.
func (h *HandlerSet) StateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.hud == nil {
			http.Error(w, "state unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, h.hud())
	}
}

// MetricsHandler emits Prometheus compatible text metrics.
func (h *HandlerSet) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		var uptime float64
		var clients int
		if h.readiness != nil {
			uptime = h.readiness.Uptime().Seconds()
			clients = h.readiness.ClientCount()
		}
		fmt.Fprintf(w, "# HELP rollaway_uptime_seconds Server uptime in seconds.\n")
		fmt.Fprintf(w, "# TYPE rollaway_uptime_seconds gauge\n")
		fmt.Fprintf(w, "rollaway_uptime_seconds %.0f\n", uptime)

		fmt.Fprintf(w, "# HELP rollaway_clients Current connected WebSocket clients.\n")
		fmt.Fprintf(w, "# TYPE rollaway_clients gauge\n")
		fmt.Fprintf(w, "rollaway_clients %d\n", clients)

		if h.hud != nil {
			hud := h.hud()
			fmt.Fprintf(w, "# HELP rollaway_run_score Current run score.\n")
			fmt.Fprintf(w, "# TYPE rollaway_run_score gauge\n")
			fmt.Fprintf(w, "rollaway_run_score %.2f\n", hud.Score)
			fmt.Fprintf(w, "# HELP rollaway_run_distance Current run distance in world units.\n")
			fmt.Fprintf(w, "# TYPE rollaway_run_distance gauge\n")
			fmt.Fprintf(w, "rollaway_run_distance %.2f\n", hud.Distance)
			fmt.Fprintf(w, "# HELP rollaway_ball_health Remaining ball health.\n")
			fmt.Fprintf(w, "# TYPE rollaway_ball_health gauge\n")
			fmt.Fprintf(w, "rollaway_ball_health %.2f\n", hud.Health)
		}

		if h.ticks != nil {
			metrics := h.ticks()
			fmt.Fprintf(w, "# HELP rollaway_tick_samples_total Simulation ticks observed.\n")
			fmt.Fprintf(w, "# TYPE rollaway_tick_samples_total counter\n")
			fmt.Fprintf(w, "rollaway_tick_samples_total %d\n", metrics.Samples)
			fmt.Fprintf(w, "# HELP rollaway_tick_duration_avg_seconds Average tick duration.\n")
			fmt.Fprintf(w, "# TYPE rollaway_tick_duration_avg_seconds gauge\n")
			fmt.Fprintf(w, "rollaway_tick_duration_avg_seconds %.6f\n", metrics.Average.Seconds())
			fmt.Fprintf(w, "# HELP rollaway_tick_duration_max_seconds Worst observed tick duration.\n")
			fmt.Fprintf(w, "# TYPE rollaway_tick_duration_max_seconds gauge\n")
			fmt.Fprintf(w, "rollaway_tick_duration_max_seconds %.6f\n", metrics.Max.Seconds())
			fmt.Fprintf(w, "# HELP rollaway_tick_overruns_total Ticks that exceeded the fixed-step budget.\n")
			fmt.Fprintf(w, "# TYPE rollaway_tick_overruns_total counter\n")
			fmt.Fprintf(w, "rollaway_tick_overruns_total %d\n", metrics.Overruns)
		}

		if h.inputDrops != nil {
			fmt.Fprintf(w, "# HELP rollaway_input_drops_total Key presses suppressed by the debounce gate.\n")
			fmt.Fprintf(w, "# TYPE rollaway_input_drops_total counter\n")
			fmt.Fprintf(w, "rollaway_input_drops_total %d\n", h.inputDrops())
		}

		if h.replayStats != nil {
			stats := h.replayStats()
			fmt.Fprintf(w, "# HELP rollaway_replay_buffer_frames Buffered replay frames awaiting dump.\n")
			fmt.Fprintf(w, "# TYPE rollaway_replay_buffer_frames gauge\n")
			fmt.Fprintf(w, "rollaway_replay_buffer_frames %d\n", stats.BufferedFrames)
			fmt.Fprintf(w, "# HELP rollaway_replay_buffer_bytes Buffered replay payload size in bytes.\n")
			fmt.Fprintf(w, "# TYPE rollaway_replay_buffer_bytes gauge\n")
			fmt.Fprintf(w, "rollaway_replay_buffer_bytes %d\n", stats.BufferedBytes)
			fmt.Fprintf(w, "# HELP rollaway_replay_dumps_total Replay dumps completed successfully.\n")
			fmt.Fprintf(w, "# TYPE rollaway_replay_dumps_total counter\n")
			fmt.Fprintf(w, "rollaway_replay_dumps_total %d\n", stats.Dumps)
		}
	}
}

// ReplayDumpHandler authorises and triggers replay dump creation.
func (h *HandlerSet) ReplayDumpHandler() http.HandlerFunc {
	type response struct {
		Status   string `json:"status"`
		Location string `json:"location,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := h.logger.With(
			logging.String("handler", "replay_dump"),
			logging.String("remote_addr", r.RemoteAddr),
		)
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if h.adminToken == "" {
			reqLogger.Warn("replay dump denied: admin auth disabled")
			http.Error(w, "admin authentication not configured", http.StatusForbidden)
			return
		}
		if !h.authorise(r) {
			reqLogger.Warn("replay dump denied: unauthorized request")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if h.rateLimiter != nil && !h.rateLimiter.Allow() {
			reqLogger.Warn("replay dump denied: rate limit exceeded")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		if h.replay == nil {
			reqLogger.Warn("replay dump denied: no dumper configured")
			http.Error(w, "replay dumping is unavailable", http.StatusServiceUnavailable)
			return
		}
		location, err := h.replay.DumpReplay(r.Context())
		if err != nil {
			reqLogger.Error("replay dump trigger failed", logging.Error(err))
			http.Error(w, "failed to trigger replay dump", http.StatusInternalServerError)
			return
		}
		reqLogger.Info("replay dump triggered")
		writeJSON(w, http.StatusAccepted, response{Status: "accepted", Location: location})
	}
}

// authorise accepts the admin token via Bearer header, X-Admin-Token or query
// parameter, compared in constant time.
func (h *HandlerSet) authorise(r *http.Request) bool {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	var token string
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		token = strings.TrimSpace(header[7:])
	} else if header != "" {
		token = header
	}
	if token == "" {
		token = strings.TrimSpace(r.Header.Get("X-Admin-Token"))
	}
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}
